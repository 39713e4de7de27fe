package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each associated with
// a specific date. Dates are unique and the series is always sorted;
// appending to an existing date overwrites (last write wins).
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Len returns the number of entries in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Latest returns the latest date and value in the history, or zero
// values if the history is empty.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T)
	}
	return h.days[last], h.values[last]
}

// Append adds a point to the history, keeping it sorted. An existing
// value at that date is overwritten.
func (h *History[T]) Append(on Date, v T) *History[T] {
	i, found := slices.BinarySearchFunc(h.days, on, Date.Compare)
	if found {
		h.values[i] = v
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, v)
	return h
}

// Get returns the value at exactly 'day', or the zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	i, found := slices.BinarySearchFunc(h.days, day, Date.Compare)
	if found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on a given day, or the most recent value
// strictly before it. It returns the zero value and false when no entry
// exists at or before the day.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := slices.BinarySearchFunc(h.days, day, Date.Compare)
	if found {
		return h.values[i], true
	}
	// i is the insertion index, so i-1 is the last entry before 'day'.
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// Values returns an iterator over all date/value pairs in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Days returns an iterator over the dates of the history in chronological order.
func (h *History[T]) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for _, on := range h.days {
			if !yield(on) {
				return
			}
		}
	}
}

// Iterate returns an iterator over all unique dates of multiple
// histories, merged in chronological order.
func Iterate[T float32 | float64 | string](histories ...*History[T]) iter.Seq[Date] {
	series := make([][]Date, 0, len(histories))
	for _, h := range histories {
		series = append(series, h.days)
	}
	return merge(series...)
}

// merge yields the sorted union of several sorted date slices,
// deduplicated across and within series.
func merge(series ...[]Date) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		indexes := make([]int, len(series))
		for {
			var min Date
			remaining := false
			for i, index := range indexes {
				if index >= len(series[i]) {
					continue
				}
				on := series[i][index]
				if !remaining || on.Before(min) {
					min = on
				}
				remaining = true
			}
			if !remaining {
				return
			}
			// Consume the min from every series that holds it.
			for i, index := range indexes {
				if index < len(series[i]) && series[i][index] == min {
					indexes[i]++
				}
			}
			if !yield(min) {
				return
			}
		}
	}
}
