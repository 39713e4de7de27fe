package date

import (
	"testing"
	"time"
)

func TestNewNormalizes(t *testing.T) {
	// Out-of-range days carry over to the next month.
	d := New(2024, time.January, 32)
	if got, want := d.String(), "2024-02-01"; got != want {
		t.Errorf("New(2024, January, 32) = %v want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-02", want: "2024-01-02"},
		{in: "2024-1-2", want: "2024-01-02"}, // permissive form
		{in: "02/01/2024", wantErr: true},
		{in: "not-a-date", wantErr: true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got.String() != tc.want {
			t.Errorf("Parse(%q) = %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestOf(t *testing.T) {
	// A timestamp in a non-UTC zone is observed in UTC.
	loc := time.FixedZone("UTC-7", -7*3600)
	ts := time.Date(2024, time.March, 1, 20, 0, 0, 0, loc) // 03:00 UTC next day
	if got, want := Of(ts), New(2024, time.March, 2); got != want {
		t.Errorf("Of(%v) = %v want %v", ts, got, want)
	}
}

func TestAddAcrossMonth(t *testing.T) {
	d := New(2024, time.February, 28)
	if got, want := d.Add(2), New(2024, time.March, 1); got != want {
		t.Errorf("Add(2) = %v want %v (2024 is a leap year)", got, want)
	}
}

func TestCompare(t *testing.T) {
	a, b := New(2024, time.May, 1), New(2024, time.May, 2)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Errorf("Compare is not a total order: %v vs %v", a, b)
	}
}
