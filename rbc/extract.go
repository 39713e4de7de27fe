package rbc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// rowTolerance is how far apart two glyph baselines can be while still
// belonging to the same visual line.
const rowTolerance = 2.0

// extractPages returns the text of every page of a statement, each page
// reassembled into visual lines. Statements are column-positioned, so
// glyphs are grouped by baseline and ordered left to right rather than
// relying on the content-stream order.
func extractPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open statement: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText(page))
	}
	return pages, nil
}

func pageText(page pdf.Page) string {
	texts := page.Content().Text
	if len(texts) == 0 {
		return ""
	}

	// Bucket glyphs into lines by baseline, top of page first.
	type line struct {
		y     float64
		texts []pdf.Text
	}
	var lines []*line
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		var row *line
		for _, l := range lines {
			if t.Y > l.y-rowTolerance && t.Y < l.y+rowTolerance {
				row = l
				break
			}
		}
		if row == nil {
			row = &line{y: t.Y}
			lines = append(lines, row)
		}
		row.texts = append(row.texts, t)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var sb strings.Builder
	for _, l := range lines {
		sort.Slice(l.texts, func(i, j int) bool { return l.texts[i].X < l.texts[j].X })
		prevEnd := 0.0
		for i, t := range l.texts {
			// A visible horizontal gap separates words; adjacent glyph
			// runs are concatenated as-is.
			if i > 0 && t.X-prevEnd > 1.0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.S)
			prevEnd = t.X + t.W
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
