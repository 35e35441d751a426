package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"news_ingest/internal/domain"
)

// WriteTable renders rows as an aligned text table. Widths are display
// widths so CJK and accented country names line up.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var sb strings.Builder
	writeRow(&sb, header, widths)
	for i, width := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", width))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(&sb, row, widths)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRow(sb *strings.Builder, row []string, widths []int) {
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			sb.WriteString("  ")
		}
		if i == len(widths)-1 {
			sb.WriteString(cell)
			continue
		}
		sb.WriteString(runewidth.FillRight(cell, width))
	}
	sb.WriteString("\n")
}

// WriteStatistics prints the totals followed by per-dimension count tables.
func WriteStatistics(w io.Writer, stats *domain.Statistics) error {
	if _, err := fmt.Fprintf(w, "Total articles: %d\n", stats.Total); err != nil {
		return err
	}
	if stats.LatestScrape != nil {
		if _, err := fmt.Fprintf(w, "Latest scrape:  %s\n", stats.LatestScrape.UTC().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}

	sections := []struct {
		title  string
		counts []domain.Count
	}{
		{"country", stats.ByCountry},
		{"language", stats.ByLanguage},
		{"source", stats.BySource},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		rows := make([][]string, 0, len(s.counts))
		for _, c := range s.counts {
			rows = append(rows, []string{c.Key, strconv.Itoa(c.Count)})
		}
		if err := WriteTable(w, []string{s.title, "articles"}, rows); err != nil {
			return err
		}
	}
	return nil
}
