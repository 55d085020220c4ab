package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"bkmview/internal/scan"
)

// preferred preview columns of access-log tables
var previewColumns = []string{"ip", "method", "url", "status", "size"}

// detailLines renders "header: value" lines with aligned keys.
func detailLines(headers, row []string, st Styles) []string {
	kw := 0
	for _, h := range headers {
		kw = max(kw, runewidth.StringWidth(h))
	}
	out := make([]string, 0, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(row) {
			v = row[i]
		}
		out = append(out, st.PanelTitle.Render(runewidth.FillRight(h, kw))+"  "+colorValue(v, st))
	}
	return out
}

func colorValue(v string, st Styles) string {
	if strings.TrimSpace(v) == "" {
		return st.Empty.Render("(empty)")
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return st.Number.Render(v)
	}
	return v
}

// rowText is the clipboard form of a row: a TSV header line and value line.
func rowText(headers, row []string) string {
	vals := make([]string, len(headers))
	for i := range headers {
		if i < len(row) {
			vals[i] = tsvField.Replace(row[i])
		}
	}
	return strings.Join(headers, "\t") + "\n" + strings.Join(vals, "\t")
}

var tsvField = strings.NewReplacer("\t", " ", "\n", " ", "\r", "")

// countLabel is "Cluster 3 (1,234 entries)", with the filtered count first
// while a filter is active.
func countLabel(c scan.Count, filtered bool) string {
	if !filtered {
		return fmt.Sprintf("Cluster %d (%s entries)", c.ID, humanize.Comma(int64(c.Size)))
	}
	n := humanize.Comma(int64(c.Matched))
	if !c.Exact {
		n = "≥" + n
	}
	return fmt.Sprintf("Cluster %d (%s/%s)", c.ID, n, humanize.Comma(int64(c.Size)))
}

// pickColumns returns indices of the preview columns present in headers,
// or the first n columns when none are.
func pickColumns(headers []string, skip string, n int) []int {
	var out []int
	for _, want := range previewColumns {
		for i, h := range headers {
			if strings.EqualFold(h, want) {
				out = append(out, i)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for i, h := range headers {
		if len(out) == n {
			break
		}
		if !strings.EqualFold(h, skip) {
			out = append(out, i)
		}
	}
	return out
}
