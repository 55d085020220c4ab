package ui

import (
	"github.com/charmbracelet/bubbles/table"

	"bkmview/internal/nav"
	"bkmview/internal/scan"
)

// bodyHeight is the screen minus the header, status and hint lines.
func (m *Model) bodyHeight() int { return max(m.termHeight-3, 1) }

// listVisible is the number of cluster lines in the list panel.
func (m *Model) listVisible() int { return max(m.bodyHeight()-3, 1) }

// tableVisible is the number of row lines of the table view: the body minus
// the filter and page lines, the table header and its rule.
func (m *Model) tableVisible() int { return max(m.bodyHeight()-4, 1) }

// syncList keeps the list cursor on the selected cluster while the visible
// set changes under a filter.
func (m *Model) syncList(counts []scan.Count) {
	if len(counts) == 0 {
		m.listSel, m.listOffset = 0, 0
		return
	}
	found := false
	for i, c := range counts {
		if c.ID == m.selectedID {
			m.listSel, found = i, true
			break
		}
	}
	if !found {
		m.listSel = clamp(m.listSel, 0, len(counts)-1)
		m.selectedID = counts[m.listSel].ID
	}
	m.listOffset = nav.KeepInView(m.listSel, m.listOffset, m.listVisible())
}

func (m *Model) moveList(d int) {
	counts := m.coord.Counts()
	if len(counts) == 0 {
		return
	}
	m.listSel = (m.listSel + d + len(counts)) % len(counts)
	m.selectedID = counts[m.listSel].ID
	m.listOffset = nav.KeepInView(m.listSel, m.listOffset, m.listVisible())
}

// previewRefs returns the preview rows of the selected cluster, reusing the
// last evaluation while the filter and selection are unchanged.
func (m *Model) previewRefs() []int {
	key := m.coord.Key()
	if rows, ok := m.coord.Rows(m.selectedID); ok {
		return rows[:min(len(rows), previewRows)]
	}
	p := m.preview
	if p.valid && p.id == m.selectedID && p.key == key {
		return p.rows
	}
	m.preview = previewCache{id: m.selectedID, key: key, valid: true, rows: m.coord.Preview(m.selectedID, previewRows)}
	return m.preview.rows
}

// refreshTable feeds the bubbles table only the rows currently on screen.
// It reports false while the selected cluster's rows are being computed.
func (m *Model) refreshTable() bool {
	refs, ok := m.coord.Rows(m.selectedID)
	headers := m.table.Headers
	n := max(len(headers), 1)
	w := max((m.termWidth-2)/n-1, 3)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		cols[i] = table.Column{Title: h, Width: w}
	}
	visible := m.tableVisible()
	var rows []table.Row
	if ok {
		m.pager.Clamp(len(refs), visible)
		start, end := m.pager.Bounds(len(refs))
		from := min(start+m.pager.Offset, end)
		to := min(from+visible, end)
		for _, r := range refs[from:to] {
			rows = append(rows, table.Row(m.table.RowOrEmpty(r)))
		}
	}
	// rows must never be wider than the columns while they change
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
	m.tbl.SetHeight(len(rows) + 2)
	if len(rows) > 0 {
		m.tbl.SetCursor(m.pager.Cursor - m.pager.Offset)
	}
	return ok
}

func (m *Model) matchedTotal() int {
	refs, _ := m.coord.Rows(m.selectedID)
	return len(refs)
}
