package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	gauge "bkmview/internal/progress"
)

func (m *Model) View() string {
	if m.termWidth < minWidth || m.termHeight < minHeight {
		return m.renderTooSmall()
	}
	var base string
	switch m.phase {
	case phaseClustering:
		return m.renderProgress()
	case phaseLoading:
		base = strings.Repeat("\n", m.termHeight-1)
	default:
		base = m.renderBrowse()
	}
	return renderFloats(base, m.termWidth, m.termHeight, m.styles, m.sortFloat, m.loading, m.quit, m.detail)
}

func (m *Model) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small: %dx%d (need at least %dx%d)", m.termWidth, m.termHeight, minWidth, minHeight)
	return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, m.styles.Error.Render(msg))
}

func (m *Model) renderBrowse() string {
	var body string
	if m.mode == modeClusterTable {
		body = m.renderTable()
	} else {
		body = m.renderList()
	}
	body = lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatus(), m.renderHints())
}

func (m *Model) renderHeader() string {
	parts := []string{"bkmview", "File: " + m.readPath(), "Mode: " + m.mode.String()}
	if m.mode == modeClusterTable {
		parts = append(parts, fmt.Sprintf("Cluster: %d", m.selectedID))
	}
	if m.sortColumn != "" {
		parts = append(parts, fmt.Sprintf("Sort: %s %s", m.sortColumn, m.sortOrder))
	}
	return m.styles.Header.Render(truncate.StringWithTail(strings.Join(parts, " | "), uint(m.termWidth), "…"))
}

func (m *Model) renderFilterLine() string {
	if m.filterActive {
		return m.filter.View()
	}
	if m.committed == "" {
		return m.styles.Help.Render("/ to filter")
	}
	s := "/" + m.committed
	if m.coord.Scanning() {
		s += "  " + m.spin.View() + " counting"
	}
	return truncate.StringWithTail(s, uint(m.termWidth), "…")
}

func (m *Model) renderList() string {
	counts := m.coord.Counts()
	filtered := m.coord.Key() != ""
	leftW := max(m.termWidth*2/5, 30)
	rightW := max(m.termWidth-leftW-1, 20)
	rows := m.listVisible()

	var lb strings.Builder
	lb.WriteString(m.styles.PanelTitle.Render(fmt.Sprintf("Clusters (%d)", len(counts))))
	if len(counts) == 0 {
		msg := "no clusters"
		if filtered {
			msg = "no matches yet"
			if !m.coord.Scanning() {
				msg = "no matching rows"
			}
		}
		lb.WriteString("\n" + m.styles.Empty.Render(msg))
	}
	end := min(m.listOffset+rows, len(counts))
	for i := m.listOffset; i < end; i++ {
		line := fit(countLabel(counts[i], filtered), leftW-2)
		if i == m.listSel {
			line = m.styles.ListActive.Render(line)
		} else {
			line = m.styles.ListItem.Render(line)
		}
		lb.WriteString("\n" + line)
	}
	left := lipgloss.NewStyle().Width(leftW).Render(lb.String())

	var rb strings.Builder
	rb.WriteString(m.styles.PanelTitle.Render(fmt.Sprintf("Preview of cluster %d", m.selectedID)))
	if len(counts) > 0 {
		cols := pickColumns(m.table.Headers, m.cfg.ClusterColumn, 5)
		cw := max(rightW/max(len(cols), 1)-1, 3)
		var hdr []string
		for _, c := range cols {
			hdr = append(hdr, fit(m.table.Headers[c], cw))
		}
		rb.WriteString("\n" + m.styles.TableStyles.Header.Render(strings.Join(hdr, " ")))
		refs := m.previewRefs()
		for _, r := range refs {
			row := m.table.RowOrEmpty(r)
			var cells []string
			for _, c := range cols {
				cells = append(cells, fit(row[c], cw))
			}
			rb.WriteString("\n" + strings.Join(cells, " "))
		}
		if len(refs) == 0 {
			rb.WriteString("\n" + m.styles.Empty.Render("no matching rows in the first scanned entries"))
		}
	}
	right := lipgloss.NewStyle().Width(rightW).Render(rb.String())
	return m.renderFilterLine() + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m *Model) renderTable() string {
	ok := m.refreshTable()
	total := m.matchedTotal()
	var info string
	switch {
	case !ok:
		info = m.spin.View() + " filtering cluster " + fmt.Sprint(m.selectedID) + "..."
	case total == 0:
		info = "no matching rows"
	default:
		start, end := m.pager.Bounds(total)
		info = fmt.Sprintf("Page %d/%d | Rows %s-%s of %s", m.pager.Page+1, m.pager.Pages(total),
			humanize.Comma(int64(start+1)), humanize.Comma(int64(end)), humanize.Comma(int64(total)))
	}
	tv := ""
	if ok && total > 0 {
		tv = lipgloss.NewStyle().MaxHeight(m.tableVisible() + 2).Render(m.tbl.View())
	}
	return m.renderFilterLine() + "\n" + m.styles.Status.Render(info) + "\n" + tv
}

func (m *Model) renderStatus() string {
	st := m.styles.Status
	if m.statusErr {
		st = m.styles.Error
	}
	return st.Render(truncate.StringWithTail(m.status, uint(m.termWidth), "…"))
}

// renderHints shows the shortcuts of the frontmost float, or of the mode.
func (m *Model) renderHints() string {
	var b []key.Binding
	switch {
	case m.detail != nil:
		b = m.detail.content.Shortcuts()
	case m.quit != nil:
		b = m.quit.content.Shortcuts()
	case m.sortFloat != nil:
		b = m.sortFloat.content.Shortcuts()
	case m.filterActive:
		b = m.keymap.filterHelp()
	case m.mode == modeClusterTable:
		b = m.keymap.tableHelp()
	default:
		b = m.keymap.listHelp()
	}
	return m.help.ShortHelpView(b)
}

// renderProgress is the clustering screen: gauge, status, latest message and
// the tail of the job's status log.
func (m *Model) renderProgress() string {
	g := m.gauge
	title := m.styles.Header.Render("bkmview | Clustering " + m.cfg.InputPath)
	bar := m.bar.ViewAs(float64(g.Percent) / 100)
	status := g.Status
	if status == "" {
		status = "starting"
	}
	head := m.spin.View() + " " + status
	if g.Done {
		head = "done"
	}
	msg := g.Message
	msgStyle := m.styles.Base
	if g.Failed || gauge.IsError(msg) {
		msgStyle = m.styles.Error
	}
	logBox := m.styles.Panel.Width(max(m.termWidth-2, 10)).Height(gauge.MaxLogLines).Render(g.LogText())
	hint := m.styles.Help.Render("q quit")
	if g.Failed {
		hint = m.styles.Help.Render("clustering failed, q quit (see the log above)")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title, "", bar, head, msgStyle.Render(msg), "",
		m.styles.PanelTitle.Render("Status log"), logBox, hint)
}
