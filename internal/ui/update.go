package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"bkmview/internal/filter"
	"bkmview/internal/scan"
	"bkmview/internal/util/logx"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		m.bar.Width = max(min(msg.Width-10, 80), 10)
		m.filter.Width = max(msg.Width-4, 10)
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tickMsg:
		return m, m.onTick()
	case loadedMsg:
		return m, m.onLoaded(msg)
	case sortedMsg:
		m.hideLoading(taskSort)
		if msg.err != nil {
			m.setStatus("sort failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.index = msg.index
		m.coord.ReplaceIndex(msg.index)
		m.sortColumn, m.sortOrder = msg.column, msg.order
		m.preview = previewCache{}
		m.pager.Reset()
		if m.mode == modeClusterTable && m.coord.RequestRows(m.selectedID) {
			m.showFiltering()
		}
		m.setStatus(fmt.Sprintf("sorted by %s (%s)", msg.column, msg.order), false)
		return m, nil
	case explainMsg:
		m.hideLoading(taskExplain)
		if msg.err != nil {
			m.setStatus("explain failed: "+msg.err.Error(), true)
			return m, nil
		}
		title := fmt.Sprintf("Cluster %d explained", msg.cluster)
		m.detail = newFloat(newDetailFloat(title, msg.exp.Lines(), "", m.keymap), sizePercent, 70, 60)
		return m, nil
	case exportedMsg:
		m.hideLoading(taskExport)
		if msg.err != nil {
			m.setStatus("export failed: "+msg.err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("exported %s rows to %s", humanize.Comma(int64(msg.rows)), msg.path), false)
		}
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m *Model) onTick() tea.Cmd {
	var cmd tea.Cmd
	switch m.phase {
	case phaseClustering:
		if m.drainClustering() {
			logx.Infof("ui: clustering finished, loading %s", m.cfg.Output)
			m.stopClustering()
			cmd = m.loadCmd()
		}
	case phaseBrowse:
		m.coord.Tick()
		if _, ok := m.coord.Poll(); ok {
			m.hideLoading(taskFilter)
			if err := m.coord.Err(); err != nil {
				m.setStatus("filter failed: "+err.Error(), true)
			}
		}
		if m.mode == modeClusterTable && m.coord.Err() == nil && m.coord.RequestRows(m.selectedID) {
			m.showFiltering()
		}
		if m.mode == modeClusterList {
			m.syncList(m.coord.Counts())
		}
	}
	return tea.Batch(tick(), cmd)
}

func (m *Model) onLoaded(msg loadedMsg) tea.Cmd {
	m.hideLoading(taskLoad)
	if msg.err != nil {
		logx.Errorf("ui: load failed: %v", msg.err)
		m.fatal = msg.err
		return tea.Quit
	}
	m.table, m.index = msg.table, msg.index
	m.sortColumn = msg.sortColumn
	m.coord = scan.NewCoordinator(m.table, m.index, m.cfg.Budget)
	m.phase = phaseBrowse
	m.mode = modeClusterList
	m.syncList(m.coord.Counts())
	m.setStatus(fmt.Sprintf("%s rows in %d clusters", humanize.Comma(int64(m.table.Len())), m.index.Len()), false)
	return nil
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.close()
		return m, tea.Quit
	}
	switch m.phase {
	case phaseClustering, phaseLoading:
		if key.Matches(msg, m.keymap.Quit) {
			m.close()
			return m, tea.Quit
		}
		return m, nil
	}
	if m.detail != nil {
		if m.detail.HandleKey(msg) {
			m.detail = nil
		}
		return m, nil
	}
	if m.quit != nil {
		if m.quit.HandleKey(msg) {
			q := m.quit.content.(*quitFloat)
			m.quit = nil
			if q.confirmed {
				m.close()
				return m, tea.Quit
			}
		}
		return m, nil
	}
	if m.sortFloat != nil {
		if m.sortFloat.HandleKey(msg) {
			s := m.sortFloat.content.(*sortMenu)
			m.sortFloat = nil
			if col, order, ok := s.Result(); ok {
				return m, m.sortCmd(col, order)
			}
		}
		return m, nil
	}
	if m.filterActive {
		return m, m.onFilterKey(msg)
	}
	if m.mode == modeClusterTable {
		return m, m.onTableKey(msg)
	}
	return m, m.onListKey(msg)
}

func (m *Model) onListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Up):
		m.moveList(-1)
	case key.Matches(msg, m.keymap.Down):
		m.moveList(1)
	case key.Matches(msg, m.keymap.Open), key.Matches(msg, m.keymap.NextPage):
		if len(m.coord.Counts()) == 0 {
			return nil
		}
		m.mode = modeClusterTable
		m.pager.Reset()
		if m.coord.RequestRows(m.selectedID) {
			m.showFiltering()
		}
	case key.Matches(msg, m.keymap.Filter):
		return m.openFilter()
	case key.Matches(msg, m.keymap.Explain):
		return m.explainCmd(m.selectedID)
	case key.Matches(msg, m.keymap.AppLogs):
		m.openAppLogs()
	case key.Matches(msg, m.keymap.Quit):
		m.quit = newFloat(&quitFloat{keys: m.keymap}, sizeAbsolute, 40, 6)
	}
	return nil
}

func (m *Model) onTableKey(msg tea.KeyMsg) tea.Cmd {
	total := m.matchedTotal()
	switch {
	case key.Matches(msg, m.keymap.Up):
		m.pager.Up()
	case key.Matches(msg, m.keymap.Down):
		m.pager.Down(total)
	case key.Matches(msg, m.keymap.PrevPage):
		m.pager.PrevPage()
	case key.Matches(msg, m.keymap.NextPage):
		m.pager.NextPage(total)
	case key.Matches(msg, m.keymap.Open):
		m.openDetail()
	case key.Matches(msg, m.keymap.Filter):
		return m.openFilter()
	case key.Matches(msg, m.keymap.Sort):
		m.sortFloat = newFloat(newSortMenu(m.keymap, m.table.Headers, m.sortColumn, m.sortOrder), sizePercent, 60, 60)
	case key.Matches(msg, m.keymap.Export):
		return m.exportCmd(m.selectedID)
	case key.Matches(msg, m.keymap.Explain):
		return m.explainCmd(m.selectedID)
	case key.Matches(msg, m.keymap.AppLogs):
		m.openAppLogs()
	case key.Matches(msg, m.keymap.Back):
		m.mode = modeClusterList
	}
	m.pager.Clamp(total, m.tableVisible())
	return nil
}

func (m *Model) openFilter() tea.Cmd {
	m.filterActive = true
	m.filter.SetValue(m.committed)
	m.filter.CursorEnd()
	return m.filter.Focus()
}

// onFilterKey edits the filter box. Enter commits the text, Esc restores
// the committed one.
func (m *Model) onFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Commit):
		m.filterActive = false
		m.filter.Blur()
		text := m.filter.Value()
		started, err := m.coord.Commit(filter.Parse(text), m.focus())
		if err != nil {
			m.setStatus("invalid filter: "+err.Error(), true)
			m.filter.SetValue(m.committed)
			return nil
		}
		m.committed = text
		m.preview = previewCache{}
		m.pager.Reset()
		if started && m.mode == modeClusterTable {
			m.showFiltering()
		}
		if text == "" {
			m.setStatus("filter cleared", false)
		} else {
			m.setStatus("filter: "+text, false)
		}
		return nil
	case key.Matches(msg, m.keymap.Cancel):
		m.filterActive = false
		m.filter.Blur()
		m.filter.SetValue(m.committed)
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return cmd
}

// focus is the cluster whose rows the next filter job should collect.
func (m *Model) focus() int {
	if m.mode == modeClusterTable {
		return m.selectedID
	}
	return -1
}

func (m *Model) openDetail() {
	refs, ok := m.coord.Rows(m.selectedID)
	sel := m.pager.Selected()
	if !ok || sel >= len(refs) {
		return
	}
	row := m.table.RowOrEmpty(refs[sel])
	title := fmt.Sprintf("Cluster %d, row %s of %s", m.selectedID, humanize.Comma(int64(sel+1)), humanize.Comma(int64(len(refs))))
	m.detail = newFloat(newDetailFloat(title, detailLines(m.table.Headers, row, m.styles), rowText(m.table.Headers, row), m.keymap), sizeAbsolute, 70, 16)
}

func (m *Model) openAppLogs() {
	lines := logx.Lines()
	if len(lines) == 0 {
		lines = []string{"(no log lines yet)"}
	}
	m.detail = newFloat(newDetailFloat("Application logs", lines, logx.Dump(), m.keymap), sizePercent, 90, 80)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
	if isErr {
		logx.Warnf("ui: %s", s)
	}
}
