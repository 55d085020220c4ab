package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"bkmview/internal/ai"
	"bkmview/internal/data"
	"bkmview/internal/export"
	"bkmview/internal/ingest"
	gauge "bkmview/internal/progress"
	"bkmview/internal/util/logx"
)

// defaultSortColumn is applied on load when the table has it.
const defaultSortColumn = "ip"

// startClustering spawns the clustering job and follows its status log.
func (m *Model) startClustering() {
	m.phase = phaseClustering
	m.gauge = gauge.NewGauge()
	m.proc = ingest.Start(m.ctx, ingest.ProcessOptions{
		Command:  m.cfg.Python,
		Script:   m.cfg.Script,
		Input:    m.cfg.InputPath,
		Output:   m.cfg.Output,
		Clusters: m.cfg.Clusters,
	})
	m.procLines = m.proc.Lines
	tctx, cancel := context.WithCancel(m.ctx)
	m.tailCancel = cancel
	m.tailLines, _ = ingest.TailStatus(tctx, ingest.StatusLogPath(m.cfg.Output))
	logx.Infof("ui: clustering %s into %s (k=%d)", m.cfg.InputPath, m.cfg.Output, m.cfg.Clusters)
}

// drainClustering moves pending job output into the gauge without blocking.
// It reports whether the job signalled completion.
func (m *Model) drainClustering() bool {
	if m.procLines != nil && !drain(m.procLines, func(l ingest.Line) {
		if ev, ok := gauge.ParseLine(l.Text); ok {
			m.gauge.Apply(ev)
		}
	}) {
		m.procLines = nil
		if !m.gauge.Done && !m.gauge.Failed {
			m.gauge.Apply(gauge.Event{Kind: gauge.Error, Text: "clustering process exited before completion"})
		}
	}
	if m.tailLines != nil && !drain(m.tailLines, func(l ingest.Line) { m.gauge.AddLog(l.Text) }) {
		m.tailLines = nil
	}
	return m.gauge.Done
}

// drain hands at most maxLinesPerTick waiting lines to fn. It returns false
// once ch is closed.
func drain(ch <-chan ingest.Line, fn func(ingest.Line)) bool {
	for i := 0; i < maxLinesPerTick; i++ {
		select {
		case l, ok := <-ch:
			if !ok {
				return false
			}
			fn(l)
		default:
			return true
		}
	}
	return true
}

func (m *Model) stopClustering() {
	if m.tailCancel != nil {
		m.tailCancel()
		m.tailCancel = nil
	}
	if m.proc != nil {
		m.proc.Stop()
		m.proc = nil
	}
	m.procLines, m.tailLines = nil, nil
}

func (m *Model) readPath() string {
	if m.cfg.ReadPath != "" {
		return m.cfg.ReadPath
	}
	return m.cfg.Output
}

// loadCmd loads the table and its cluster index off the UI goroutine.
func (m *Model) loadCmd() tea.Cmd {
	m.phase = phaseLoading
	m.showLoading(taskLoad, "Loading "+m.readPath()+"...")
	ctx, cfg, path := m.ctx, m.cfg, m.readPath()
	return func() tea.Msg {
		start := time.Now()
		t, err := data.Load(path, data.LoadOptions{
			PageSize:     cfg.PageSize,
			Comma:        cfg.DelimiterRune(),
			EagerBytes:   int64(cfg.EagerMB) << 20,
			MaxGzipBytes: int64(cfg.GzipMaxMB) << 20,
			NoCache:      cfg.NoCache,
		})
		if err != nil {
			return loadedMsg{err: err}
		}
		idx, err := data.BuildClusterIndex(ctx, t, cfg.ClusterColumn)
		if err != nil {
			return loadedMsg{err: err}
		}
		col := ""
		if t.ColumnIndex(defaultSortColumn) >= 0 {
			if err := data.SortClusters(ctx, t, idx, defaultSortColumn, data.Ascending); err != nil {
				return loadedMsg{err: err}
			}
			col = defaultSortColumn
		}
		logx.Infof("ui: loaded %s rows in %d clusters from %s in %s", humanize.Comma(int64(t.Len())), idx.Len(), path, time.Since(start).Round(time.Millisecond))
		return loadedMsg{table: t, index: idx, sortColumn: col}
	}
}

// sortCmd sorts a copy of the index; the coordinator swaps it in on arrival.
func (m *Model) sortCmd(column string, order data.Order) tea.Cmd {
	m.showLoading(taskSort, "Sorting by "+column+"...")
	ctx, t, idx := m.ctx, m.table.Clone(), m.index.Clone()
	return func() tea.Msg {
		err := data.SortClusters(ctx, t, idx, column, order)
		return sortedMsg{index: idx, column: column, order: order, err: err}
	}
}

func (m *Model) explainCmd(cluster int) tea.Cmd {
	if m.ai == nil {
		m.setStatus("OpenAI explanations are disabled (set OPENAI_API_KEY, drop --offline)", true)
		return nil
	}
	refs := m.coord.Preview(cluster, ai.MaxSampleRows)
	if len(refs) == 0 {
		m.setStatus(fmt.Sprintf("cluster %d has no rows to explain", cluster), true)
		return nil
	}
	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, m.table.RowOrEmpty(r))
	}
	m.showLoading(taskExplain, fmt.Sprintf("Asking OpenAI about cluster %d...", cluster))
	ctx, client, headers := m.ctx, m.ai, m.table.Headers
	return func() tea.Msg {
		exp, err := client.ExplainCluster(ctx, cluster, headers, rows)
		return explainMsg{cluster: cluster, exp: exp, err: err}
	}
}

func (m *Model) exportCmd(cluster int) tea.Cmd {
	if m.cfg.ExportFormat == "" {
		m.setStatus("export is disabled (start with --export csv|json --out path)", true)
		return nil
	}
	refs, ok := m.coord.Rows(cluster)
	if !ok {
		m.setStatus("rows are still being filtered", true)
		return nil
	}
	refs = append([]int(nil), refs...)
	t, headers := m.table.Clone(), m.table.Headers
	format, path := m.cfg.ExportFormat, m.cfg.ExportOut
	m.showLoading(taskExport, "Exporting...")
	return func() tea.Msg {
		err := export.Write(format, path, headers, func(i int) []string { return t.RowOrEmpty(i) }, refs)
		return exportedMsg{path: path, rows: len(refs), err: err}
	}
}

func (m *Model) showLoading(t task, msg string) {
	m.loading = newFloat(&loadingFloat{message: msg, spin: &m.spin}, sizeAbsolute, 50, 5)
	m.loadingFor = t
}

// showFiltering shows the filtering float unless another task owns it.
func (m *Model) showFiltering() {
	if m.loading == nil {
		m.showLoading(taskFilter, "Filtering...")
	}
}

// hideLoading dismisses the loading float if t owns it.
func (m *Model) hideLoading(t task) {
	if m.loading != nil && m.loadingFor == t {
		m.loading = nil
	}
}
