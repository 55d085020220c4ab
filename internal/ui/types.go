package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"bkmview/internal/ai"
	"bkmview/internal/config"
	"bkmview/internal/data"
	"bkmview/internal/ingest"
	"bkmview/internal/nav"
	gauge "bkmview/internal/progress"
	"bkmview/internal/scan"
)

const (
	tickInterval = 50 * time.Millisecond
	// drained per tick so a chatty job cannot stall input handling
	maxLinesPerTick = 200
	minWidth        = 80
	minHeight       = 24
	previewRows     = 10
)

// task names the work behind the loading float.
type task int

const (
	taskLoad task = iota
	taskFilter
	taskSort
	taskExplain
	taskExport
)

type phase int

const (
	phaseClustering phase = iota
	phaseLoading
	phaseBrowse
)

type mode int

const (
	modeClusterList mode = iota
	modeClusterTable
)

func (m mode) String() string {
	if m == modeClusterTable {
		return "Cluster table"
	}
	return "Cluster list"
}

type Model struct {
	ctx    context.Context
	cfg    *config.Config
	styles Styles
	keymap KeyMap
	help   help.Model
	spin   spinner.Model
	bar    progress.Model
	tbl    table.Model
	filter textinput.Model
	ai     *ai.OpenAIClient

	termWidth  int
	termHeight int
	phase      phase
	mode       mode

	// clustering job
	proc       *ingest.Process
	procLines  <-chan ingest.Line
	tailLines  <-chan ingest.Line
	tailCancel context.CancelFunc
	gauge      *gauge.Gauge

	table *data.Table
	index *data.ClusterIndex
	coord *scan.Coordinator
	fatal error

	listSel    int
	listOffset int
	selectedID int
	pager      nav.Pager
	sortColumn string
	sortOrder  data.Order

	filterActive bool
	committed    string

	preview previewCache

	// at most one float of each kind
	detail    *float
	quit      *float
	sortFloat *float
	loading   *float
	// loadingFor is the background task the loading float belongs to.
	loadingFor task

	status    string
	statusErr bool
	closed    bool
}

type previewCache struct {
	id    int
	key   string
	valid bool
	rows  []int
}

type tickMsg struct{}

type loadedMsg struct {
	table      *data.Table
	index      *data.ClusterIndex
	sortColumn string
	err        error
}

type sortedMsg struct {
	index  *data.ClusterIndex
	column string
	order  data.Order
	err    error
}

type explainMsg struct {
	cluster int
	exp     ai.Explanation
	err     error
}

type exportedMsg struct {
	path string
	rows int
	err  error
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}
