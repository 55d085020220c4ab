package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bkmview/internal/ai"
	"bkmview/internal/config"
	"bkmview/internal/data"
	"bkmview/internal/nav"
	"bkmview/internal/util/logx"
)

func initialModel(ctx context.Context, cfg *config.Config) *Model {
	m := &Model{
		ctx:        ctx,
		cfg:        cfg,
		styles:     NewStyles(cfg.Theme == config.ThemeDark),
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		spin:       spinner.New(),
		bar:        progress.New(progress.WithDefaultGradient()),
		filter:     textinput.New(),
		pager:      nav.New(cfg.RowsPerPage),
		sortOrder:  data.Ascending,
		selectedID: -1,
		termWidth:  minWidth,
		termHeight: minHeight,
	}
	m.spin.Spinner = spinner.Dot
	m.filter.Placeholder = "ip=10.0.0.1 status>=500  or  ?status >= 500 && method == \"POST\""
	m.filter.CharLimit = 512
	m.filter.Prompt = "/"

	m.tbl = table.New(table.WithFocused(true), table.WithHeight(10))
	ts := table.DefaultStyles()
	ts.Header = m.styles.TableStyles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).PaddingRight(1)
	ts.Cell = m.styles.TableStyles.Cell.PaddingRight(1)
	ts.Selected = m.styles.TableStyles.Selected
	m.tbl.SetStyles(ts)

	if !cfg.Offline && cfg.OpenAIKey() != "" {
		m.ai = ai.NewOpenAIClient(cfg.OpenAIKey(), cfg.OpenAIBase, cfg.OpenAIModel, time.Duration(cfg.OpenAITimeoutSec)*time.Second)
	}
	return m
}

// Run drives the viewer until the user quits. A table that cannot be loaded
// ends the program with that error.
func Run(ctx context.Context, cfg *config.Config) error {
	m := initialModel(ctx, cfg)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	m.close()
	if m.fatal != nil {
		return m.fatal
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(), m.spin.Tick}
	if m.cfg.InputPath != "" {
		m.startClustering()
	} else {
		cmds = append(cmds, m.loadCmd())
	}
	return tea.Batch(cmds...)
}

// close stops the clustering job and the filter worker. It is idempotent.
func (m *Model) close() {
	if m.closed {
		return
	}
	m.closed = true
	m.stopClustering()
	if m.coord != nil {
		m.coord.Close()
	}
	logx.Infof("ui: closed")
}
