package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"bkmview/internal/data"
	"bkmview/internal/nav"
)

type sortPanel int

const (
	panelColumns sortPanel = iota
	panelOrder
)

var orders = []data.Order{data.Ascending, data.Descending}

// list is one selectable panel of the sort menu. selected is the provisional
// choice made with space; cursor only moves.
type list struct {
	items    []string
	cursor   int
	offset   int
	selected int
	visible  int
}

func (l *list) move(d int) {
	if len(l.items) == 0 {
		return
	}
	l.cursor = clamp(l.cursor+d, 0, len(l.items)-1)
	l.offset = nav.KeepInView(l.cursor, l.offset, max(l.visible, 1))
}

type sortMenu struct {
	keys     KeyMap
	columns  list
	order    list
	focus    sortPanel
	applied  bool
	finished bool
}

func newSortMenu(keys KeyMap, columns []string, current string, order data.Order) *sortMenu {
	s := &sortMenu{keys: keys}
	s.columns = list{items: columns, visible: 10}
	s.order = list{items: []string{data.Ascending.String(), data.Descending.String()}, visible: 2}
	for i, c := range columns {
		if strings.EqualFold(c, current) {
			s.columns.selected, s.columns.cursor = i, i
		}
	}
	if order == data.Descending {
		s.order.selected, s.order.cursor = 1, 1
	}
	s.columns.move(0)
	return s
}

func (s *sortMenu) active() *list {
	if s.focus == panelOrder {
		return &s.order
	}
	return &s.columns
}

func (s *sortMenu) HandleKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, s.keys.Panel):
		if s.focus == panelColumns {
			s.focus = panelOrder
		} else {
			s.focus = panelColumns
		}
	case key.Matches(msg, s.keys.Up):
		s.active().move(-1)
	case key.Matches(msg, s.keys.Down):
		s.active().move(1)
	case key.Matches(msg, s.keys.Select):
		l := s.active()
		l.selected = l.cursor
	case key.Matches(msg, s.keys.Apply):
		s.applied, s.finished = true, true
	case key.Matches(msg, s.keys.Close):
		s.finished = true
	default:
		return false
	}
	return true
}

func (s *sortMenu) Finished() bool { return s.finished }

// Result is the chosen column and order; ok is false when cancelled.
func (s *sortMenu) Result() (string, data.Order, bool) {
	if !s.applied || len(s.columns.items) == 0 {
		return "", data.Ascending, false
	}
	return s.columns.items[s.columns.selected], orders[s.order.selected], true
}

func (s *sortMenu) Shortcuts() []key.Binding {
	return []key.Binding{s.keys.Panel, s.keys.Up, s.keys.Down, s.keys.Select, s.keys.Apply, s.keys.Close}
}

func (s *sortMenu) View(w, h int, st Styles) string {
	leftW := max(w*2/3-1, 8)
	rightW := max(w-leftW-1, 8)
	// title line and panel title
	rows := max(h-2, 1)
	s.columns.visible = rows
	s.columns.offset = nav.KeepInView(s.columns.cursor, s.columns.offset, rows)
	left := s.renderList(&s.columns, "Column", leftW, rows, s.focus == panelColumns, st)
	right := s.renderList(&s.order, "Order", rightW, rows, s.focus == panelOrder, st)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	return st.FloatTitle.Render("Sort rows") + "\n" + body
}

func (s *sortMenu) renderList(l *list, title string, w, rows int, focused bool, st Styles) string {
	var b strings.Builder
	t := st.PanelTitle
	if !focused {
		t = st.Help
	}
	b.WriteString(t.Render(title))
	end := min(l.offset+rows, len(l.items))
	for i := l.offset; i < end; i++ {
		mark := "( )"
		if i == l.selected {
			mark = st.Marker.Render("(x)")
		}
		line := mark + " " + truncate.StringWithTail(l.items[i], uint(max(w-4, 1)), "…")
		if focused && i == l.cursor {
			line = st.ListActive.Render(stripANSI(line))
		}
		b.WriteString("\n" + line)
	}
	return lipgloss.NewStyle().Width(w).Render(b.String())
}
