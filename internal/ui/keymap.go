package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	Open      key.Binding
	Back      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Filter    key.Binding
	Commit    key.Binding
	Cancel    key.Binding
	Sort      key.Binding
	Explain   key.Binding
	Export    key.Binding
	AppLogs   key.Binding
	Copy      key.Binding
	Close     key.Binding
	Yes       key.Binding
	No        key.Binding
	Panel     key.Binding
	Select    key.Binding
	Apply     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "back")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit now")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Commit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Explain:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "explain")),
		Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		AppLogs:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "app logs")),
		Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Close:     key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc/q", "close")),
		Yes:       key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:        key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "no")),
		Panel:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Select:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	}
}

func (k KeyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Filter, k.Explain, k.AppLogs, k.Quit}
}

func (k KeyMap) tableHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Open, k.Filter, k.Sort, k.Export, k.Explain, k.Back}
}

func (k KeyMap) filterHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Cancel}
}
