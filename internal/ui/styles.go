package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Base        lipgloss.Style
	Header      lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Help        lipgloss.Style
	Panel       lipgloss.Style
	PanelTitle  lipgloss.Style
	ListItem    lipgloss.Style
	ListActive  lipgloss.Style
	Marker      lipgloss.Style
	Float       lipgloss.Style
	FloatTitle  lipgloss.Style
	Number      lipgloss.Style
	Empty       lipgloss.Style
	TableStyles TableStyles
}

type TableStyles struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
}

func NewStyles(dark bool) Styles {
	s := Styles{}
	if dark {
		s.Base = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		s.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		s.Panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60"))
		s.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.Float = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("213")).Padding(0, 1)
		s.FloatTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
		s.Number = lipgloss.NewStyle().Foreground(lipgloss.Color("149"))
		s.Marker = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	} else {
		s.Base = lipgloss.NewStyle()
		s.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12"))
		s.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.Float = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("5")).Padding(0, 1)
		s.FloatTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
		s.Number = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
		s.Marker = lipgloss.NewStyle().Foreground(lipgloss.Color("130"))
	}
	s.Error = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	s.Empty = lipgloss.NewStyle().Faint(true)
	s.ListItem = lipgloss.NewStyle()
	s.ListActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	s.TableStyles = TableStyles{
		Header:   lipgloss.NewStyle().Bold(true),
		Cell:     lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")),
	}
	return s
}
