package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// floatContent is what a centered popup shows. View gets the inner size,
// excluding the border and padding drawn by the float itself.
type floatContent interface {
	View(w, h int, st Styles) string
	HandleKey(msg tea.KeyMsg) bool
	Finished() bool
	Shortcuts() []key.Binding
}

type sizeMode int

const (
	sizeAbsolute sizeMode = iota
	sizePercent
)

type float struct {
	content floatContent
	mode    sizeMode
	w, h    int
}

type rect struct{ x, y, w, h int }

func newFloat(c floatContent, mode sizeMode, w, h int) *float {
	return &float{content: c, mode: mode, w: w, h: h}
}

// rect centers the float in a parent of pw x ph cells.
func (f *float) rect(pw, ph int) rect {
	w, h := f.w, f.h
	if f.mode == sizePercent {
		w, h = pw*f.w/100, ph*f.h/100
	}
	w = clamp(w, 1, pw)
	h = clamp(h, 1, ph)
	return rect{x: (pw - w) / 2, y: (ph - h) / 2, w: w, h: h}
}

// HandleKey forwards msg and reports whether the float is done.
func (f *float) HandleKey(msg tea.KeyMsg) bool {
	f.content.HandleKey(msg)
	return f.content.Finished()
}

func (f *float) View(pw, ph int, st Styles) string {
	r := f.rect(pw, ph)
	// border 1 + padding 1 on each side horizontally, border only vertically
	iw, ih := max(r.w-4, 1), max(r.h-2, 1)
	body := f.content.View(iw, ih, st)
	body = lipgloss.NewStyle().MaxWidth(iw).MaxHeight(ih).Render(body)
	return st.Float.Width(r.w - 2).Height(r.h - 2).Render(body)
}

// renderFloats draws the open floats over base, dimming base once.
func renderFloats(base string, pw, ph int, st Styles, floats ...*float) string {
	out := base
	dimmed := false
	for _, f := range floats {
		if f == nil {
			continue
		}
		if !dimmed {
			out = lipgloss.NewStyle().Faint(true).Render(out)
			dimmed = true
		}
		box := lipgloss.Place(pw, ph, lipgloss.Center, lipgloss.Center, f.View(pw, ph, st))
		out = overlay(out, box)
	}
	return out
}

// detailFloat shows a titled scrollable text.
type detailFloat struct {
	title    string
	lines    []string
	raw      string
	vp       viewport.Model
	keys     KeyMap
	note     string
	finished bool
}

func newDetailFloat(title string, lines []string, raw string, keys KeyMap) *detailFloat {
	return &detailFloat{title: title, lines: lines, raw: raw, vp: viewport.New(0, 0), keys: keys}
}

func (d *detailFloat) View(w, h int, st Styles) string {
	d.vp.Width = w
	d.vp.Height = max(h-2, 1)
	d.vp.SetContent(strings.Join(d.lines, "\n"))
	foot := st.Help.Render(d.note)
	return st.FloatTitle.Render(d.title) + "\n" + d.vp.View() + "\n" + foot
}

func (d *detailFloat) HandleKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, d.keys.Close):
		d.finished = true
	case key.Matches(msg, d.keys.Copy):
		if d.raw == "" {
			return true
		}
		if err := copyText(d.raw); err != nil {
			d.note = "copy failed: " + err.Error()
		} else {
			d.note = "copied to clipboard"
		}
	case key.Matches(msg, d.keys.Up):
		d.vp.LineUp(1)
	case key.Matches(msg, d.keys.Down):
		d.vp.LineDown(1)
	case msg.Type == tea.KeyPgUp:
		d.vp.HalfViewUp()
	case msg.Type == tea.KeyPgDown:
		d.vp.HalfViewDown()
	default:
		return false
	}
	return true
}

func (d *detailFloat) Finished() bool { return d.finished }

func (d *detailFloat) Shortcuts() []key.Binding {
	b := []key.Binding{d.keys.Up, d.keys.Down, d.keys.Close}
	if d.raw != "" {
		b = append(b, d.keys.Copy)
	}
	return b
}

type quitFloat struct {
	keys      KeyMap
	confirmed bool
	finished  bool
}

func (q *quitFloat) View(w, h int, st Styles) string {
	return st.FloatTitle.Render("Quit") + "\n\nQuit bkmview?\n" + st.Help.Render("[y] yes  [n] no")
}

func (q *quitFloat) HandleKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, q.keys.Yes):
		q.confirmed, q.finished = true, true
	case key.Matches(msg, q.keys.No), key.Matches(msg, q.keys.Quit):
		q.finished = true
	default:
		return false
	}
	return true
}

func (q *quitFloat) Finished() bool           { return q.finished }
func (q *quitFloat) Shortcuts() []key.Binding { return []key.Binding{q.keys.Yes, q.keys.No} }

// loadingFloat never finishes on its own; the model drops it.
type loadingFloat struct {
	message string
	spin    *spinner.Model
}

func (l *loadingFloat) View(w, h int, st Styles) string {
	return st.FloatTitle.Render("Working") + "\n" + l.spin.View() + " " + l.message
}

func (l *loadingFloat) HandleKey(tea.KeyMsg) bool { return false }
func (l *loadingFloat) Finished() bool            { return false }
func (l *loadingFloat) Shortcuts() []key.Binding  { return nil }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
