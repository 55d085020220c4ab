// Package progress decodes the line protocol printed by the clustering job
// and keeps the state shown by the progress screen.
package progress

import (
	"strconv"
	"strings"
)

type Kind int

const (
	Percent Kind = iota
	Status
	Done
	Error
)

type Event struct {
	Kind    Kind
	Percent int
	Text    string
}

// ParseLine decodes one line. Lines outside the protocol are ignored unless
// they carry a failure marker.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "PROGRESS:"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "PROGRESS:")))
		if err != nil {
			return Event{}, false
		}
		if n < 0 {
			n = 0
		}
		if n > 100 {
			n = 100
		}
		return Event{Kind: Percent, Percent: n}, true
	case strings.HasPrefix(line, "STATUS:"):
		return Event{Kind: Status, Text: strings.TrimSpace(strings.TrimPrefix(line, "STATUS:"))}, true
	case line == "DONE":
		return Event{Kind: Done}, true
	case strings.HasPrefix(line, "ERROR:"):
		return Event{Kind: Error, Text: strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))}, true
	case strings.Contains(line, "Traceback") || strings.Contains(line, "Exception"):
		return Event{Kind: Error, Text: line}, true
	}
	return Event{}, false
}

// MaxLogLines is how many status-log lines the gauge keeps.
const MaxLogLines = 12

// Gauge is the state of the clustering progress display.
type Gauge struct {
	Percent int
	Status  string
	Message string
	Failed  bool
	Done    bool
	Log     []string
}

func NewGauge() *Gauge {
	return &Gauge{Status: "Starting clustering..."}
}

func (g *Gauge) Apply(ev Event) {
	switch ev.Kind {
	case Percent:
		g.Percent = ev.Percent
	case Status:
		g.Status = ev.Text
	case Done:
		g.Done = true
		g.Percent = 100
		g.Status = "Clustering complete"
	case Error:
		g.Failed = true
		g.Message = ev.Text
	}
}

// AddLog appends a status-log line, keeping the newest MaxLogLines.
func (g *Gauge) AddLog(line string) {
	g.Log = append(g.Log, line)
	if len(g.Log) > MaxLogLines {
		g.Log = g.Log[len(g.Log)-MaxLogLines:]
	}
}

// LogText is the tail shown under the gauge.
func (g *Gauge) LogText() string { return strings.Join(g.Log, "\n") }

// IsError reports whether text should be shown in error colors.
func IsError(text string) bool {
	return strings.Contains(text, "Traceback") || strings.Contains(text, "ERROR")
}
