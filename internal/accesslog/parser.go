// Package accesslog turns web server access-log lines into table records
// with a fixed column layout.
package accesslog

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Columns is the record layout produced by Parse.
var Columns = []string{"ip", "time", "method", "url", "protocol", "status", "size", "referrer", "user_agent"}

// TimeLayout is the timestamp layout of the time column.
const TimeLayout = "02/Jan/2006:15:04:05 -0700"

type Format struct {
	Name string
	re   *regexp.Regexp
	// position of each named group in Columns
	slots []int
}

func newFormat(name, pattern string) *Format {
	f := &Format{Name: name, re: regexp.MustCompile(pattern)}
	for _, g := range f.re.SubexpNames() {
		f.slots = append(f.slots, indexOf(g))
	}
	return f
}

var (
	Combined = newFormat("apache_combined", `^(?P<ip>\S+) \S+ \S+ \[(?P<time>[^\]]+)\] "(?P<method>[A-Z]+) (?P<url>\S+) (?P<protocol>[^"]+)" (?P<status>\d{3}) (?P<size>\d+|-) "(?P<referrer>[^"]*)" "(?P<user_agent>[^"]*)"`)
	Common   = newFormat("apache_common", `^(?P<ip>\S+) \S+ \S+ \[(?P<time>[^\]]+)\] "(?P<method>[A-Z]+) (?P<url>\S+) (?P<protocol>[^"]+)" (?P<status>\d{3}) (?P<size>\d+|-)$`)
)

// Formats are tried in order; Combined first since Common is its prefix.
var Formats = []*Format{Combined, Common}

// Parse returns the record of line, or false when it matches no format.
// Fields the format lacks are empty.
func (f *Format) Parse(line string) ([]string, bool) {
	m := f.re.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return nil, false
	}
	rec := make([]string, len(Columns))
	for i, slot := range f.slots {
		if i == 0 || slot < 0 {
			continue
		}
		rec[slot] = m[i]
	}
	return rec, true
}

// Parse tries every known format.
func Parse(line string) ([]string, bool) {
	for _, f := range Formats {
		if rec, ok := f.Parse(line); ok {
			return rec, true
		}
	}
	return nil, false
}

// Line renders a record back into combined format.
func Line(rec []string) string {
	return fmt.Sprintf("%s - - [%s] \"%s %s %s\" %s %s \"%s\" \"%s\"",
		rec[0], rec[1], rec[2], rec[3], rec[4], rec[5], rec[6], rec[7], rec[8])
}

// ParseTime parses the time column.
func ParseTime(s string) (time.Time, error) { return time.Parse(TimeLayout, s) }

type Guess struct {
	Format     *Format
	Confidence float64
}

// Detect picks the format matching most non-blank sample lines. Format is
// nil when nothing matches.
func Detect(sample []string) Guess {
	lines := 0
	counts := make([]int, len(Formats))
	for _, l := range sample {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines++
		for i, f := range Formats {
			if f.re.MatchString(l) {
				counts[i]++
				break
			}
		}
	}
	best := -1
	for i, n := range counts {
		if n > 0 && (best < 0 || n > counts[best]) {
			best = i
		}
	}
	if best < 0 {
		return Guess{}
	}
	return Guess{Format: Formats[best], Confidence: float64(counts[best]) / float64(lines)}
}

func indexOf(col string) int {
	for i, c := range Columns {
		if c == col {
			return i
		}
	}
	return -1
}
