package ui

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"bkmview/internal/util/logx"
)

// overlay draws over on top of base line by line. Whitespace-only lines of
// over are transparent.
func overlay(base, over string) string {
	bLines := strings.Split(base, "\n")
	oLines := strings.Split(over, "\n")
	n := max(len(bLines), len(oLines))
	for len(bLines) < n {
		bLines = append(bLines, "")
	}
	for len(oLines) < n {
		oLines = append(oLines, "")
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if strings.TrimSpace(stripANSI(oLines[i])) != "" {
			out[i] = oLines[i]
		} else {
			out[i] = bLines[i]
		}
	}
	return strings.Join(out, "\n")
}

// copyText puts s on the system clipboard, falling back to OSC52 when no
// clipboard utility is available (e.g. over ssh).
func copyText(s string) error {
	s = stripANSI(s)
	err := clipboard.WriteAll(s)
	if err == nil {
		return nil
	}
	logx.Debugf("ui: clipboard unavailable, using OSC52: %v", err)
	enc := base64.StdEncoding.EncodeToString([]byte(s))
	payload := fmt.Sprintf("\x1b]52;c;%s\x07", enc)
	f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(payload)
	return err
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// fit truncates s to w cells and pads it to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = truncate.StringWithTail(s, uint(w), "…")
	if pad := w - runewidth.StringWidth(stripANSI(s)); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
