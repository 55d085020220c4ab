package logx

import (
	"strings"
	"testing"
)

func TestRingDropsOldest(t *testing.T) {
	SetLevel(Debug)
	defer SetLevel(Info)
	for i := 0; i < maxLines+10; i++ {
		Debugf("line %d", i)
	}
	lines := Lines()
	if len(lines) != maxLines {
		t.Fatalf("expected %d lines, got %d", maxLines, len(lines))
	}
	if !strings.HasSuffix(lines[len(lines)-1], "line 509") {
		t.Fatalf("expected newest line last, got %s", lines[len(lines)-1])
	}
}

func TestLevelFilters(t *testing.T) {
	SetLevel(Error)
	defer SetLevel(Info)
	Infof("hidden-info-line")
	if strings.Contains(Dump(), "hidden-info-line") {
		t.Fatalf("info line should be dropped at error level")
	}
	Errorf("visible-error-line")
	if !strings.Contains(Dump(), "visible-error-line") {
		t.Fatalf("error line missing from ring")
	}
}
