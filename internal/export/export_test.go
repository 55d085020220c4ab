package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var rows = [][]string{{"1.1.1.1", "GET", "0"}, {"2.2.2.2", "POST", "0"}, {"3.3.3.3", "GET", "1"}}

func rowAt(i int) []string { return rows[i] }

func TestToCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	if err := Write("csv", p, []string{"ip", "method", "cluster"}, rowAt, []int{2, 0}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, _ := os.ReadFile(p)
	want := "ip,method,cluster\n3.3.3.3,GET,1\n1.1.1.1,GET,0\n"
	if string(b) != want {
		t.Fatalf("unexpected csv %q", string(b))
	}
}

func TestToNDJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	if err := Write("json", p, []string{"ip", "method", "cluster"}, rowAt, []int{1}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, _ := os.ReadFile(p)
	if strings.TrimSpace(string(b)) != `{"cluster":"0","ip":"2.2.2.2","method":"POST"}` {
		t.Fatalf("unexpected ndjson %q", string(b))
	}
}

func TestExportErrors(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	if err := Write("csv", p, []string{"ip"}, rowAt, nil); err == nil {
		t.Fatalf("expected error for empty export")
	}
	if err := Write("xml", p, []string{"ip"}, rowAt, []int{0}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
