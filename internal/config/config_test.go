package config

import (
	"path/filepath"
	"testing"
)

func TestParseRead(t *testing.T) {
	cfg, err := Parse([]string{"-read", "out.csv.gz", "-budget", "100"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source() != "out.csv.gz" {
		t.Fatalf("expected source out.csv.gz, got %s", cfg.Source())
	}
	if cfg.Budget != 100 || cfg.RowsPerPage != 50 || cfg.ClusterColumn != "cluster" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseInputDefaultsOutput(t *testing.T) {
	cfg, err := Parse([]string{"-input", "logs/access.log", "-n-clusters", "4", "-python", "py"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output != filepath.Join("outputs", "access.csv.gz") {
		t.Fatalf("unexpected output %s", cfg.Output)
	}
	if cfg.Clusters != 4 || cfg.Python != "py" {
		t.Fatalf("unexpected config: %s", cfg.String())
	}
}

func TestParseRejectsConflicts(t *testing.T) {
	cases := [][]string{
		{"-read", "a.csv", "-input", "b.log"},
		{"-read", "a.csv", "-n-clusters", "3"},
		{"-read", "a.json"},
		{"-input", "a.csv"},
		{},
		{"-read", "a.csv", "-export", "csv"},
	}
	for _, args := range cases {
		if _, err := Parse(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestResolvePython(t *testing.T) {
	if got := ResolvePython(""); got != "python3" {
		t.Fatalf("expected python3, got %s", got)
	}
	got := ResolvePython("/opt/conda")
	if got != filepath.Join("/opt/conda", "bin", "python3") && got != filepath.Join("/opt/conda", "python.exe") {
		t.Fatalf("unexpected interpreter %s", got)
	}
}

func TestDelimiterRune(t *testing.T) {
	cfg, err := Parse([]string{"-read", "a.tsv", "-delimiter", `\t`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DelimiterRune() != '\t' {
		t.Fatalf("expected tab delimiter, got %q", cfg.DelimiterRune())
	}
}
