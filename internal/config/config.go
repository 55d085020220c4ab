package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type Config struct {
	// Input: exactly one of ReadPath (clustered table) or InputPath (raw log to cluster).
	ReadPath  string
	InputPath string
	Output    string
	Clusters  int

	ClusterColumn string
	Delimiter     string
	PageSize      int
	EagerMB       int
	GzipMaxMB     int
	Budget        int
	RowsPerPage   int
	NoCache       bool

	// Clustering process. Python is resolved once here and passed down.
	Python string
	Script string

	Theme            Theme
	Offline          bool
	OpenAIModel      string
	OpenAIBase       string
	OpenAITimeoutSec int
	ExportFormat     string
	ExportOut        string
	ShowVersion      bool

	clustersSet bool
}

func Load() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse builds a Config from command line arguments and BKMVIEW_* environment defaults.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("bkmview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ReadPath, "read", "", "open an already clustered table (.csv, .tsv or .gz)")
	fs.StringVar(&cfg.InputPath, "input", "", "raw log to cluster first (.log or .txt)")
	fs.StringVar(&cfg.Output, "output", "", "clustered output path (default ./outputs/<stem>.csv.gz)")
	fs.IntVar(&cfg.Clusters, "n-clusters", 8, "number of clusters (only with --input)")
	fs.StringVar(&cfg.ClusterColumn, "cluster-column", getenvDefault("BKMVIEW_CLUSTER_COLUMN", "cluster"), "column holding the cluster id")
	fs.StringVar(&cfg.Delimiter, "delimiter", "", "field delimiter (default: detect from header)")
	fs.IntVar(&cfg.PageSize, "page-size", getenvDefaultInt("BKMVIEW_PAGE_SIZE", 1000), "rows per cached file page")
	fs.IntVar(&cfg.EagerMB, "eager-mb", getenvDefaultInt("BKMVIEW_EAGER_MB", 8), "plain files up to this size are loaded fully into memory")
	fs.IntVar(&cfg.GzipMaxMB, "gz-max-mb", getenvDefaultInt("BKMVIEW_GZ_MAX_MB", 0), "refuse compressed inputs larger than this (0 = no limit)")
	fs.IntVar(&cfg.Budget, "budget", getenvDefaultInt("BKMVIEW_SCAN_BUDGET", 800), "row evaluations per frame for progressive filtering")
	fs.IntVar(&cfg.RowsPerPage, "rows-per-page", 50, "matched rows per table page")
	fs.BoolVar(&cfg.NoCache, "no-cache", false, "do not read or write the page index cache")
	fs.StringVar(&cfg.Python, "python", "", "python interpreter for the clustering job (default: $CONDA_PREFIX or python3)")
	fs.StringVar(&cfg.Script, "script", getenvDefault("BKMVIEW_SCRIPT", "./app/run.py"), "clustering entry point")
	theme := string(ThemeDark)
	fs.StringVar(&theme, "theme", getenvDefault("BKMVIEW_THEME", string(ThemeDark)), "theme: dark|light")
	fs.BoolVar(&cfg.Offline, "offline", false, "disable OpenAI cluster explanations")
	fs.StringVar(&cfg.OpenAIModel, "openai-model", getenvDefault("BKMVIEW_OPENAI_MODEL", "gpt-4o-mini"), "OpenAI model override")
	fs.StringVar(&cfg.OpenAIBase, "openai-base-url", getenvDefault("BKMVIEW_OPENAI_BASE_URL", ""), "OpenAI base URL override")
	fs.IntVar(&cfg.OpenAITimeoutSec, "openai-timeout-sec", getenvDefaultInt("BKMVIEW_OPENAI_TIMEOUT_SEC", 60), "OpenAI request timeout in seconds")
	fs.StringVar(&cfg.ExportFormat, "export", "", "export format for the focused cluster: csv|json")
	fs.StringVar(&cfg.ExportOut, "out", "", "output path for export")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "n-clusters" {
			cfg.clustersSet = true
		}
	})
	cfg.Theme = Theme(theme)
	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.InputPath != "" && cfg.Output == "" {
		cfg.Output = DefaultOutput(cfg.InputPath)
	}
	if cfg.Python == "" {
		cfg.Python = ResolvePython(os.Getenv("CONDA_PREFIX"))
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.ReadPath != "" && c.InputPath != "":
		return errors.New("--input and --read cannot be used together")
	case c.ReadPath == "" && c.InputPath == "":
		return errors.New("one of --read or --input is required")
	}
	if c.ReadPath != "" {
		if c.clustersSet {
			return errors.New("--n-clusters is only valid with --input")
		}
		if !hasExt(c.ReadPath, ".csv", ".tsv", ".gz") {
			return fmt.Errorf("--read expects a .csv, .tsv or .gz file: %s", c.ReadPath)
		}
	}
	if c.InputPath != "" && !hasExt(c.InputPath, ".log", ".txt") {
		return fmt.Errorf("--input expects a .log or .txt file: %s", c.InputPath)
	}
	if c.Clusters < 1 {
		return errors.New("--n-clusters must be at least 1")
	}
	if c.ExportFormat != "" && c.ExportOut == "" {
		return errors.New("--export requires --out path")
	}
	if c.ExportFormat != "" && c.ExportFormat != "csv" && c.ExportFormat != "json" {
		return fmt.Errorf("unsupported export format %q", c.ExportFormat)
	}
	if c.Delimiter != `\t` && len([]rune(c.Delimiter)) > 1 {
		return fmt.Errorf("--delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.PageSize < 1 {
		c.PageSize = 1000
	}
	if c.Budget < 1 {
		c.Budget = 800
	}
	if c.RowsPerPage < 1 {
		c.RowsPerPage = 50
	}
	return nil
}

func hasExt(p string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// DefaultOutput returns ./outputs/<stem>.csv.gz for a raw log path.
func DefaultOutput(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join("outputs", stem+".csv.gz")
}

// ResolvePython picks the interpreter of an active conda environment, falling back to python3.
func ResolvePython(condaPrefix string) string {
	if condaPrefix == "" {
		return "python3"
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(condaPrefix, "python.exe")
	}
	return filepath.Join(condaPrefix, "bin", "python3")
}

// Source is the table the dashboard will browse.
func (c *Config) Source() string {
	if c.ReadPath != "" {
		return c.ReadPath
	}
	return c.Output
}

func (c *Config) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	if c.Delimiter == `\t` {
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvDefaultInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func (c *Config) OpenAIKey() string { return os.Getenv("OPENAI_API_KEY") }

func (c *Config) String() string {
	return fmt.Sprintf("read=%s input=%s output=%s clusters=%d theme=%s offline=%v", c.ReadPath, c.InputPath, c.Output, c.Clusters, c.Theme, c.Offline)
}
