// Command clustergen produces test data for bkmview.
//
// Without --input it writes synthetic access logs: a raw combined-format log
// (--format log) or an already clustered table (--format csv, .gz output is
// compressed). With --input it behaves like the clustering job bkmview
// spawns: it reads a raw log, prints the PROGRESS/STATUS/DONE protocol on
// stdout, appends to <stem>_status.log and writes the clustered table.
package main

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"bkmview/internal/accesslog"
	"bkmview/internal/ingest"
)

var columns = append(append([]string(nil), accesslog.Columns...), "cluster")

func main() {
	var (
		input    string
		output   string
		clusters int
		rows     int
		format   string
		seed     int64
		delay    time.Duration
	)
	flag.StringVar(&input, "input", "", "raw log to cluster (job mode)")
	flag.StringVar(&output, "output", "", "clustered table written in job mode")
	flag.IntVar(&clusters, "n", 8, "number of clusters")
	flag.IntVar(&rows, "rows", 10000, "rows to generate")
	flag.StringVar(&format, "format", "csv", "generated data: csv (clustered table) or log (raw access log)")
	flag.StringVar(&output, "out", "", "output path when generating")
	flag.Int64Var(&seed, "seed", 1, "random seed")
	flag.DurationVar(&delay, "step-delay", 200*time.Millisecond, "pause between job steps (job mode)")
	flag.Parse()

	if clusters < 1 {
		fmt.Fprintln(os.Stderr, "--n must be at least 1")
		os.Exit(2)
	}
	if input != "" {
		if output == "" {
			fmt.Println("ERROR: --output is required")
			os.Exit(2)
		}
		if err := runJob(input, output, clusters, delay); err != nil {
			fmt.Println("ERROR:", err)
			os.Exit(1)
		}
		return
	}
	if output == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(2)
	}
	g := &gen{r: rand.New(rand.NewSource(seed))}
	var err error
	switch format {
	case "csv":
		err = writeTable(output, func(emit func([]string) error) error {
			for i := 0; i < rows; i++ {
				c := g.r.Intn(clusters)
				if err := emit(append(g.record(c), strconv.Itoa(c))); err != nil {
					return err
				}
			}
			return nil
		})
	case "log":
		err = writeLog(g, output, rows, clusters)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote %s %s rows -> %s\n", humanize.Comma(int64(rows)), format, output)
}

type gen struct{ r *rand.Rand }

// record draws a row shaped by its cluster's profile, so clusters differ in
// visible ways (scanners hit missing paths, API clients POST, and so on).
func (g *gen) record(cluster int) []string {
	method, url, status := "GET", g.pick("/", "/index.html", "/static/app.js", "/static/style.css", "/about"), 200
	agent := g.pick(
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	)
	switch cluster % 5 {
	case 1:
		url, status = g.pick("/wp-login.php", "/.env", "/phpmyadmin/", "/admin/config.php"), 404
		agent = g.pick("curl/8.2.1", "python-requests/2.31", "zgrab/0.x")
	case 2:
		method, url = g.pick("POST", "PUT", "PATCH"), "/api/v1/items/"+strconv.Itoa(g.r.Intn(1000))
		status = g.weighted(201, 400)
		agent = "okhttp/4.12.0"
	case 3:
		url, status = "/api/v1/report?page="+strconv.Itoa(g.r.Intn(50)), g.weighted(500, 200)
	case 4:
		url, agent = "/robots.txt", g.pick("Googlebot/2.1 (+http://www.google.com/bot.html)", "bingbot/2.0")
	}
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(g.r.Intn(86400)) * time.Second)
	return []string{
		fmt.Sprintf("%d.%d.%d.%d", 10+cluster%200, g.r.Intn(255), g.r.Intn(255), g.r.Intn(255)),
		ts.Format("02/Jan/2006:15:04:05 -0700"),
		method, url, "HTTP/1.1",
		strconv.Itoa(status),
		strconv.Itoa(g.r.Intn(50000)),
		g.pick("-", "https://example.com/", "https://search.example.com/?q=logs"),
		agent,
	}
}

func (g *gen) pick(opts ...string) string { return opts[g.r.Intn(len(opts))] }

// weighted returns a most of the time and b otherwise.
func (g *gen) weighted(a, b int) int {
	if g.r.Float64() < 0.8 {
		return a
	}
	return b
}

func writeLog(g *gen, path string, rows, clusters int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for i := 0; i < rows; i++ {
		if _, err := w.WriteString(accesslog.Line(g.record(g.r.Intn(clusters))) + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeTable writes a header and the emitted records; ".gz" paths are
// compressed and ".tsv" paths tab separated.
func writeTable(path string, fill func(emit func([]string) error) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}
	cw := csv.NewWriter(w)
	if strings.HasSuffix(strings.TrimSuffix(path, ".gz"), ".tsv") {
		cw.Comma = '\t'
	}
	if err := cw.Write(columns); err != nil {
		return err
	}
	if err := fill(cw.Write); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}

// runJob clusters a raw log by a request signature, reporting progress the
// way the real job does.
func runJob(input, output string, k int, delay time.Duration) error {
	status, err := openStatus(ingest.StatusLogPath(output))
	if err != nil {
		return err
	}
	defer status.Close()
	step := func(pct int, msg string) {
		fmt.Printf("PROGRESS: %d\n", pct)
		fmt.Printf("STATUS: %s\n", msg)
		fmt.Fprintf(status, "%s %s\n", time.Now().Format(time.RFC3339), msg)
		time.Sleep(delay)
	}

	step(5, "reading "+input)
	b, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	step(25, fmt.Sprintf("parsing %s lines", humanize.Comma(int64(len(lines)))))
	guess := accesslog.Detect(lines[:min(len(lines), 200)])
	if guess.Format == nil {
		return fmt.Errorf("no access-log lines in %s", input)
	}
	fmt.Fprintf(status, "%s detected %s (confidence %.2f)\n", time.Now().Format(time.RFC3339), guess.Format.Name, guess.Confidence)
	var recs [][]string
	skipped := 0
	for _, l := range lines {
		rec, ok := accesslog.Parse(l)
		if !ok {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}
	if skipped > 0 {
		fmt.Fprintf(status, "%s skipped %d unparsable lines\n", time.Now().Format(time.RFC3339), skipped)
	}
	step(50, fmt.Sprintf("clustering into %d groups", k))
	ids := make([]int, len(recs))
	for i, r := range recs {
		ids[i] = signature(r, k)
	}
	step(80, "writing "+output)
	err = writeTable(output, func(emit func([]string) error) error {
		for i, r := range recs {
			if err := emit(append(r, strconv.Itoa(ids[i]))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	step(100, "finished")
	fmt.Println("DONE")
	return nil
}

// signature buckets a request by method, status class and first path segment.
func signature(rec []string, k int) int {
	seg := strings.SplitN(strings.TrimPrefix(rec[3], "/"), "/", 2)[0]
	h := fnv.New32a()
	h.Write([]byte(rec[2] + "|" + rec[5][:1] + "|" + seg))
	return int(h.Sum32() % uint32(k))
}

func openStatus(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
