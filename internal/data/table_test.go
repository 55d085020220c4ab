package data

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func init() {
	dir, err := os.MkdirTemp("", "bkmview-cache-test")
	if err == nil {
		cacheDir = func() string { return dir }
	}
}

func sampleCSV(n int) string {
	var b strings.Builder
	b.WriteString("ip,method,url,status,size,cluster\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "10.0.0.%d,GET,\"/a,%d\",%d,%d,%d\n", i%250, i, 200+i%3, 100*i, i%4)
	}
	return b.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	zw.Close()
	f.Close()
	return p
}

func TestPagedMatchesMaterialized(t *testing.T) {
	p := writeFile(t, "t.csv", sampleCSV(257))
	full, err := Load(p, LoadOptions{EagerBytes: 1 << 30})
	if err != nil {
		t.Fatalf("load full: %v", err)
	}
	paged, err := Load(p, LoadOptions{PageSize: 16, NoCache: true})
	if err != nil {
		t.Fatalf("load paged: %v", err)
	}
	if full.Paged() || !paged.Paged() {
		t.Fatalf("expected one materialized and one paged table")
	}
	if full.Len() != 257 || paged.Len() != 257 {
		t.Fatalf("expected 257 rows, got %d and %d", full.Len(), paged.Len())
	}
	// backwards to force a cache miss per page
	for i := paged.Len() - 1; i >= 0; i-- {
		a, err := full.Row(i)
		if err != nil {
			t.Fatalf("full row %d: %v", i, err)
		}
		b, err := paged.Row(i)
		if err != nil {
			t.Fatalf("paged row %d: %v", i, err)
		}
		if len(b) != len(paged.Headers) {
			t.Fatalf("row %d has %d fields, want %d", i, len(b), len(paged.Headers))
		}
		if strings.Join(a, "|") != strings.Join(b, "|") {
			t.Fatalf("row %d differs: %v vs %v", i, a, b)
		}
	}
}

func TestPageCacheHoldsOnePage(t *testing.T) {
	p := writeFile(t, "t.csv", sampleCSV(40))
	tb, err := Load(p, LoadOptions{PageSize: 10, NoCache: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := tb.Row(15); err != nil {
		t.Fatalf("row: %v", err)
	}
	if tb.cache == nil || tb.cache.start != 10 || len(tb.cache.rows) != 10 {
		t.Fatalf("unexpected cache after row 15: %+v", tb.cache)
	}
	if _, err := tb.Row(39); err != nil {
		t.Fatalf("row: %v", err)
	}
	if tb.cache.start != 30 {
		t.Fatalf("expected page 30 cached, got %d", tb.cache.start)
	}
	if _, err := tb.Row(40); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestIndexCacheReused(t *testing.T) {
	p := writeFile(t, "t.csv", sampleCSV(50))
	if _, err := Load(p, LoadOptions{PageSize: 8}); err != nil {
		t.Fatalf("load: %v", err)
	}
	st, _ := os.Stat(p)
	if _, ok := loadIndexCache(p, st, 8, ','); !ok {
		t.Fatalf("expected cached page index")
	}
	tb, err := Load(p, LoadOptions{PageSize: 8})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	r, err := tb.Row(49)
	if err != nil || r[0] != "10.0.0.49" {
		t.Fatalf("unexpected row from cached index: %v %v", r, err)
	}
}

func TestGzipLoadsFully(t *testing.T) {
	p := writeGzip(t, "t.csv.gz", sampleCSV(30))
	tb, err := Load(p, LoadOptions{PageSize: 4})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tb.Paged() || !tb.Compressed() || tb.Len() != 30 {
		t.Fatalf("expected materialized compressed table with 30 rows")
	}
	if _, err := Load(p, LoadOptions{MaxGzipBytes: 1}); !errors.Is(err, ErrGzipTooLarge) {
		t.Fatalf("expected ErrGzipTooLarge, got %v", err)
	}
}

func TestMalformedRecordIsFatal(t *testing.T) {
	p := writeFile(t, "bad.csv", "a,b,cluster\n1,2,0\n1,2\n")
	if _, err := Load(p, LoadOptions{EagerBytes: 1 << 20}); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	if _, err := Load(p, LoadOptions{NoCache: true}); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord for paged load, got %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestDetectDelimiter(t *testing.T) {
	if d := DetectDelimiter("a\tb\tc"); d != '\t' {
		t.Fatalf("expected tab, got %q", d)
	}
	if d := DetectDelimiter(`"x;y",b;c;d`); d != ';' {
		t.Fatalf("expected semicolon, got %q", d)
	}
	if d := DetectDelimiter("a;b,c"); d != ',' {
		t.Fatalf("ties should prefer a comma, got %q", d)
	}
	if d := DetectDelimiter("single"); d != ',' {
		t.Fatalf("expected comma default, got %q", d)
	}
	p := writeFile(t, "t.tsv", "ip\tcluster\n1.1.1.1\t3\n")
	tb, err := Load(p, LoadOptions{EagerBytes: 1 << 20})
	if err != nil {
		t.Fatalf("load tsv: %v", err)
	}
	if tb.ColumnIndex("CLUSTER") != 1 || tb.Delimiter() != '\t' {
		t.Fatalf("unexpected headers %v", tb.Headers)
	}
}

func TestScanAndClone(t *testing.T) {
	p := writeFile(t, "t.csv", sampleCSV(33))
	tb, err := Load(p, LoadOptions{PageSize: 5, NoCache: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, _ = tb.Row(0)
	c := tb.Clone()
	if c.cache != nil {
		t.Fatalf("clone should not share the page cache")
	}
	n := 0
	err = c.Scan(context.Background(), func(i int, r Row) error {
		if i != n {
			t.Fatalf("scan out of order: %d vs %d", i, n)
		}
		n++
		return nil
	})
	if err != nil || n != 33 {
		t.Fatalf("scan visited %d rows, err %v", n, err)
	}
}

func TestUnreadableRowIsEmpty(t *testing.T) {
	p := writeFile(t, "rows.csv", sampleCSV(40))
	tb, err := Load(p, LoadOptions{PageSize: 10, NoCache: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !tb.Paged() {
		t.Fatalf("expected a paged table")
	}
	// corrupt row 12 in place, after the offsets were indexed
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(string(b), "\n")
	lines[13] = strings.Repeat("x", len(lines[13]))
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if _, err := tb.Row(12); err == nil {
		t.Fatalf("expected an error for the corrupted row")
	}
	if r := tb.RowOrEmpty(12); len(r) != len(tb.Headers) || r[0] != "" {
		t.Fatalf("unreadable row should be empty, got %q", r)
	}
	if r := tb.RowOrEmpty(13); r[0] != "10.0.0.13" {
		t.Fatalf("neighbouring row should still read, got %q", r)
	}
	n := 0
	err = tb.Scan(context.Background(), func(i int, r Row) error {
		if len(r) != len(tb.Headers) {
			t.Fatalf("row %d has %d fields", i, len(r))
		}
		n++
		return nil
	})
	if err != nil || n != 40 {
		t.Fatalf("scan should visit every row: n=%d err=%v", n, err)
	}
}
