package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bkmview/internal/data"
	"bkmview/internal/filter"
)

func fixture(t *testing.T, n int) (*data.Table, *data.ClusterIndex) {
	t.Helper()
	var b strings.Builder
	b.WriteString("ip,method,url,status,size,cluster\n")
	for i := 0; i < n; i++ {
		status := 200
		if i%5 == 0 {
			status = 404
		}
		fmt.Fprintf(&b, "10.0.0.%d,GET,/p%d,%d,%d,%d\n", i%200, i, status, i*10, i%3)
	}
	p := filepath.Join(t.TempDir(), "t.csv")
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tb, err := data.Load(p, data.LoadOptions{PageSize: 64, NoCache: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	idx, err := data.BuildClusterIndex(context.Background(), tb, "cluster")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	return tb, idx
}

func waitResult(t *testing.T, c *Coordinator) Result {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if res, ok := c.Poll(); ok {
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no background result")
	return Result{}
}

func TestProgressiveMonotonicAndConverges(t *testing.T) {
	tb, idx := fixture(t, 1000)
	ev, err := filter.NewEvaluator(filter.Parse("status=404"), tb.Headers)
	if err != nil {
		t.Fatalf("evaluator: %v", err)
	}
	var p Progressive
	p.Reset("status=404", idx)
	prev := map[int]int{}
	for steps := 0; !p.Done(idx); steps++ {
		if steps > 100 {
			t.Fatalf("progressive scan did not finish")
		}
		if used := p.Step(tb, idx, ev.Match, 70); used > 70 {
			t.Fatalf("step used %d rows, budget 70", used)
		}
		for _, c := range p.Counts(idx) {
			if c.Matched < prev[c.ID] {
				t.Fatalf("count for cluster %d decreased", c.ID)
			}
			prev[c.ID] = c.Matched
		}
	}
	counts, _, err := Evaluate(context.Background(), Job{Table: tb.Clone(), Index: idx, Eval: ev, Focus: -1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for id, n := range counts {
		if prev[id] != n {
			t.Fatalf("cluster %d: progressive %d, authoritative %d", id, prev[id], n)
		}
	}
}

func TestCommitDeliversCountsAndRows(t *testing.T) {
	tb, idx := fixture(t, 600)
	c := NewCoordinator(tb, idx, 50)
	defer c.Close()

	started, err := c.Commit(filter.Parse("status=404"), 1)
	if err != nil || !started {
		t.Fatalf("commit: started=%v err=%v", started, err)
	}
	if !c.Pending() || !c.Scanning() {
		t.Fatalf("expected pending job and running scan")
	}
	c.Tick()
	res := waitResult(t, c)
	if res.Err != nil {
		t.Fatalf("job failed: %v", res.Err)
	}
	if c.Pending() || c.Scanning() {
		t.Fatalf("result should settle the scan")
	}
	rows, ok := c.Rows(1)
	if !ok {
		t.Fatalf("focused rows not cached")
	}
	total := 0
	for _, n := range c.Counts() {
		if !n.Exact {
			t.Fatalf("count for %d not exact", n.ID)
		}
		total += n.Matched
		if n.ID == 1 && n.Matched != len(rows) {
			t.Fatalf("cluster 1 count %d != rows %d", n.Matched, len(rows))
		}
	}
	if total != 120 {
		t.Fatalf("expected 120 matches, got %d", total)
	}
	for _, r := range rows {
		if tb.RowOrEmpty(r)[3] != "404" || tb.RowOrEmpty(r)[5] != "1" {
			t.Fatalf("row %d does not belong in results", r)
		}
	}
	if _, ok := c.Rows(2); ok {
		t.Fatalf("unfocused cluster rows should not be cached")
	}
}

func TestClearFilter(t *testing.T) {
	tb, idx := fixture(t, 30)
	c := NewCoordinator(tb, idx, 10)
	defer c.Close()
	if _, err := c.Commit(filter.Parse("nomatch-anywhere"), -1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	waitResult(t, c)
	if len(c.Counts()) != 0 {
		t.Fatalf("clusters without matches should be hidden")
	}
	started, err := c.Commit(nil, -1)
	if err != nil || started {
		t.Fatalf("clearing should not start a job")
	}
	if len(c.Counts()) != idx.Len() {
		t.Fatalf("expected all clusters without a filter")
	}
	rows, ok := c.Rows(0)
	if !ok || len(rows) != 10 {
		t.Fatalf("expected raw cluster rows, got %v", rows)
	}
}

func TestStaleResultsDiscarded(t *testing.T) {
	tb, idx := fixture(t, 300)
	c := NewCoordinator(tb, idx, 10)
	defer c.Close()
	if _, err := c.Commit(filter.Parse("status=404"), 0); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := c.Commit(filter.Parse("status=200"), 0); err != nil {
		t.Fatalf("commit: %v", err)
	}
	res := waitResult(t, c)
	if res.Key != "status=200" {
		t.Fatalf("accepted result for %q", res.Key)
	}
	for _, r := range mustRows(t, c, 0) {
		if tb.RowOrEmpty(r)[3] != "200" {
			t.Fatalf("row %d from stale filter", r)
		}
	}
}

func TestSortInvalidatesRows(t *testing.T) {
	tb, idx := fixture(t, 90)
	c := NewCoordinator(tb, idx, 1000)
	defer c.Close()
	if _, err := c.Commit(filter.Parse("get"), 0); err != nil {
		t.Fatalf("commit: %v", err)
	}
	waitResult(t, c)
	mustRows(t, c, 0)

	sorted := idx.Clone()
	if err := data.SortClusters(context.Background(), tb, sorted, "size", data.Descending); err != nil {
		t.Fatalf("sort: %v", err)
	}
	c.ReplaceIndex(sorted)
	if _, ok := c.Rows(0); ok {
		t.Fatalf("rows should be invalidated by sorting")
	}
	if !c.RequestRows(0) {
		t.Fatalf("expected a job for invalidated rows")
	}
	waitResult(t, c)
	rows := mustRows(t, c, 0)
	if rows[0] < rows[len(rows)-1] {
		t.Fatalf("rows not in descending size order: %v", rows)
	}
}

func TestPreviewIsBounded(t *testing.T) {
	tb, idx := fixture(t, 300)
	c := NewCoordinator(tb, idx, 20)
	defer c.Close()
	c.query = filter.Parse("status=404")
	c.eval, _ = filter.NewEvaluator(c.query, tb.Headers)
	c.key = c.query.Key()
	got := c.Preview(0, 10)
	// cluster 0 holds rows 0,3,6,...; only 20 of them are evaluated
	for _, r := range got {
		if r > 57 {
			t.Fatalf("preview went past its budget: row %d", r)
		}
	}
	if len(got) == 0 {
		t.Fatalf("expected some preview rows")
	}
}

func mustRows(t *testing.T, c *Coordinator, id int) []int {
	t.Helper()
	rows, ok := c.Rows(id)
	if !ok || len(rows) == 0 {
		t.Fatalf("rows for cluster %d not available", id)
	}
	return rows
}
