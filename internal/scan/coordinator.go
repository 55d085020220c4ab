package scan

import (
	"bkmview/internal/data"
	"bkmview/internal/filter"
	"bkmview/internal/util/logx"
)

// DefaultBudget is the number of row evaluations per frame.
const DefaultBudget = 800

type rowCache struct {
	id    int
	key   string
	epoch uint64
	rows  []int
	ok    bool
}

// Coordinator decides when the committed filter is evaluated. It is owned by
// the UI goroutine; only Worker jobs run elsewhere, on snapshots.
type Coordinator struct {
	table  *data.Table
	index  *data.ClusterIndex
	budget int

	query *filter.Query
	eval  *filter.Evaluator
	key   string

	prog   Progressive
	rows   rowCache
	worker *Worker

	pending      uint64
	pendingFocus int
	// epoch changes whenever row order changes (sorting).
	epoch   uint64
	lastErr error
}

func NewCoordinator(t *data.Table, idx *data.ClusterIndex, budget int) *Coordinator {
	if budget <= 0 {
		budget = DefaultBudget
	}
	ev, _ := filter.NewEvaluator(nil, t.Headers)
	return &Coordinator{table: t, index: idx, budget: budget, eval: ev, worker: NewWorker(), pendingFocus: -1}
}

func (c *Coordinator) Key() string               { return c.key }
func (c *Coordinator) Query() *filter.Query      { return c.query }
func (c *Coordinator) Pending() bool             { return c.pending != 0 }
func (c *Coordinator) Index() *data.ClusterIndex { return c.index }

// Err returns the error of the last failed background job.
func (c *Coordinator) Err() error { return c.lastErr }

// Match evaluates the committed filter against a row.
func (c *Coordinator) Match(row []string) bool { return c.eval.Match(row) }

// Commit makes q the committed filter and starts a background job for it.
// focus is the cluster whose rows should be computed (-1 for none). It
// reports whether a job was started.
func (c *Coordinator) Commit(q *filter.Query, focus int) (bool, error) {
	ev, err := filter.NewEvaluator(q, c.table.Headers)
	if err != nil {
		return false, err
	}
	key := q.Key()
	if key == c.key {
		return c.RequestRows(focus), nil
	}
	c.query, c.eval, c.key = q, ev, key
	c.rows = rowCache{}
	c.lastErr = nil
	if key == "" {
		c.worker.Cancel()
		c.pending, c.pendingFocus = 0, -1
		logx.Infof("scan: filter cleared")
		return false, nil
	}
	c.prog.Reset(key, c.index)
	c.submit(focus)
	logx.Infof("scan: committed filter %q", key)
	return true, nil
}

func (c *Coordinator) submit(focus int) {
	c.pendingFocus = focus
	c.pending = c.worker.Submit(Job{
		Key:   c.key,
		Epoch: c.epoch,
		Table: c.table.Clone(),
		Index: c.index.Clone(),
		Eval:  c.eval,
		Focus: focus,
	})
}

// Tick advances the progressive scan by one budget. It reports whether any
// row was evaluated.
func (c *Coordinator) Tick() bool {
	if c.key == "" || c.prog.Done(c.index) {
		return false
	}
	return c.prog.Step(c.table, c.index, c.eval.Match, c.budget) > 0
}

// Poll applies a finished background result, if one is waiting. It reports
// whether the result belonged to the current job (success or failure).
func (c *Coordinator) Poll() (Result, bool) {
	res, ok := c.worker.Poll()
	if !ok {
		return Result{}, false
	}
	if res.Gen != c.pending {
		logx.Debugf("scan: dropping stale result gen=%d want=%d", res.Gen, c.pending)
		return res, false
	}
	c.pending, c.pendingFocus = 0, -1
	if res.Err != nil {
		c.lastErr = res.Err
		logx.Errorf("scan: background filter failed: %v", res.Err)
		return res, true
	}
	if res.Key != c.key {
		return res, true
	}
	c.prog.Settle(c.index, res.Counts)
	if res.Focus >= 0 && res.Epoch == c.epoch {
		c.rows = rowCache{id: res.Focus, key: res.Key, epoch: res.Epoch, rows: res.Rows, ok: true}
	}
	return res, true
}

// Counts lists the clusters to display. With a filter, clusters without a
// match (so far) are hidden.
func (c *Coordinator) Counts() []Count {
	if c.key == "" {
		out := make([]Count, len(c.index.Clusters))
		for i, cl := range c.index.Clusters {
			out[i] = Count{ID: cl.ID, Size: len(cl.Rows), Matched: len(cl.Rows), Exact: true}
		}
		return out
	}
	all := c.prog.Counts(c.index)
	out := all[:0]
	for _, n := range all {
		if n.Matched > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Scanning reports whether displayed counts are still lower bounds.
func (c *Coordinator) Scanning() bool {
	return c.key != "" && !c.prog.Done(c.index)
}

// Rows returns the matching rows of cluster id if they are known.
func (c *Coordinator) Rows(id int) ([]int, bool) {
	if c.key == "" {
		cl, ok := c.index.Find(id)
		if !ok {
			return nil, false
		}
		return cl.Rows, true
	}
	if c.rows.ok && c.rows.id == id && c.rows.key == c.key && c.rows.epoch == c.epoch {
		return c.rows.rows, true
	}
	return nil, false
}

// RequestRows starts a job computing the rows of cluster id unless they are
// cached or already on their way. It reports whether a job was started.
func (c *Coordinator) RequestRows(id int) bool {
	if id < 0 {
		return false
	}
	if _, ok := c.Rows(id); ok {
		return false
	}
	if c.pending != 0 && c.pendingFocus == id {
		return false
	}
	c.submit(id)
	return true
}

// Preview returns up to n matching rows of cluster id, evaluating at most
// one budget of rows when nothing is cached.
func (c *Coordinator) Preview(id, n int) []int {
	if rows, ok := c.Rows(id); ok {
		if len(rows) > n {
			rows = rows[:n]
		}
		return rows
	}
	cl, ok := c.index.Find(id)
	if !ok {
		return nil
	}
	var out []int
	for i, r := range cl.Rows {
		if i >= c.budget || len(out) >= n {
			break
		}
		if c.eval.Match(c.table.RowOrEmpty(r)) {
			out = append(out, r)
		}
	}
	return out
}

// ReplaceIndex installs a re-sorted index. Cached row lists are dropped and
// a pending job is resubmitted against the new order.
func (c *Coordinator) ReplaceIndex(idx *data.ClusterIndex) {
	c.index = idx
	c.epoch++
	c.rows = rowCache{}
	if c.key != "" {
		c.prog.Restart(idx)
	}
	if c.pending != 0 {
		c.submit(c.pendingFocus)
	}
}

func (c *Coordinator) Close() { c.worker.Close() }
