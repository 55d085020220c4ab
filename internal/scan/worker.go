package scan

import (
	"context"
	"fmt"
	"sync"

	"bkmview/internal/data"
	"bkmview/internal/filter"
	"bkmview/internal/util/logx"
)

// Job is one authoritative filter evaluation over a snapshot.
type Job struct {
	Gen   uint64
	Key   string
	Epoch uint64
	Table *data.Table
	Index *data.ClusterIndex
	Eval  *filter.Evaluator
	// Focus is the cluster whose matching rows are wanted, or -1.
	Focus int
}

type Result struct {
	Gen    uint64
	Key    string
	Epoch  uint64
	Counts map[int]int
	Focus  int
	Rows   []int
	Err    error
}

// Worker runs filter jobs in the background and hands results back through
// a single-slot channel. Submitting a job cancels the previous one.
type Worker struct {
	results chan Result

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker() *Worker {
	return &Worker{results: make(chan Result, 1)}
}

// Submit starts job and returns its generation.
func (w *Worker) Submit(job Job) uint64 {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	job.Gen = w.gen
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx, job)
	return job.Gen
}

func (w *Worker) run(ctx context.Context, job Job) {
	defer w.wg.Done()
	res := Result{Gen: job.Gen, Key: job.Key, Epoch: job.Epoch, Focus: job.Focus}
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("filter worker panicked: %v", r)
			}
		}()
		res.Counts, res.Rows, res.Err = Evaluate(ctx, job)
	}()
	if ctx.Err() != nil {
		logx.Debugf("scan: job %d superseded", job.Gen)
		return
	}
	select {
	case w.results <- res:
	case <-ctx.Done():
	}
}

// Poll receives a finished result without blocking.
func (w *Worker) Poll() (Result, bool) {
	select {
	case r := <-w.results:
		return r, true
	default:
		return Result{}, false
	}
}

// Cancel stops the running job, if any.
func (w *Worker) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// Close cancels the running job and waits for its goroutine.
func (w *Worker) Close() {
	w.Cancel()
	w.wg.Wait()
}

// Evaluate computes exact per-cluster counts and, when job.Focus is set, the
// matching rows of that cluster in its current order.
func Evaluate(ctx context.Context, job Job) (map[int]int, []int, error) {
	matched := make([]bool, job.Table.Len())
	err := job.Table.Scan(ctx, func(i int, r data.Row) error {
		matched[i] = job.Eval.Match(r)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	counts := make(map[int]int, job.Index.Len())
	var rows []int
	if job.Focus >= 0 {
		rows = []int{}
	}
	for _, c := range job.Index.Clusters {
		n := 0
		for _, r := range c.Rows {
			if !matched[r] {
				continue
			}
			n++
			if c.ID == job.Focus {
				rows = append(rows, r)
			}
		}
		counts[c.ID] = n
	}
	return counts, rows, nil
}
