package scan

import (
	"bkmview/internal/data"
)

// Count is the number of rows of one cluster matching the committed filter.
// Exact is false while a progressive scan is still counting.
type Count struct {
	ID      int
	Size    int
	Matched int
	Exact   bool
}

type progEntry struct {
	id      int
	matched int
	next    int
}

// Progressive advances a budgeted number of row evaluations per call,
// cluster by cluster in index order. Counts only grow for a fixed key.
type Progressive struct {
	key     string
	entries []progEntry
}

func (p *Progressive) Key() string { return p.key }

// Reset starts a new scan for key over idx.
func (p *Progressive) Reset(key string, idx *data.ClusterIndex) {
	p.key = key
	p.entries = make([]progEntry, len(idx.Clusters))
	for i, c := range idx.Clusters {
		p.entries[i] = progEntry{id: c.ID}
	}
}

// Step evaluates at most budget rows and returns how many it evaluated.
func (p *Progressive) Step(t *data.Table, idx *data.ClusterIndex, match func([]string) bool, budget int) int {
	used := 0
	for i := range p.entries {
		if used >= budget {
			break
		}
		e := &p.entries[i]
		if i >= len(idx.Clusters) {
			break
		}
		rows := idx.Clusters[i].Rows
		for e.next < len(rows) && used < budget {
			if match(t.RowOrEmpty(rows[e.next])) {
				e.matched++
			}
			e.next++
			used++
		}
	}
	return used
}

// Done reports whether every cluster has been fully scanned.
func (p *Progressive) Done(idx *data.ClusterIndex) bool {
	for i, e := range p.entries {
		if i < len(idx.Clusters) && e.next < len(idx.Clusters[i].Rows) {
			return false
		}
	}
	return true
}

// Settle replaces the scan state with exact counts.
func (p *Progressive) Settle(idx *data.ClusterIndex, counts map[int]int) {
	for i := range p.entries {
		e := &p.entries[i]
		e.matched = counts[e.id]
		if i < len(idx.Clusters) {
			e.next = len(idx.Clusters[i].Rows)
		}
	}
}

// Restart drops partial progress, keeping clusters that were fully scanned.
// Used when row order changes under an unfinished scan.
func (p *Progressive) Restart(idx *data.ClusterIndex) {
	for i := range p.entries {
		if i < len(idx.Clusters) && p.entries[i].next < len(idx.Clusters[i].Rows) {
			p.entries[i].matched, p.entries[i].next = 0, 0
		}
	}
}

// Counts reports every cluster with its running count.
func (p *Progressive) Counts(idx *data.ClusterIndex) []Count {
	out := make([]Count, 0, len(p.entries))
	for i, e := range p.entries {
		size := 0
		if i < len(idx.Clusters) {
			size = len(idx.Clusters[i].Rows)
		}
		out = append(out, Count{ID: e.id, Size: size, Matched: e.matched, Exact: e.next >= size})
	}
	return out
}
