package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrMissingClusterColumn = errors.New("missing cluster column")

// Cluster groups the row references sharing one cluster id.
type Cluster struct {
	ID   int
	Rows []int
}

// ClusterIndex partitions every row of a table by cluster id, sorted by id.
type ClusterIndex struct {
	Clusters []Cluster
	Column   string
	total    int
}

// BuildClusterIndex scans the whole table once. A missing column or an
// unparsable id is fatal.
func BuildClusterIndex(ctx context.Context, t *Table, column string) (*ClusterIndex, error) {
	col := t.ColumnIndex(column)
	if col < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingClusterColumn, column)
	}
	byID := map[int][]int{}
	err := t.Scan(ctx, func(i int, r Row) error {
		v := strings.TrimSpace(r[col])
		id, err := strconv.Atoi(v)
		if err != nil || id < 0 {
			return fmt.Errorf("unparsable cluster value %q at row %d", v, i)
		}
		byID[id] = append(byID[id], i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	idx := &ClusterIndex{Column: t.Headers[col], total: t.Len()}
	idx.Clusters = make([]Cluster, 0, len(byID))
	for id, rows := range byID {
		idx.Clusters = append(idx.Clusters, Cluster{ID: id, Rows: rows})
	}
	sort.Slice(idx.Clusters, func(a, b int) bool { return idx.Clusters[a].ID < idx.Clusters[b].ID })
	return idx, nil
}

func (x *ClusterIndex) Len() int { return len(x.Clusters) }

// Total is the number of rows covered by the index.
func (x *ClusterIndex) Total() int { return x.total }

func (x *ClusterIndex) Find(id int) (*Cluster, bool) {
	i := sort.Search(len(x.Clusters), func(i int) bool { return x.Clusters[i].ID >= id })
	if i < len(x.Clusters) && x.Clusters[i].ID == id {
		return &x.Clusters[i], true
	}
	return nil, false
}

// Clone deep-copies the row lists so a worker can read them while the
// owner re-sorts.
func (x *ClusterIndex) Clone() *ClusterIndex {
	c := &ClusterIndex{Column: x.Column, total: x.total, Clusters: make([]Cluster, len(x.Clusters))}
	for i, cl := range x.Clusters {
		rows := make([]int, len(cl.Rows))
		copy(rows, cl.Rows)
		c.Clusters[i] = Cluster{ID: cl.ID, Rows: rows}
	}
	return c
}
