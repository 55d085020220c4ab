package data

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "Descending"
	}
	return "Ascending"
}

// SortClusters stable-sorts every cluster's rows by column. The column is
// compared numerically when every value parses as a float, otherwise
// lexicographically for all rows.
func SortClusters(ctx context.Context, t *Table, idx *ClusterIndex, column string, order Order) error {
	col := t.ColumnIndex(column)
	if col < 0 {
		return fmt.Errorf("sort: unknown column %q", column)
	}
	keys := make([]string, t.Len())
	nums := make([]float64, t.Len())
	numeric := true
	err := t.Scan(ctx, func(i int, r Row) error {
		keys[i] = strings.Clone(r[col])
		if numeric {
			f, err := strconv.ParseFloat(strings.TrimSpace(r[col]), 64)
			if err != nil {
				numeric = false
				return nil
			}
			nums[i] = f
		}
		return nil
	})
	if err != nil {
		return err
	}
	less := func(a, b int) bool { return keys[a] < keys[b] }
	if numeric {
		less = func(a, b int) bool { return nums[a] < nums[b] }
	}
	for ci := range idx.Clusters {
		rows := idx.Clusters[ci].Rows
		sort.SliceStable(rows, func(i, j int) bool {
			if order == Descending {
				return less(rows[j], rows[i])
			}
			return less(rows[i], rows[j])
		})
	}
	return nil
}
