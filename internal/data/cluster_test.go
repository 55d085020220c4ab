package data

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildClusterIndexPartitionsRows(t *testing.T) {
	p := writeFile(t, "t.csv", sampleCSV(101))
	tb, err := Load(p, LoadOptions{PageSize: 7, NoCache: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a, err := BuildClusterIndex(context.Background(), tb, "cluster")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := BuildClusterIndex(context.Background(), tb, "Cluster")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if a.Len() != 4 || b.Len() != 4 {
		t.Fatalf("expected 4 clusters, got %d and %d", a.Len(), b.Len())
	}
	seen := make([]bool, tb.Len())
	for i, c := range a.Clusters {
		if i > 0 && a.Clusters[i-1].ID >= c.ID {
			t.Fatalf("clusters not sorted by id")
		}
		if len(b.Clusters[i].Rows) != len(c.Rows) {
			t.Fatalf("rebuild differs for cluster %d", c.ID)
		}
		for j, r := range c.Rows {
			if b.Clusters[i].Rows[j] != r {
				t.Fatalf("rebuild differs for cluster %d", c.ID)
			}
			if seen[r] {
				t.Fatalf("row %d in two clusters", r)
			}
			seen[r] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("row %d not assigned", i)
		}
	}
	if c, ok := a.Find(2); !ok || c.ID != 2 {
		t.Fatalf("find 2 failed")
	}
	if _, ok := a.Find(9); ok {
		t.Fatalf("find 9 should fail")
	}
}

func TestBuildClusterIndexErrors(t *testing.T) {
	p := writeFile(t, "t.csv", "ip,label\n1,a\n")
	tb, err := Load(p, LoadOptions{EagerBytes: 1 << 20})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := BuildClusterIndex(context.Background(), tb, "cluster"); !errors.Is(err, ErrMissingClusterColumn) {
		t.Fatalf("expected missing column error, got %v", err)
	}
	p = writeFile(t, "u.csv", "ip,cluster\n1,0\n2,x\n")
	tb, err = Load(p, LoadOptions{EagerBytes: 1 << 20})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = BuildClusterIndex(context.Background(), tb, "cluster")
	if err == nil || !strings.Contains(err.Error(), "at row 1") {
		t.Fatalf("expected unparsable value error at row 1, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	x := &ClusterIndex{Clusters: []Cluster{{ID: 0, Rows: []int{1, 2}}}}
	c := x.Clone()
	c.Clusters[0].Rows[0] = 9
	if x.Clusters[0].Rows[0] != 1 {
		t.Fatalf("clone shares row slices")
	}
}
