package ai

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPromptRedactsAndBounds(t *testing.T) {
	rows := make([][]string, 30)
	for i := range rows {
		rows[i] = []string{"10.0.0.1", "GET", "/login?email=bob@example.com"}
	}
	p := buildClusterPrompt(3, []string{"ip", "method", "url"}, rows)
	if strings.Contains(p, "bob@example.com") {
		t.Fatalf("prompt leaks an email address")
	}
	if n := strings.Count(p, "[redacted-email]"); n != MaxSampleRows {
		t.Fatalf("expected %d sample rows, got %d", MaxSampleRows, n)
	}
	if !strings.Contains(p, "cluster 3") {
		t.Fatalf("prompt should name the cluster")
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewOpenAIClient("", "", "m", time.Second)
	if _, err := c.ExplainCluster(context.Background(), 1, []string{"a"}, [][]string{{"x"}}); err == nil {
		t.Fatalf("expected disabled error")
	}
}

func TestExplanationLines(t *testing.T) {
	e := Explanation{Label: "scanners", Summary: "Probing requests.", Signals: []string{"status=404"}}
	got := strings.Join(e.Lines(), "\n")
	if !strings.Contains(got, "label: scanners") || !strings.Contains(got, "  - status=404") {
		t.Fatalf("unexpected lines %q", got)
	}
}
