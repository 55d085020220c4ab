package filter

import "testing"

var headers = []string{"ip", "method", "url", "status", "size"}

func mustEval(t *testing.T, text string) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator(Parse(text), headers)
	if err != nil {
		t.Fatalf("evaluator for %q: %v", text, err)
	}
	return ev
}

func TestParseTwoExpressions(t *testing.T) {
	q := Parse("status=404 size>1000")
	if q == nil || len(q.Exprs) != 2 {
		t.Fatalf("expected two expressions, got %+v", q)
	}
	if q.Exprs[0] != (Expr{Key: "status", Op: Equals, Value: "404"}) {
		t.Fatalf("unexpected first expr %+v", q.Exprs[0])
	}
	if q.Exprs[1] != (Expr{Key: "size", Op: Gt, Value: "1000"}) {
		t.Fatalf("unexpected second expr %+v", q.Exprs[1])
	}
	ev := mustEval(t, "status=404 size>1000")
	if !ev.Match([]string{"10.0.0.1", "GET", "/a", "404", "1500"}) {
		t.Fatalf("expected match for size 1500")
	}
	if ev.Match([]string{"10.0.0.1", "GET", "/a", "404", "900"}) {
		t.Fatalf("expected no match for size 900")
	}
}

func TestParseBlankIsNoFilter(t *testing.T) {
	if q := Parse("  "); q != nil {
		t.Fatalf("expected nil query, got %+v", q)
	}
	ev := mustEval(t, "  ")
	if !ev.Match([]string{"", "", "", "", ""}) {
		t.Fatalf("no filter should match every row")
	}
}

func TestOperatorOrder(t *testing.T) {
	cases := map[string]Expr{
		"Method==GET":   {Key: "method", Op: Exact, Value: "GET"},
		"status!=200":   {Key: "status", Op: NotEqual, Value: "200"},
		"size>=10":      {Key: "size", Op: Ge, Value: "10"},
		"size<=10":      {Key: "size", Op: Le, Value: "10"},
		"size<10":       {Key: "size", Op: Lt, Value: "10"},
		`url="/login"`:  {Key: "url", Op: Equals, Value: "/login"},
		"curl":          {Op: Contains, Value: "curl"},
		"'quoted'":      {Op: Contains, Value: "quoted"},
	}
	for in, want := range cases {
		q := Parse(in)
		if q == nil || len(q.Exprs) != 1 || q.Exprs[0] != want {
			t.Fatalf("parse %q: got %+v, want %+v", in, q, want)
		}
	}
}

func TestMatchSemantics(t *testing.T) {
	row := []string{"10.0.0.1", "GET", "/Login", "404", "abc"}
	if !mustEval(t, "url=login").Match(row) {
		t.Fatalf("= should be a case-insensitive substring")
	}
	if mustEval(t, "url==login").Match(row) {
		t.Fatalf("== should require the whole value")
	}
	if !mustEval(t, "url==/LOGIN").Match(row) {
		t.Fatalf("== should fold case")
	}
	if !mustEval(t, "method!=post").Match(row) || mustEval(t, "method!=ge").Match(row) {
		t.Fatalf("!= should negate substring match")
	}
	if mustEval(t, "size>1").Match(row) {
		t.Fatalf("numeric comparison against non-numeric value must not match")
	}
	if mustEval(t, "status>abc").Match(row) {
		t.Fatalf("numeric comparison against non-numeric operand must not match")
	}
	if mustEval(t, "referrer=x").Match(row) {
		t.Fatalf("unknown column must not match")
	}
	if !mustEval(t, "login 404").Match(row) {
		t.Fatalf("key-less terms should search every column")
	}
	if mustEval(t, "login 500").Match(row) {
		t.Fatalf("every term must match")
	}
}

func TestExpressionFilter(t *testing.T) {
	ev := mustEval(t, `?status >= 400 && method == "GET"`)
	if !ev.Match([]string{"1.1.1.1", "GET", "/", "404", "1"}) {
		t.Fatalf("expected expression match")
	}
	if ev.Match([]string{"1.1.1.1", "POST", "/", "404", "1"}) {
		t.Fatalf("expected expression mismatch")
	}
	if _, err := NewEvaluator(Parse("?status >= ("), headers); err == nil {
		t.Fatalf("expected invalid expression error")
	}
	if mustEval(t, "?missing > 1").Match([]string{"1.1.1.1", "GET", "/", "404", "1"}) {
		t.Fatalf("evaluation errors must not match")
	}
}

func TestKeyIsCanonical(t *testing.T) {
	if Parse("Status=404  size>1").Key() != Parse("status=404 size>1").Key() {
		t.Fatalf("equivalent queries should share a key")
	}
	if Parse("status=404").Key() == Parse("status==404").Key() {
		t.Fatalf("different operators should not share a key")
	}
	var q *Query
	if q.Key() != "" {
		t.Fatalf("nil query key should be empty")
	}
}

func TestKeylessOperatorMeansContains(t *testing.T) {
	hdr := []string{"ip", "method", "status"}
	row := []string{"10.0.0.1", "GET", "404"}
	cases := map[string]bool{
		">5":   false,
		"<=1":  true,
		"!=ge": true,
		"=xyz": false,
	}
	for in, want := range cases {
		ev, err := NewEvaluator(Parse(in), hdr)
		if err != nil {
			t.Fatalf("evaluator for %q: %v", in, err)
		}
		if got := ev.Match(row); got != want {
			t.Fatalf("%q: match=%v, want %v", in, got, want)
		}
	}
}
