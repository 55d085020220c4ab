package filter

import (
	"strings"
)

type Op int

const (
	Contains Op = iota
	Equals      // "=": case-insensitive substring
	Exact       // "==": case-folded equality
	NotEqual    // "!=": negated case-insensitive substring
	Gt
	Lt
	Ge
	Le
)

var opText = map[Op]string{Equals: "=", Exact: "==", NotEqual: "!=", Gt: ">", Lt: "<", Ge: ">=", Le: "<="}

func (o Op) String() string {
	if o == Contains {
		return "~"
	}
	return opText[o]
}

// operators in the order they are tried against a token.
var operators = []struct {
	text string
	op   Op
}{
	{"==", Exact},
	{"!=", NotEqual},
	{">=", Ge},
	{"<=", Le},
	{">", Gt},
	{"<", Lt},
	{"=", Equals},
}

// Expr is one predicate. An empty Key means any column.
type Expr struct {
	Key   string
	Op    Op
	Value string
}

// Query is either a conjunction of Exprs or a govaluate expression
// (input starting with '?').
type Query struct {
	Exprs      []Expr
	Expression string
}

// Parse turns filter box text into a Query. Blank text is no filter (nil).
func Parse(text string) *Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "?") {
		expr := strings.TrimSpace(text[1:])
		if expr == "" {
			return nil
		}
		return &Query{Expression: expr}
	}
	q := &Query{}
	for _, tok := range strings.Fields(text) {
		q.Exprs = append(q.Exprs, parseToken(tok))
	}
	return q
}

func parseToken(tok string) Expr {
	for _, o := range operators {
		if k, v, ok := strings.Cut(tok, o.text); ok {
			return Expr{Key: strings.ToLower(strings.TrimSpace(k)), Op: o.op, Value: unquote(strings.TrimSpace(v))}
		}
	}
	return Expr{Op: Contains, Value: unquote(tok)}
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}

// Key is the canonical form of a committed query, used to key caches.
func (q *Query) Key() string {
	if q == nil {
		return ""
	}
	if q.Expression != "" {
		return "?" + q.Expression
	}
	parts := make([]string, len(q.Exprs))
	for i, e := range q.Exprs {
		parts[i] = e.Key + e.Op.String() + strings.ToLower(e.Value)
	}
	return strings.Join(parts, " ")
}
