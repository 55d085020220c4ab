package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// Evaluator is a Query bound to a header row. It holds no mutable state
// and may be shared between goroutines.
type Evaluator struct {
	exprs   []boundExpr
	expr    *govaluate.EvaluableExpression
	headers []string
}

type boundExpr struct {
	Expr
	col   int // -1 any column, -2 unknown column
	lower string
	num   float64
	isNum bool
}

const (
	anyColumn     = -1
	unknownColumn = -2
)

// NewEvaluator resolves column names once. A nil query matches everything.
func NewEvaluator(q *Query, headers []string) (*Evaluator, error) {
	e := &Evaluator{headers: headers}
	if q == nil {
		return e, nil
	}
	if q.Expression != "" {
		expr, err := govaluate.NewEvaluableExpression(q.Expression)
		if err != nil {
			return nil, fmt.Errorf("expression: %w", err)
		}
		e.expr = expr
		return e, nil
	}
	for _, x := range q.Exprs {
		b := boundExpr{Expr: x, col: anyColumn, lower: strings.ToLower(x.Value)}
		if x.Key == "" {
			// without a key the operator is ignored: any column containing the value matches
			b.Op = Contains
		} else {
			b.col = unknownColumn
			for i, h := range headers {
				if strings.EqualFold(h, x.Key) {
					b.col = i
					break
				}
			}
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(x.Value), 64); err == nil {
			b.num, b.isNum = f, true
		}
		e.exprs = append(e.exprs, b)
	}
	return e, nil
}

// Match reports whether every expression holds for row.
func (e *Evaluator) Match(row []string) bool {
	if e.expr != nil {
		return e.matchExpression(row)
	}
	for i := range e.exprs {
		if !e.exprs[i].match(row) {
			return false
		}
	}
	return true
}

func (b *boundExpr) match(row []string) bool {
	switch b.col {
	case unknownColumn:
		return false
	case anyColumn:
		for _, v := range row {
			if b.matchValue(v) {
				return true
			}
		}
		return false
	default:
		if b.col >= len(row) {
			return false
		}
		return b.matchValue(row[b.col])
	}
}

func (b *boundExpr) matchValue(v string) bool {
	switch b.Op {
	case Contains, Equals:
		return strings.Contains(strings.ToLower(v), b.lower)
	case Exact:
		return strings.ToLower(v) == b.lower
	case NotEqual:
		return !strings.Contains(strings.ToLower(v), b.lower)
	}
	if !b.isNum {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return false
	}
	switch b.Op {
	case Gt:
		return f > b.num
	case Lt:
		return f < b.num
	case Ge:
		return f >= b.num
	case Le:
		return f <= b.num
	}
	return false
}

func (e *Evaluator) matchExpression(row []string) bool {
	params := make(map[string]any, len(e.headers))
	for i, h := range e.headers {
		if i >= len(row) {
			break
		}
		v := row[i]
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			params[h] = f
		} else {
			params[h] = v
		}
	}
	result, err := e.expr.Evaluate(params)
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}
