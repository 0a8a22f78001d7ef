package testutil

import (
	"encoding/json"
	"maps"
	"strconv"
)

// Expr is one scalar expression in wire form.
type Expr = map[string]any

// Plan assembles a wire-format plan one node at a time. Node ids are
// assigned from declaration order, so a Plan is always correctly
// numbered unless Raw is used to append something else.
//
//	plan := testutil.NewPlan().
//		Scan("emp", "id", "name", "dept_id", "salary").
//		Project([]string{"name"}, testutil.Input(1))
type Plan struct {
	rels []map[string]any
}

// NewPlan returns an empty plan.
func NewPlan() *Plan {
	return &Plan{}
}

func (p *Plan) add(relOp string, rel map[string]any) *Plan {
	rel["id"] = strconv.Itoa(len(p.rels))
	rel["relOp"] = relOp
	p.rels = append(p.rels, rel)
	return p
}

// Scan reads table, addressed as db.public.<table>.
func (p *Plan) Scan(table string, fieldNames ...string) *Plan {
	return p.add("LogicalTableScan", map[string]any{
		"table":      []string{"db", "public", table},
		"fieldNames": strs(fieldNames),
	})
}

// Project computes exprs over the previous node, naming them fields.
func (p *Plan) Project(fields []string, exprs ...Expr) *Plan {
	return p.add("LogicalProject", map[string]any{
		"exprs":  exprList(exprs),
		"fields": strs(fields),
	})
}

// Filter keeps the previous node's rows satisfying cond.
func (p *Plan) Filter(cond Expr) *Plan {
	return p.add("LogicalFilter", map[string]any{"condition": cond})
}

// Aggregate groups the previous node by group and evaluates aggs.
func (p *Plan) Aggregate(group []int, fields []string, aggs ...Expr) *Plan {
	if group == nil {
		group = []int{}
	}
	return p.add("LogicalAggregate", map[string]any{
		"group":  group,
		"aggs":   exprList(aggs),
		"fields": strs(fields),
	})
}

// Join combines nodes left and right.
func (p *Plan) Join(kind string, left, right int, cond Expr) *Plan {
	return p.add("LogicalJoin", map[string]any{
		"joinType":  kind,
		"inputs":    []string{strconv.Itoa(left), strconv.Itoa(right)},
		"condition": cond,
	})
}

// Raw appends rel without assigning an id or relOp.
func (p *Plan) Raw(rel map[string]any) *Plan {
	p.rels = append(p.rels, rel)
	return p
}

// Len returns the number of declared nodes.
func (p *Plan) Len() int {
	return len(p.rels)
}

// JSON encodes the plan as {"rels": [...]}.
func (p *Plan) JSON() []byte {
	rels := p.rels
	if rels == nil {
		rels = []map[string]any{}
	}
	b, err := json.Marshal(map[string]any{"rels": rels})
	if err != nil {
		panic(err)
	}
	return b
}

// Input references column i of the node's input.
func Input(i int) Expr {
	return Expr{"input": i}
}

// Lit is a literal with explicit type, scale and precision.
func Lit(typ string, v any, scale, precision int) Expr {
	return Expr{"literal": v, "type": typ, "scale": scale, "precision": precision}
}

// Int is a BIGINT literal.
func Int(n int64) Expr {
	return Lit("BIGINT", n, 0, 19)
}

// Str is a TEXT literal.
func Str(s string) Expr {
	return Lit("TEXT", s, 0, len(s))
}

// Bool is a BOOLEAN literal.
func Bool(b bool) Expr {
	return Lit("BOOLEAN", b, 0, 1)
}

// Null is an untyped NULL literal.
func Null() Expr {
	return Expr{"literal": nil, "type": "NULL"}
}

// Op applies a scalar operator.
func Op(op string, operands ...Expr) Expr {
	return Expr{"op": op, "operands": exprList(operands)}
}

// Agg is a non-distinct aggregate call over input columns.
func Agg(kind, typ string, nullable bool, operands ...int) Expr {
	if operands == nil {
		operands = []int{}
	}
	return Expr{
		"agg":      kind,
		"distinct": false,
		"type":     map[string]any{"type": typ, "nullable": nullable},
		"operands": operands,
	}
}

// Distinct returns a copy of agg with distinct set.
func Distinct(agg Expr) Expr {
	out := maps.Clone(agg)
	out["distinct"] = true
	return out
}

func strs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func exprList(e []Expr) []Expr {
	if e == nil {
		return []Expr{}
	}
	return e
}
