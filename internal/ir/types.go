package ir

import "strings"

// SQLType is the declared SQL type tag of a literal or aggregate result.
type SQLType string

// Supported SQL type tags.
const (
	TypeDecimal  SQLType = "DECIMAL"
	TypeBigInt   SQLType = "BIGINT"
	TypeInteger  SQLType = "INTEGER"
	TypeSmallInt SQLType = "SMALLINT"
	TypeTinyInt  SQLType = "TINYINT"
	TypeDouble   SQLType = "DOUBLE"
	TypeFloat    SQLType = "FLOAT"
	TypeText     SQLType = "TEXT"
	TypeVarchar  SQLType = "VARCHAR"
	TypeChar     SQLType = "CHAR"
	TypeBoolean  SQLType = "BOOLEAN"
	TypeNull     SQLType = "NULL"
)

// sqlTypes maps every accepted tag to its canonical SQLType.
// NULLT is the spelling used by older planners.
var sqlTypes = map[string]SQLType{
	"DECIMAL":  TypeDecimal,
	"BIGINT":   TypeBigInt,
	"INTEGER":  TypeInteger,
	"SMALLINT": TypeSmallInt,
	"TINYINT":  TypeTinyInt,
	"DOUBLE":   TypeDouble,
	"FLOAT":    TypeFloat,
	"TEXT":     TypeText,
	"VARCHAR":  TypeVarchar,
	"CHAR":     TypeChar,
	"BOOLEAN":  TypeBoolean,
	"NULL":     TypeNull,
	"NULLT":    TypeNull,
}

// ParseSQLType returns the SQLType for a wire tag.
func ParseSQLType(s string) (SQLType, bool) {
	t, ok := sqlTypes[s]
	return t, ok
}

// DatumKind is the in-memory representation chosen for a literal payload.
type DatumKind int

const (
	DatumNull DatumKind = iota
	DatumInt
	DatumDouble
	DatumString
	DatumBool
)

// DatumKind reports how a literal of this type carries its value.
func (t SQLType) DatumKind() DatumKind {
	switch t {
	case TypeDecimal, TypeBigInt, TypeInteger, TypeSmallInt, TypeTinyInt:
		return DatumInt
	case TypeDouble, TypeFloat:
		return DatumDouble
	case TypeText, TypeVarchar, TypeChar:
		return DatumString
	case TypeBoolean:
		return DatumBool
	default:
		return DatumNull
	}
}

// Op names a scalar operator.
type Op string

const (
	OpEq        Op = "="
	OpNe        Op = "<>"
	OpLt        Op = "<"
	OpLe        Op = "<="
	OpGt        Op = ">"
	OpGe        Op = ">="
	OpAnd       Op = "AND"
	OpOr        Op = "OR"
	OpNot       Op = "NOT"
	OpIsNull    Op = "IS NULL"
	OpIsNotNull Op = "IS NOT NULL"
	OpLike      Op = "LIKE"
	OpPlus      Op = "+"
	OpMinus     Op = "-"
	OpMul       Op = "*"
	OpDiv       Op = "/"
	OpMod       Op = "MOD"
	OpCast      Op = "CAST"
)

// variadic marks an operator without an upper operand bound.
const variadic = -1

type opInfo struct {
	minOperands int
	maxOperands int
	boolean     bool
}

var ops = map[Op]opInfo{
	OpEq:        {2, 2, true},
	OpNe:        {2, 2, true},
	OpLt:        {2, 2, true},
	OpLe:        {2, 2, true},
	OpGt:        {2, 2, true},
	OpGe:        {2, 2, true},
	OpAnd:       {2, variadic, true},
	OpOr:        {2, variadic, true},
	OpNot:       {1, 1, true},
	OpIsNull:    {1, 1, true},
	OpIsNotNull: {1, 1, true},
	OpLike:      {2, 2, true},
	OpPlus:      {2, 2, false},
	OpMinus:     {2, 2, false},
	OpMul:       {2, 2, false},
	OpDiv:       {2, 2, false},
	OpMod:       {2, 2, false},
	OpCast:      {1, 1, false},
}

// ParseOp returns the operator for a wire name. Names are matched
// case-insensitively and stored upper-case.
func ParseOp(s string) (Op, bool) {
	op := Op(strings.ToUpper(s))
	_, ok := ops[op]
	return op, ok
}

// Operands returns the accepted operand count range. max is -1 when
// the operator is variadic.
func (o Op) Operands() (min, max int) {
	info := ops[o]
	return info.minOperands, info.maxOperands
}

// AcceptsOperands reports whether n operands are valid for o.
func (o Op) AcceptsOperands(n int) bool {
	lo, hi := o.Operands()
	return n >= lo && (hi == variadic || n <= hi)
}

// IsBoolean reports whether o yields a boolean.
func (o Op) IsBoolean() bool {
	return ops[o].boolean
}

// AggKind names an aggregate function.
type AggKind string

const (
	AggCount AggKind = "COUNT"
	AggSum   AggKind = "SUM"
	AggAvg   AggKind = "AVG"
	AggMin   AggKind = "MIN"
	AggMax   AggKind = "MAX"
)

var aggOperands = map[AggKind][2]int{
	AggCount: {0, 1},
	AggSum:   {1, 1},
	AggAvg:   {1, 1},
	AggMin:   {1, 1},
	AggMax:   {1, 1},
}

// ParseAggKind returns the aggregate for a wire name.
func ParseAggKind(s string) (AggKind, bool) {
	k := AggKind(strings.ToUpper(s))
	_, ok := aggOperands[k]
	return k, ok
}

// AcceptsOperands reports whether n column operands are valid for k.
func (k AggKind) AcceptsOperands(n int) bool {
	r := aggOperands[k]
	return n >= r[0] && n <= r[1]
}

// JoinKind is the join flavour.
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
)

// ParseJoinKind maps the wire joinType ("inner" or "left").
func ParseJoinKind(s string) (JoinKind, bool) {
	switch s {
	case "inner":
		return JoinInner, true
	case "left":
		return JoinLeft, true
	default:
		return "", false
	}
}

// NodeKind identifies the concrete relational node type.
type NodeKind int

const (
	KindScan NodeKind = iota
	KindProject
	KindFilter
	KindAggregate
	KindJoin
	KindCompound
)

var nodeKindNames = [...]string{
	KindScan:      "Scan",
	KindProject:   "Project",
	KindFilter:    "Filter",
	KindAggregate: "Aggregate",
	KindJoin:      "Join",
	KindCompound:  "Compound",
}

func (k NodeKind) String() string {
	if int(k) < 0 || int(k) >= len(nodeKindNames) {
		return "Unknown"
	}
	return nodeKindNames[k]
}

// RelOp is the wire discriminator of a plan node.
type RelOp string

const (
	RelOpScan      RelOp = "LogicalTableScan"
	RelOpProject   RelOp = "LogicalProject"
	RelOpFilter    RelOp = "LogicalFilter"
	RelOpAggregate RelOp = "LogicalAggregate"
	RelOpJoin      RelOp = "LogicalJoin"
)

// TableDesc is the catalog's description of a table.
type TableDesc struct {
	ID      int          `json:"id" yaml:"id"`
	Name    string       `json:"name" yaml:"name"`
	Columns []ColumnDesc `json:"columns" yaml:"columns"`
}

// ColumnDesc describes one table column.
type ColumnDesc struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}
