package ir

// Scalar is a sealed interface over scalar expressions.
// Only AbstractInput, Input, Literal, Operator, and Agg implement it.
type Scalar interface {
	scalar()
}

// AbstractInput is an unresolved column reference: an index into the
// owning node's direct input schema. It only exists before binding.
type AbstractInput struct {
	Index int
}

// Input is a resolved column reference: column Index of node Source.
type Input struct {
	Source NodeID
	Index  int
}

// Literal is a typed constant.
type Literal struct {
	Type          SQLType
	Scale         int
	Precision     int
	TypeScale     int
	TypePrecision int
	Value         Datum
}

// Operator applies Op to an owned operand list.
type Operator struct {
	Op       Op
	Operands []Scalar
}

// Agg is an aggregate call inside an Aggregate node. Operands are column
// indices into the Aggregate's input schema.
type Agg struct {
	Kind     AggKind
	Distinct bool
	Type     SQLType
	Nullable bool
	Operands []int
}

func (*AbstractInput) scalar() {}
func (*Input) scalar()         {}
func (*Literal) scalar()       {}
func (*Operator) scalar()      {}
func (*Agg) scalar()           {}

// NewNullLiteral returns a NULL literal.
func NewNullLiteral() *Literal {
	return &Literal{Type: TypeNull, Value: NullDatum{}}
}

// WalkScalar visits s and its operands depth-first. Returning false from
// fn skips the operands of the current expression.
func WalkScalar(s Scalar, fn func(Scalar) bool) {
	if s == nil || !fn(s) {
		return
	}
	if op, ok := s.(*Operator); ok {
		for _, o := range op.Operands {
			WalkScalar(o, fn)
		}
	}
}

// IsBooleanShaped reports whether s can stand as a predicate: a boolean
// operator, a BOOLEAN or NULL literal, or a column reference.
func IsBooleanShaped(s Scalar) bool {
	switch v := s.(type) {
	case *Operator:
		return v.Op.IsBoolean()
	case *Literal:
		return v.Type == TypeBoolean || v.Type == TypeNull
	case *AbstractInput, *Input:
		return true
	default:
		return false
	}
}
