package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

// field is a decoded JSON value together with its path in the plan,
// e.g. rels[2].condition.operands[0]. Paths appear in every error.
type field struct {
	v    cue.Value
	path string
}

// child looks up a member of an object field.
func (f field) child(name string) (field, bool) {
	v := f.v.LookupPath(cue.MakePath(cue.Str(name)))
	return field{v: v, path: f.path + "." + name}, v.Exists()
}

func (f field) pos() token.Pos {
	return f.v.Pos()
}

// decodePlan parses plan bytes and returns the "rels" array elements.
func decodePlan(filename string, data []byte) ([]field, error) {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return nil, &MalformedPlanError{
			Node:    NoNode,
			Field:   "plan",
			Message: firstCUEMessage(err),
			Pos:     firstCUEPos(err),
		}
	}

	v := cuecontext.New().BuildExpr(expr)
	if err := v.Err(); err != nil {
		return nil, &MalformedPlanError{
			Node:    NoNode,
			Field:   "plan",
			Message: firstCUEMessage(err),
			Pos:     firstCUEPos(err),
		}
	}

	root := field{v: v, path: "plan"}
	if err := expectKind(root, cue.StructKind, NoNode); err != nil {
		return nil, err
	}
	relsField, ok := root.child("rels")
	if !ok {
		return nil, malformedAt(root, NoNode, `missing required field "rels"`)
	}
	relsField.path = "rels"
	rels, err := listOf(relsField, NoNode)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, malformedAt(relsField, NoNode, "plan has no relational nodes")
	}
	return rels, nil
}

func firstCUEMessage(err error) string {
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		return errs[0].Error()
	}
	return err.Error()
}

func firstCUEPos(err error) token.Pos {
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		return pos[0]
	}
	return token.NoPos
}

func malformedAt(f field, node int, format string, args ...any) error {
	return &MalformedPlanError{
		Node:    node,
		Field:   f.path,
		Message: fmt.Sprintf(format, args...),
		Pos:     f.pos(),
	}
}

// kindName renders a CUE kind in JSON terms.
func kindName(k cue.Kind) string {
	switch k {
	case cue.StructKind:
		return "object"
	case cue.ListKind:
		return "array"
	case cue.IntKind:
		return "integer"
	case cue.FloatKind:
		return "number"
	case cue.StringKind:
		return "string"
	case cue.BoolKind:
		return "boolean"
	case cue.NullKind:
		return "null"
	default:
		return k.String()
	}
}

func expectKind(f field, want cue.Kind, node int) error {
	if got := f.v.Kind(); got != want {
		return malformedAt(f, node, "expected %s, got %s", kindName(want), kindName(got))
	}
	return nil
}

// member returns a mandatory member of an object.
func member(f field, name string, node int) (field, error) {
	c, ok := f.child(name)
	if !ok {
		return c, malformedAt(f, node, "missing required field %q", name)
	}
	return c, nil
}

func stringOf(f field, node int) (string, error) {
	if err := expectKind(f, cue.StringKind, node); err != nil {
		return "", err
	}
	return f.v.String()
}

func boolOf(f field, node int) (bool, error) {
	if err := expectKind(f, cue.BoolKind, node); err != nil {
		return false, err
	}
	return f.v.Bool()
}

func int64Of(f field, node int) (int64, error) {
	if err := expectKind(f, cue.IntKind, node); err != nil {
		return 0, err
	}
	n, err := f.v.Int64()
	if err != nil {
		return 0, malformedAt(f, node, "integer out of range")
	}
	return n, nil
}

// intOf reads a JSON integer that must fit an int.
func intOf(f field, node int) (int, error) {
	n, err := int64Of(f, node)
	if err != nil {
		return 0, err
	}
	if int64(int(n)) != n {
		return 0, malformedAt(f, node, "integer out of range")
	}
	return int(n), nil
}

// indexOf reads a non-negative column index.
func indexOf(f field, node int) (int, error) {
	n, err := intOf(f, node)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, malformedAt(f, node, "index must be non-negative, got %d", n)
	}
	return n, nil
}

// float64Of accepts any JSON number.
func float64Of(f field, node int) (float64, error) {
	switch f.v.Kind() {
	case cue.IntKind, cue.FloatKind:
	default:
		return 0, malformedAt(f, node, "expected number, got %s", kindName(f.v.Kind()))
	}
	x, err := f.v.Float64()
	if err != nil {
		return 0, malformedAt(f, node, "number out of range")
	}
	return x, nil
}

func listOf(f field, node int) ([]field, error) {
	if err := expectKind(f, cue.ListKind, node); err != nil {
		return nil, err
	}
	it, err := f.v.List()
	if err != nil {
		return nil, malformedAt(f, node, "%s", firstCUEMessage(err))
	}
	var out []field
	for i := 0; it.Next(); i++ {
		out = append(out, field{v: it.Value(), path: fmt.Sprintf("%s[%d]", f.path, i)})
	}
	return out, nil
}

func stringsOf(f field, node int) ([]string, error) {
	elems, err := listOf(f, node)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		if out[i], err = stringOf(e, node); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func indicesOf(f field, node int) ([]int, error) {
	elems, err := listOf(f, node)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(elems))
	for i, e := range elems {
		if out[i], err = indexOf(e, node); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// nodeRef reads a string-encoded node id such as "3".
func nodeRef(f field, node int) (int, error) {
	s, err := stringOf(f, node)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, malformedAt(f, node, "node id %q is not a non-negative integer", s)
	}
	return n, nil
}

// memberCount counts the regular members of an object.
func memberCount(f field) int {
	it, err := f.v.Fields()
	if err != nil {
		return 0
	}
	n := 0
	for it.Next() {
		n++
	}
	return n
}
