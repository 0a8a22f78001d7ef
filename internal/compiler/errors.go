package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"
)

// Build error codes (E201-E209).
const (
	CodeMalformedPlan       = "E201"
	CodeUnknownTable        = "E202"
	CodeUnsupportedOperator = "E203"
)

// NoNode marks an error not tied to a particular plan node.
const NoNode = -1

// MalformedPlanError reports a plan that violates the wire contract:
// a missing or ill-typed field, a wrong id, a bad input reference, or an
// expression that does not bind.
type MalformedPlanError struct {
	Node    int
	Field   string
	Message string
	Pos     token.Pos
}

func (e *MalformedPlanError) Error() string {
	return locate(e.Pos, e.Field, e.Message)
}

// UnknownTableError reports a Scan whose table the catalog does not know.
type UnknownTableError struct {
	Node  int
	Table string
	Field string
	Pos   token.Pos
}

func (e *UnknownTableError) Error() string {
	return locate(e.Pos, e.Field, fmt.Sprintf("unknown table %q", e.Table))
}

// UnsupportedOperatorError reports a relOp, op, agg or joinType value
// outside the recognized set. Kind names which of those it was.
type UnsupportedOperatorError struct {
	Node  int
	Kind  string
	Name  string
	Field string
	Pos   token.Pos
}

func (e *UnsupportedOperatorError) Error() string {
	return locate(e.Pos, e.Field, fmt.Sprintf("unsupported %s %q", e.Kind, e.Name))
}

func locate(pos token.Pos, field, msg string) string {
	switch {
	case pos.IsValid() && field != "":
		return fmt.Sprintf("%s:%d:%d: %s: %s", pos.Filename(), pos.Line(), pos.Column(), field, msg)
	case field != "":
		return fmt.Sprintf("%s: %s", field, msg)
	default:
		return msg
	}
}

// IsMalformed reports whether err is or wraps a MalformedPlanError.
func IsMalformed(err error) bool {
	var target *MalformedPlanError
	return errors.As(err, &target)
}

// IsUnknownTable reports whether err is or wraps an UnknownTableError.
func IsUnknownTable(err error) bool {
	var target *UnknownTableError
	return errors.As(err, &target)
}

// IsUnsupportedOperator reports whether err is or wraps an UnsupportedOperatorError.
func IsUnsupportedOperator(err error) bool {
	var target *UnsupportedOperatorError
	return errors.As(err, &target)
}

// ErrorCode maps a build error to its code, or "" for other errors.
func ErrorCode(err error) string {
	switch {
	case IsMalformed(err):
		return CodeMalformedPlan
	case IsUnknownTable(err):
		return CodeUnknownTable
	case IsUnsupportedOperator(err):
		return CodeUnsupportedOperator
	default:
		return ""
	}
}

// ErrorNode returns the plan node an error refers to, or NoNode.
func ErrorNode(err error) int {
	var (
		m *MalformedPlanError
		u *UnknownTableError
		o *UnsupportedOperatorError
	)
	switch {
	case errors.As(err, &m):
		return m.Node
	case errors.As(err, &u):
		return u.Node
	case errors.As(err, &o):
		return o.Node
	default:
		return NoNode
	}
}

// Detail is the breakdown of a build error.
type Detail struct {
	Code    string    `json:"code"`
	Node    int       `json:"node"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Pos     token.Pos `json:"-"`
}

// DetailOf breaks a build error into its parts. ok is false for errors
// that are not build errors.
func DetailOf(err error) (d Detail, ok bool) {
	var (
		m *MalformedPlanError
		u *UnknownTableError
		o *UnsupportedOperatorError
	)
	switch {
	case errors.As(err, &m):
		return Detail{CodeMalformedPlan, m.Node, m.Field, m.Message, m.Pos}, true
	case errors.As(err, &u):
		return Detail{CodeUnknownTable, u.Node, u.Field, fmt.Sprintf("unknown table %q", u.Table), u.Pos}, true
	case errors.As(err, &o):
		return Detail{CodeUnsupportedOperator, o.Node, o.Field, fmt.Sprintf("unsupported %s %q", o.Kind, o.Name), o.Pos}, true
	default:
		return Detail{}, false
	}
}

// Describe renders a build error as its code, node, field and message,
// without the source position. Other errors render as "error: <msg>".
func Describe(err error) string {
	if d, ok := DetailOf(err); ok {
		return fmt.Sprintf("error %s at node %d, %s: %s", d.Code, d.Node, d.Field, d.Message)
	}
	return "error: " + err.Error()
}
