package ir

import (
	"strconv"
	"strings"
)

// Datum is the decoded payload of a literal. The concrete type is fixed
// by the literal's SQLType (see SQLType.DatumKind).
type Datum interface {
	datum()
	String() string
}

// NullDatum is the payload of a NULL literal.
type NullDatum struct{}

// IntDatum carries integer and DECIMAL literals. DECIMAL values are
// unscaled; the literal's Scale gives the decimal point position.
type IntDatum int64

// DoubleDatum carries DOUBLE and FLOAT literals.
type DoubleDatum float64

// StringDatum carries TEXT, VARCHAR and CHAR literals.
type StringDatum string

// BoolDatum carries BOOLEAN literals.
type BoolDatum bool

func (NullDatum) datum()   {}
func (IntDatum) datum()    {}
func (DoubleDatum) datum() {}
func (StringDatum) datum() {}
func (BoolDatum) datum()   {}

func (NullDatum) String() string { return "NULL" }

func (d IntDatum) String() string { return strconv.FormatInt(int64(d), 10) }

func (d DoubleDatum) String() string { return strconv.FormatFloat(float64(d), 'g', -1, 64) }

func (d StringDatum) String() string {
	return "'" + strings.ReplaceAll(string(d), "'", "''") + "'"
}

func (d BoolDatum) String() string {
	if d {
		return "TRUE"
	}
	return "FALSE"
}
