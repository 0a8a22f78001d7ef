package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed JSON-shaped tree used to encode the IR.
// Only Null, String, Int, Bool, Array, and Object implement this.
// There is no float member; doubles are carried as String.
type Value interface {
	value()
}

// Null is the JSON null.
type Null struct{}

func (Null) value() {}

// String is a JSON string.
type String string

func (String) value() {}

// Int is a JSON integer.
type Int int64

func (Int) value() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) value() {}

// Array is a JSON array.
type Array []Value

func (Array) value() {}

// Object is a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by UTF-16 code units. Plain string
// comparison orders by UTF-8 bytes, which differs above U+FFFF.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
