package explain

// Flags are modifiers for explain output.
type Flags struct {
	// Verbose adds the output columns and arity of every node.
	Verbose bool
	// ShowTypes annotates literals with their SQL type, scale and
	// precision. If ShowTypes is true, then Verbose is also true.
	ShowTypes bool
}
