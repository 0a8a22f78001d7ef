package ir

// Version constants for the IR encoding.
const (
	// IRVersion is the canonical IR encoding version.
	IRVersion = "1"

	// BuilderVersion is the relalg builder version.
	BuilderVersion = "0.1.0"
)
