package harness

import "github.com/roach88/relalg/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: true if every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// BuildID and Fingerprint identify the built DAG. Both are empty
	// when the build failed.
	BuildID     string `json:"build_id,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// Nodes is the number of nodes in the built DAG.
	Nodes int `json:"nodes"`

	// Explain is the rendered plan tree of a successful build.
	Explain string `json:"explain,omitempty"`

	// BuildError describes a failed build, without source position.
	BuildError string `json:"build_error,omitempty"`

	// DAG and Err hold the raw build outcome for assertions.
	DAG *ir.DAG `json:"-"`
	Err error   `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
