package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relalg/internal/compiler"
)

func decodeResponse(t *testing.T, buf *bytes.Buffer) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	return resp
}

func TestOutputFormatter_JSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, f.Success(map[string]int{"nodes": 4}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "ok", resp.Status)
		assert.Nil(t, resp.Error)
		assert.Equal(t, map[string]any{"nodes": float64(4)}, resp.Data)
	})

	t.Run("error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, f.Error("E005", "plan file not found", []string{"plan.json"}))

		resp := decodeResponse(t, buf)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E005", resp.Error.Code)
		assert.Equal(t, "plan file not found", resp.Error.Message)
		assert.Equal(t, []any{"plan.json"}, resp.Error.Details)
	})
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		write   func(f *OutputFormatter) error
		want    string
	}{
		{
			name:  "success",
			write: func(f *OutputFormatter) error { return f.Success("plan is valid") },
			want:  "plan is valid\n",
		},
		{
			name:  "error",
			write: func(f *OutputFormatter) error { return f.Error("E006", "reading plan", map[string]string{"file": "plan.json"}) },
			want:  "Error [E006]: reading plan\n",
		},
		{
			name:    "error_verbose",
			verbose: true,
			write:   func(f *OutputFormatter) error { return f.Error("E006", "reading plan", "plan.json") },
			want:    "Error [E006]: reading plan\nDetails: plan.json\n",
		},
		{
			name:    "verbose_log",
			verbose: true,
			write:   func(f *OutputFormatter) error { f.VerboseLog("Processing %s", "plan.json"); return nil },
			want:    "Processing plan.json\n",
		},
		{
			name:  "verbose_log_quiet",
			write: func(f *OutputFormatter) error { f.VerboseLog("Processing %s", "plan.json"); return nil },
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}
			require.NoError(t, tt.write(f))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Loaded %d table(s)", 2)
	assert.Empty(t, out.String())
	assert.Equal(t, "Loaded 2 table(s)\n", errOut.String())
	assert.Same(t, errOut, formatter.GetErrWriter())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := errors.Wrap(WrapExitError(ExitCommandError, "outer", errors.New("inner")), "context")
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "bad path", NewExitError(ExitCommandError, "bad path").Error())

	inner := errors.New("inner")
	err := WrapExitError(ExitFailure, "outer", inner)
	assert.Equal(t, "outer: inner", err.Error())
	assert.True(t, errors.Is(err, inner))
}

func TestOutputFormatter_BuildErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	buildErr := &compiler.UnknownTableError{Node: 0, Table: "nope", Field: "rels[0].table"}
	err := formatter.BuildError(buildErr)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E202")

	out := buf.String()
	assert.Contains(t, out, "✗ Build failed")
	assert.Contains(t, out, `E202: node 0, rels[0].table: unknown table "nope"`)
}

func TestOutputFormatter_BuildErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	buildErr := &compiler.MalformedPlanError{Node: 2, Field: "rels[2].condition", Message: "filter condition is not a predicate"}
	err := formatter.BuildError(buildErr)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Equal(t, "filter condition is not a predicate", resp.Error.Message)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), details["node"])
	assert.Equal(t, "rels[2].condition", details["field"])
}

func TestOutputFormatter_BuildErrorUnclassified(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.BuildError(errors.New("disk on fire"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E001]: disk on fire")
}
