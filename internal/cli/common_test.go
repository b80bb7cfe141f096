package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/profswap/internal/engine"
)

// captureOutput swaps the output streams for buffers for the rest of the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = os.Stdout, os.Stderr
	})
	return &out, &errOut
}

func TestFormatJSON(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"simple map", map[string]string{"key": "value"}, "{\n  \"key\": \"value\"\n}"},
		{"empty map", map[string]string{}, "{}"},
		{"array", []string{"a", "b"}, "[\n  \"a\",\n  \"b\"\n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputJSON(t *testing.T) {
	out, _ := captureOutput(t)

	require.NoError(t, outputJSON(&engine.AddFileResult{Path: "/home/a.conf", Added: true}))

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.Equal(t, "/home/a.conf", v["path"])
	assert.Equal(t, true, v["added"])
}

func TestPrintFunctions(t *testing.T) {
	out, errOut := captureOutput(t)

	PrintSuccess("Success message")
	PrintWarning("Warning message")
	PrintError("Error message")
	PrintInfo("Info message")

	assert.Contains(t, out.String(), "✓ Success message")
	assert.Contains(t, out.String(), "⚠ Warning message")
	assert.Contains(t, out.String(), "Info message")
	assert.NotContains(t, out.String(), "Error message")
	assert.Contains(t, errOut.String(), "✗ Error message")
}

func TestPrintTable(t *testing.T) {
	out, _ := captureOutput(t)

	PrintTable([]string{"NAME", "ACTIVE"}, [][]string{{"work", "yes"}, {"home-laptop", "no"}})

	assert.Equal(t,
		"  NAME         ACTIVE\n"+
			"  -----------  ------\n"+
			"  work         yes   \n"+
			"  home-laptop  no    \n",
		out.String())
}

func TestPrintCount(t *testing.T) {
	assert.Equal(t, "1 file", PrintCount(1, "file", "files"))
	assert.Equal(t, "0 files", PrintCount(0, "file", "files"))
	assert.Equal(t, "3 files", PrintCount(3, "file", "files"))
}

func TestReportError_Partial(t *testing.T) {
	_, errOut := captureOutput(t)

	reportError(&engine.PartialError{
		Op:     "activate",
		Target: "work",
		Total:  3,
		Failures: []engine.FileFailure{
			{Path: "/home/a.conf", Profile: "work", Err: errors.New("permission denied")},
		},
	})

	assert.Contains(t, errOut.String(), `activate "work" failed for 1 file of 3`)
	assert.Contains(t, errOut.String(), "/home/a.conf: permission denied")
}

func TestCommitted(t *testing.T) {
	partial := &engine.PartialError{Op: "activate", Total: 1, Failures: []engine.FileFailure{{Path: "/a", Err: errors.New("x")}}}

	assert.True(t, committed(nil))
	assert.True(t, committed(partial))
	assert.False(t, committed(engine.ErrProfileNotFound))
	assert.False(t, committed(errors.Join(partial, engine.ErrStoreWriteError)))
}
