package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logFilePath = func() string { return "" }
	color.NoColor = true
	os.Exit(m.Run())
}

// resetFlags clears flag values left behind by a previous execution.
func resetFlags() {
	jsonOutput, dataDir, statePath, verbosity = false, "", "", 0
	activateExclusive, deactivateAll = false, false

	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Name == "help" || f.Name == "version" {
				_ = f.Value.Set("false")
			}
			f.Changed = false
		})
		for _, c := range cmd.Commands() {
			walk(c)
		}
	}
	walk(rootCmd)
}

// execute runs the CLI with args and returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		stdout, stderr = os.Stdout, os.Stderr
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "profswap")
	assert.Contains(t, out, "Managed Files:")
	assert.Contains(t, out, "Profiles:")
	assert.Contains(t, out, "activate")
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")

	out, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, errOut, err := execute(t, "invalid-command")
	assert.Error(t, err)
	assert.Contains(t, errOut, "✗")
}

func TestSetVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"normal version", "1.2.3", "1.2.3"},
		{"empty version", "", "1.2.3"}, // Should not change if empty
		{"dev version", "dev", "dev"},
	}

	SetVersion("1.2.3")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.version)
			assert.Equal(t, tt.want, rootCmd.Version)
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := []string{
		"add", "track", "remove", "forget",
		"activate", "deactivate", "status", "verify",
		"version", "completion",
	}

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}
