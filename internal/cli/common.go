package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/clock"
	"github.com/danieljhkim/profswap/internal/config"
	"github.com/danieljhkim/profswap/internal/engine"
	"github.com/danieljhkim/profswap/internal/fsops"
	"github.com/danieljhkim/profswap/internal/hash"
	"github.com/danieljhkim/profswap/internal/logging"
	"github.com/danieljhkim/profswap/internal/pathutil"
	"github.com/danieljhkim/profswap/internal/snapshots"
	"github.com/danieljhkim/profswap/internal/state"
)

// resolvePaths applies the --data-dir and --state flags over the defaults.
func resolvePaths() (*config.Paths, error) {
	var (
		paths *config.Paths
		err   error
	)
	if dataDir != "" {
		paths, err = config.NewPaths(dataDir)
	} else {
		paths, err = config.DefaultPaths()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	if statePath != "" {
		if err := paths.SetState(statePath); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	clk := &clock.RealClock{}
	stateStore := state.NewFileStateStore(fs, paths.State)
	storage := snapshots.NewFileStorage(fs, hasher, clk, paths.Snapshots)

	return engine.New(stateStore, storage, fs, hasher, clk), nil
}

// update runs one mutating engine operation inside a transaction.
func update(cmd *cobra.Command, op func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error) error {
	defer logging.LogOperationStart(logging.GetLogger("cli"), cmd.Name())()

	eng, err := newEngine()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return eng.Update(ctx, func(txn *engine.Txn) error {
		return op(ctx, eng, txn)
	})
}

// view runs one read-only engine operation.
func view(cmd *cobra.Command, op func(ctx context.Context, eng *engine.Engine, reg *state.Registry) error) error {
	defer logging.LogOperationStart(logging.GetLogger("cli"), cmd.Name())()

	eng, err := newEngine()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return eng.View(ctx, func(reg *state.Registry) error {
		return op(ctx, eng, reg)
	})
}

// resolveFile turns a command-line path into the key the registry uses.
func resolveFile(arg string) (string, error) {
	return pathutil.ResolveFromWD(arg)
}

// committed reports whether an operation's result was persisted, so it can
// be printed even though err is not nil.
func committed(err error) bool {
	if err == nil {
		return true
	}
	var partial *engine.PartialError
	return errors.As(err, &partial) && !errors.Is(err, engine.ErrStoreWriteError)
}

// reportError prints err, one line per failed file for partial failures.
func reportError(err error) {
	var partial *engine.PartialError
	if !errors.As(err, &partial) {
		PrintError(err.Error())
		return
	}

	msg := fmt.Sprintf("%s failed for %s of %d", partial.Op, PrintCount(len(partial.Failures), "file", "files"), partial.Total)
	if partial.Target != "" {
		msg = fmt.Sprintf("%s %q failed for %s of %d", partial.Op, partial.Target, PrintCount(len(partial.Failures), "file", "files"), partial.Total)
	}
	PrintError(msg)
	for _, f := range partial.Failures {
		PrintError("  " + f.Error())
	}

	// A save failure can be joined with the partial error.
	if errors.Is(err, engine.ErrStoreWriteError) {
		PrintError(engine.ErrStoreWriteError.Error())
	}
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	s, err := formatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, s)
	return err
}
