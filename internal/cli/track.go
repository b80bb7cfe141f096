package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
)

var trackCmd = &cobra.Command{
	Use:   "track <file>",
	Short: "Start managing a file without adding it to a profile",
	Long:  `Keep the current content of <file> as its original.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFile(args[0])
		if err != nil {
			return err
		}

		var result *engine.AddFileResult
		err = update(cmd, func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error {
			var err error
			result, err = eng.AddFile(ctx, txn, &engine.AddFileRequest{Path: path})
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if !result.Added {
			PrintWarning(fmt.Sprintf("Already managing %s", result.Path))
			return nil
		}
		PrintSuccess(fmt.Sprintf("Now managing %s", result.Path))
		return nil
	},
}
