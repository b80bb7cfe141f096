package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <file>",
	Short: "Stop managing a file and restore its original",
	Long: `Restore the original content of <file> and stop managing it. Every variant
of the file is discarded; its profiles are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFile(args[0])
		if err != nil {
			return err
		}

		var result *engine.RemoveFileResult
		err = update(cmd, func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error {
			var err error
			result, err = eng.RemoveFile(ctx, txn, &engine.RemoveFileRequest{Path: path})
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Restored and stopped managing %s", result.Path))
		return nil
	},
}
