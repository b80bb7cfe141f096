package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
)

var removeCmd = &cobra.Command{
	Use:   "remove <profile> <file>",
	Short: "Drop a file's variant from a profile",
	Long: `Drop the variant of <file> kept for <profile>. If that variant is live, the
variant of the next active profile, or the original, is installed instead.
A profile left without files is deleted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFile(args[1])
		if err != nil {
			return err
		}

		var result *engine.RemoveFromProfileResult
		err = update(cmd, func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error {
			var err error
			result, err = eng.RemoveFromProfile(ctx, txn, &engine.RemoveFromProfileRequest{
				Path:    path,
				Profile: args[0],
			})
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Removed %s from profile %q", result.Path, result.Profile))
		if result.Installed != "" {
			PrintLabelValue("Installed", result.Installed)
		}
		if result.ProfileRemoved {
			PrintInfo(fmt.Sprintf("Profile %q has no files left and was deleted", result.Profile))
		}
		return nil
	},
}
