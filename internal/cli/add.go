package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
)

var addCmd = &cobra.Command{
	Use:   "add <profile> <file>",
	Short: "Capture a file's current content as a profile's variant",
	Long: `Capture the current content of <file> as the variant used when <profile> is
active. The file is managed first if it is not already, keeping its current
content as the original, and the profile is created if it does not exist.

Adding a file to a profile that already has it replaces the earlier variant.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveFile(args[1])
		if err != nil {
			return err
		}

		var result *engine.AddToProfileResult
		err = update(cmd, func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error {
			var err error
			result, err = eng.AddToProfile(ctx, txn, &engine.AddToProfileRequest{
				Path:    path,
				Profile: args[0],
				AutoAdd: true,
			})
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if len(result.Reapplied) > 0 {
			PrintInfo("Re-applied active profiles to:")
			PrintList(result.Reapplied, 1)
		}
		if result.FileAdded {
			PrintInfo(fmt.Sprintf("Now managing %s", result.Path))
		}
		if result.ProfileCreated {
			PrintInfo(fmt.Sprintf("Created profile %q", result.Profile))
		}
		verb := "Added"
		if result.Replaced {
			verb = "Updated"
		}
		PrintSuccess(fmt.Sprintf("%s %s in profile %q", verb, result.Path, result.Profile))
		return nil
	},
}
