package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
)

var deactivateAll bool

var deactivateCmd = &cobra.Command{
	Use:   "deactivate [<profile>]",
	Short: "Switch a profile off and restore its files",
	Long: `Switch <profile> off. Each of its files gets the variant of the most recently
activated profile still active, or its original.

With --all, every profile is switched off and every managed file is restored
to its original.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if deactivateAll == (len(args) == 1) {
			return errors.New("specify either a profile or --all")
		}

		var result *engine.DeactivateResult
		err := update(cmd, func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error {
			var err error
			if deactivateAll {
				result, err = eng.DeactivateAll(ctx, txn)
			} else {
				result, err = eng.Deactivate(ctx, txn, &engine.DeactivateRequest{Profile: args[0]})
			}
			return err
		})
		if !committed(err) {
			return err
		}

		if jsonOutput {
			if jerr := outputJSON(result); jerr != nil {
				return jerr
			}
			return err
		}

		switch {
		case result.AlreadyInactive && !deactivateAll:
			PrintWarning(fmt.Sprintf("Profile %q is not active", args[0]))
		case len(result.Profiles) == 0:
			PrintSuccess(fmt.Sprintf("Restored originals (%s)", PrintCount(len(result.Installed), "file", "files")))
		default:
			PrintSuccess(fmt.Sprintf("Deactivated %s (%s restored)", strings.Join(result.Profiles, ", "), PrintCount(len(result.Installed), "file", "files")))
		}
		return err
	},
}

func init() {
	deactivateCmd.Flags().BoolVar(&deactivateAll, "all", false, "Deactivate every profile and restore all originals")
}
