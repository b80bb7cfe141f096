package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
)

var activateExclusive bool

var activateCmd = &cobra.Command{
	Use:   "activate <profile>",
	Short: "Install a profile's variants",
	Long: `Install the variant of every file managed by <profile> and make it the most
recently activated profile. Where several active profiles manage the same
file, the most recently activated one wins.

With --exclusive, every other active profile is deactivated first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result *engine.ActivateResult
		err := update(cmd, func(ctx context.Context, eng *engine.Engine, txn *engine.Txn) error {
			var err error
			result, err = eng.Activate(ctx, txn, &engine.ActivateRequest{
				Profile:   args[0],
				Exclusive: activateExclusive,
			})
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

		if len(result.Deactivated) > 0 {
			PrintInfo(fmt.Sprintf("Deactivated %s", strings.Join(result.Deactivated, ", ")))
		}
		PrintSuccess(fmt.Sprintf("Activated %q (%s installed)", result.Profile, PrintCount(len(result.Installed), "file", "files")))
		return err
	},
}

func init() {
	activateCmd.Flags().BoolVar(&activateExclusive, "exclusive", false, "Deactivate every other active profile first")
}
