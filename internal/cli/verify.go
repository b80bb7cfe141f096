package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
	"github.com/danieljhkim/profswap/internal/state"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every stored snapshot against its checksum",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var result *engine.VerifyResult
		err := view(cmd, func(ctx context.Context, eng *engine.Engine, reg *state.Registry) error {
			var err error
			result, err = eng.Verify(ctx, reg)
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(result); err != nil {
				return err
			}
		} else if len(result.Failures) == 0 {
			PrintSuccess(fmt.Sprintf("%s verified", PrintCount(result.Checked, "snapshot", "snapshots")))
		}

		if len(result.Failures) == 0 {
			return nil
		}
		if !jsonOutput {
			for _, f := range result.Failures {
				source := f.Profile
				if source == "" {
					source = engine.OriginalSource
				}
				PrintError(fmt.Sprintf("%s [%s]: %v", f.Path, source, f.Err))
			}
		}
		return fmt.Errorf("%d of %d snapshots failed verification", len(result.Failures), result.Checked)
	},
}
