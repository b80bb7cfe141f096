package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/profswap/internal/engine"
	"github.com/danieljhkim/profswap/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show profiles and managed files",
	Long: `Display every profile and managed file. For each file, the source that should
be live is compared with what is actually on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var result *engine.StatusResult
		err := view(cmd, func(ctx context.Context, eng *engine.Engine, reg *state.Registry) error {
			var err error
			result, err = eng.Status(ctx, reg)
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintLabelValue("State", result.StateFile)

		PrintSection("Profiles")
		if len(result.Profiles) == 0 {
			PrintEmptyState("No profiles")
		}
		var rows [][]string
		for _, p := range result.Profiles {
			active := "no"
			if p.Active {
				active = activeColor.Sprint("yes")
			}
			rows = append(rows, []string{p.Name, active, PrintCount(p.Files, "file", "files")})
		}
		PrintTable([]string{"PROFILE", "ACTIVE", "FILES"}, rows)

		PrintSection("Files")
		if len(result.Files) == 0 {
			PrintEmptyState("No managed files")
		}
		rows = nil
		for _, f := range result.Files {
			rows = append(rows, []string{f.Path, f.Expected, liveLabel(f), strings.Join(f.Profiles, ",")})
		}
		PrintTable([]string{"PATH", "EXPECTED", "LIVE", "PROFILES"}, rows)
		return nil
	},
}

func liveLabel(f engine.FileStatus) string {
	switch f.Live {
	case engine.LiveOK:
		return string(f.Live)
	case engine.LiveModified:
		if f.Matches != "" {
			return warningColor.Sprintf("%s (is %s)", f.Live, f.Matches)
		}
		return warningColor.Sprint(string(f.Live))
	default:
		return errorColor.Sprint(string(f.Live))
	}
}
