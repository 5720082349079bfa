package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/pokerstats/internal/services/statsclean"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <raw-export.csv> <cleaned.csv>",
		Short: "Convert a raw tracker export into uploadable percentages",
		Long: `clean reads a tracker export with hand and opportunity counts
(hands_vpip, hands_vpip_opportunity, ...) and writes one percentage column
per statistic, ready for "pokerstats import". Runs locally.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}

			summary, err := statsclean.Clean(in, out)
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("failed to clean %s: %w", args[0], err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(CleanResult{
				Input:   args[0],
				Output:  args[1],
				Read:    summary.Read,
				Written: summary.Written,
				Dropped: summary.Dropped,
			})
			return nil
		},
	}
}
