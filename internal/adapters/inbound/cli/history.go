package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openkraft/archverify/internal/adapters/outbound/history"
	"github.com/openkraft/archverify/internal/adapters/outbound/tui"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show recent verification runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := projectDir(args)
			if err != nil {
				return err
			}
			entries, err := history.New().Load(absPath)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			if jsonOutput {
				return renderJSON(cmd, entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many runs (0 for all)")
	return cmd
}
