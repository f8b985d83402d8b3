package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/store"
	"github.com/abhisek/celebrate/internal/ui/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent render jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		tier, _ := cmd.Flags().GetString("tier")
		runID, _ := cmd.Flags().GetString("run")

		if tier != "" {
			t, err := rarity.ParseTier(tier)
			if err != nil {
				return err
			}
			tier = string(t)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.JobRepo().Recent(cmd.Context(), store.QueryOpts{
			Limit: limit,
			Tier:  tier,
			RunID: runID,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		return report.History(cmd.OutOrStdout(), events)
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	historyCmd.Flags().String("tier", "", "Only show this tier")
	historyCmd.Flags().String("run", "", "Only show this run ID")
}
