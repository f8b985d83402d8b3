package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/ui/report"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Show the rarity profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return report.Profiles(cmd.OutOrStdout(), rarity.All())
	},
}
