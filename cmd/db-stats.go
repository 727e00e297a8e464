package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the number of users and entries and the cached footprint statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, _, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := db.GetPopulationStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(stats.Users))
		fmt.Printf("Entries: %s\n", humanize.Comma(stats.Entries))
		fmt.Printf("Average Footprint: %s liters\n", humanize.Commaf(stats.AverageFootprint))
		fmt.Printf("Lowest Footprint: %s liters\n", humanize.Commaf(stats.MinFootprint))
		fmt.Printf("Highest Footprint: %s liters\n", humanize.Commaf(stats.MaxFootprint))
		fmt.Println("\nFootprints are cached values, run `waterprint recompute` to refresh them.")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
