package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute the cached footprint of every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, engine, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := engine.RecomputeAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to recompute footprints: %w", err)
		}

		fmt.Printf("Recomputed footprints of %d users\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}
