package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and seed the category catalog",
	Long:  `Create or update the database schema and insert any missing categories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, engine, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := engine.Seed(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Database migrations completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
