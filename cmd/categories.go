package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, engine, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		categories, err := engine.ListCategories(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLITERS PER UNIT\tUNIT")
		for _, c := range categories {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, humanize.Commaf(c.Factor), c.Unit)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
