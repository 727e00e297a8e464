package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/waterprint/waterprint/internal/report"
	"golang.org/x/sync/errgroup"
)

var exportFlags struct {
	UserID  uint
	Formats []string
	Output  string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's footprint report",
	Example: `waterprint export --user 1 --format csv
waterprint export --user 1 --format csv,pdf,chart --output ./reports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFlags.UserID == 0 {
			return fmt.Errorf("--user is required")
		}

		formats := make([]report.Format, 0, len(exportFlags.Formats))
		for _, f := range exportFlags.Formats {
			format, err := report.ParseFormat(f)
			if err != nil {
				return err
			}
			formats = append(formats, format)
		}
		formats = lo.Uniq(formats)

		if err := os.MkdirAll(exportFlags.Output, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		_, _, engine, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		g, ctx := errgroup.WithContext(cmd.Context())
		for _, format := range formats {
			g.Go(func() error {
				artifact, err := engine.Export(ctx, exportFlags.UserID, format)
				if err != nil {
					return fmt.Errorf("%s: %w", format, err)
				}
				path := filepath.Join(exportFlags.Output, artifact.Filename)
				if err := os.WriteFile(path, artifact.Data, 0o644); err != nil { //nolint:gosec
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				log.Info("report written", "format", format, "file", path)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	exportCmd.Flags().UintVarP(&exportFlags.UserID, "user", "u", 0, "ID of the user to export")
	exportCmd.Flags().StringSliceVarP(&exportFlags.Formats, "format", "f", []string{string(report.FormatCSV)},
		"Export formats: "+strings.Join(lo.Map(report.Formats, func(f report.Format, _ int) string { return string(f) }), ", "))
	exportCmd.Flags().StringVarP(&exportFlags.Output, "output", "o", ".", "Directory to write the reports to")
	rootCmd.AddCommand(exportCmd)
}
