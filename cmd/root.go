package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/waterprint/waterprint/internal/config"
	"github.com/waterprint/waterprint/internal/database"
	"github.com/waterprint/waterprint/internal/engine"
)

// version is set at build time with -ldflags "-X github.com/waterprint/waterprint/cmd.version=...".
var version = "dev"

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.waterprint, /etc/waterprint)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:   "waterprint",
	Short: "Waterprint tracks water usage and reports your water footprint",
	Long:  `Waterprint records categorized consumption (showers, laundry, food, clothing, ...) and converts it into liters of water, with CSV, PDF and chart reports.`,
	Example: `waterprint --config config.yml
  waterprint -c /path/to/config.yml --log-level debug
  waterprint export --user 1 --format pdf`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile()
	},
	RunE: startServer,
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	// Create a multi-writer that writes to both console and file
	multiWriter := io.MultiWriter(os.Stderr, file)
	log.SetOutput(multiWriter)
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

// setup loads the config, opens the database and creates the engine.
// The returned cleanup closes both.
func setup() (*config.Config, database.DB, *engine.Engine, func(), error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	eng, err := engine.New(cfg, db)
	if err != nil {
		db.Close() //nolint: errcheck
		return nil, nil, nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	cleanup := func() {
		if err := eng.Close(); err != nil {
			log.Warn("failed to stop engine", "error", err)
		}
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
	return cfg, db, eng, cleanup, nil
}

func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd, fang.WithVersion(version))
}
