package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var (
	verbose bool
	timeout time.Duration

	logger *slog.Logger
	cfg    *common.Config

	// swapped in tests to avoid loading an OCR engine and to pin the clock
	newImporter = pipeline.FromConfig
	now         = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "shift-import",
	Short: "Import work-shift calendars from photos, PDFs or text",
	Long: `shift-import reads a monthly shift calendar (photo, screenshot, PDF roster or
pasted text), reconciles it into one shift per day and optionally stores the
result in the shifts database.

Configuration comes from the environment (and a .env file): DB_DRIVER, DB_URL,
OCR_ENGINE, OCR_LANGUAGES, VISION_PROVIDER, VISION_API_KEY, ...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cfg = common.LoadConfig()
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(jobsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// openStore connects to the configured database and creates missing tables.
func openStore(ctx context.Context) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.ConfigFromCommon(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, err
	}
	return db, nil
}
