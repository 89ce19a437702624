package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faqbot/internal/app"
	"faqbot/internal/config"
	"faqbot/internal/domain"
	"faqbot/internal/logging"
)

var (
	flagConfig  string
	flagBackend string
	flagVerbose bool
)

// Loaded by PersistentPreRunE for every subcommand.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "faqbot",
	Short:         "Insurance FAQ assistant grounded in your documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(); err != nil {
			return err
		}

		var err error
		if flagConfig != "" {
			cfg, err = config.Load(flagConfig)
		} else {
			cfg, _, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagBackend != "" {
			cfg.Retrieval.Backend = flagBackend
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		opts := logging.Options{
			File:       cfg.Log.File,
			Level:      cfg.Log.Level,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}
		if flagVerbose {
			opts.Console = os.Stderr
		}
		logger, err = logging.New(opts)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

// Execute runs the root command. A feature disabled by missing
// configuration is reported and exits cleanly; any other error exits 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if domain.IsDisabled(err) {
			fmt.Fprintf(os.Stderr, "faqbot: %v (feature disabled)\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "faqbot: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// openApp builds the runtime and loads (or builds) the index.
func openApp(ctx context.Context, onProgress func(stage string, done, total int)) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	stats, err := a.Open(ctx, onProgress)
	if err != nil {
		_ = a.Close()
		var stale *domain.StaleSnapshotError
		if errors.As(err, &stale) {
			return nil, fmt.Errorf("%w\nRun 'faqbot index --rebuild' to re-embed the corpus", err)
		}
		return nil, err
	}
	logger.Info("index ready",
		zap.Int("chunks", stats.Chunks),
		zap.String("backend", stats.Backend),
		zap.Bool("from_snapshot", stats.FromSnapshot),
	)
	return a, nil
}

// stderrProgress returns a progress callback that redraws the current
// stage on one stderr line and starts a new line when the stage changes.
func stderrProgress() func(stage string, done, total int) {
	last := ""
	return func(stage string, done, total int) {
		if last != "" && stage != last {
			fmt.Fprintln(os.Stderr)
		}
		last = stage
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d", stage, done, total)
			return
		}
		fmt.Fprintf(os.Stderr, "\r%s", stage)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./faqbot.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "index backend: auto, sqlite-vec or bruteforce")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "also log to stderr")
}
