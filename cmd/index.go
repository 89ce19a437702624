package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"faqbot/internal/app"
)

var (
	flagRebuild bool
	flagClear   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the FAQ index, or report on the saved one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if flagClear {
			if err := a.Indexer.Clear(ctx); err != nil {
				return err
			}
			fmt.Printf("Cleared saved index at %s\n", a.Indexer.SnapshotPath())
			return nil
		}

		fmt.Printf("Indexing %s and %s...\n", cfg.Corpus.FAQPath, cfg.Corpus.DocsDir)

		open := a.Open
		if flagRebuild {
			open = a.Rebuild
		}
		stats, err := open(ctx, stderrProgress())
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		verb := "Built"
		if stats.FromSnapshot {
			verb = "Loaded saved index"
		}
		fmt.Printf("\n%s in %s\n", verb, stats.Elapsed.Round(time.Millisecond))
		fmt.Printf("  Documents: %d\n", stats.Documents)
		fmt.Printf("  Chunks:    %d\n", stats.Chunks)
		fmt.Printf("  Backend:   %s\n", stats.Backend)
		fmt.Printf("  Model:     %s\n", stats.Model)
		fmt.Printf("  Built at:  %s\n", stats.BuiltAt.Local().Format(time.RFC1123))
		fmt.Printf("  Snapshot:  %s\n", a.Indexer.SnapshotPath())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagRebuild, "rebuild", false, "re-embed the corpus even if a saved index exists")
	indexCmd.Flags().BoolVar(&flagClear, "clear", false, "delete the saved index and exit")
	indexCmd.MarkFlagsMutuallyExclusive("rebuild", "clear")
	rootCmd.AddCommand(indexCmd)
}
