package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"faqbot/internal/domain"
)

var (
	flagK    int
	flagJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and print its sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, stderrProgress())
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		question := strings.Join(args, " ")
		ans, err := a.Answerer(flagK).Answer(ctx, question)
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ans)
		}

		fmt.Println(ans.Text)
		printSourceIDs(ans.Sources)
		return nil
	},
}

// printSourceIDs lists the documents an answer was grounded on.
func printSourceIDs(sources []domain.SourceRef) {
	if len(sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Sources:")
	for _, s := range sources {
		fmt.Printf("  - %s (%s)\n", s.ID, s.Source)
	}
}

func init() {
	askCmd.Flags().IntVar(&flagK, "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&flagJSON, "json", false, "print the answer and sources as JSON")
	rootCmd.AddCommand(askCmd)
}
