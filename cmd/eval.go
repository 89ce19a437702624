package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faqbot/internal/eval"
)

var flagEvalJSON bool

var errEvalFailed = errors.New("evaluation failed")

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the accuracy and hallucination checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, stderrProgress())
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		results := eval.Run(ctx, a.Answerer(0))
		passed := eval.Passed(results)
		logger.Info("evaluation finished", zap.Int("passed", passed), zap.Int("total", len(results)))

		if flagEvalJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		} else {
			printResults(results)
			fmt.Printf("\n%d/%d scenarios passed\n", passed, len(results))
		}

		if passed != len(results) {
			return fmt.Errorf("%w: %d of %d scenarios failed", errEvalFailed, len(results)-passed, len(results))
		}
		return nil
	},
}

func printResults(results []eval.Result) {
	pass := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	fail := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Scenario", "Expectation", "Result", "Detail")
	for _, r := range results {
		status := fail.Render("FAIL")
		if r.Passed {
			status = pass.Render("PASS")
		}
		t.Row(r.Name, r.Expectation, status, r.Detail)
	}
	fmt.Println(t.Render())
}

func init() {
	evalCmd.Flags().BoolVar(&flagEvalJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(evalCmd)
}
