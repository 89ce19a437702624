package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"faqbot/internal/config"
)

var flagForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to faqbot.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.DefaultPath
		}
		if _, err := os.Stat(path); err == nil && !flagForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		if cfg.NeedsCredential() {
			if _, ok := cfg.Credential(); !ok {
				fmt.Printf("Set %s (or add it to .env) before indexing.\n", cfg.OpenAI.APIKeyEnv)
			}
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
