package cmd

import (
	"context"

	"faqbot/internal/app"
	"faqbot/internal/domain"
	"faqbot/internal/tui"
)

// runTUI starts the interactive UI. A missing credential is shown on the
// welcome screen instead of failing the command.
func runTUI(ctx context.Context) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil && !domain.IsDisabled(err) {
		return err
	}
	if a != nil {
		defer a.Close()
	}
	return tui.Run(tui.Config{
		App:      a,
		Disabled: err,
	})
}
