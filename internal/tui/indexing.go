package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"faqbot/internal/domain"
	"faqbot/internal/index"
)

type indexingModel struct {
	spinner spinner.Model
	phase   string
	done    int
	total   int
	rebuild bool
	stats   *index.Stats
	err     error
	// finished is true once Open or Rebuild returned.
	finished bool
}

func newIndexingModel(rebuild bool) indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{
		spinner: sp,
		phase:   "Preparing index...",
		rebuild: rebuild,
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *index.Stats
	err   error
}

// indexProgressMsg is sent periodically during indexing.
type indexProgressMsg struct {
	phase string
	done  int
	total int
}

func runIndex(cfg Config, rebuild bool) tea.Cmd {
	return func() tea.Msg {
		progress := func(phase string, done, total int) {
			cfg.program.send(indexProgressMsg{phase: phase, done: done, total: total})
		}
		ctx := context.Background()
		var (
			stats *index.Stats
			err   error
		)
		if rebuild {
			stats, err = cfg.App.Rebuild(ctx, progress)
		} else {
			stats, err = cfg.App.Open(ctx, progress)
		}
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.finished = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		m.phase = msg.phase
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + "\n\n"

	if m.finished {
		if m.err != nil {
			if domain.IsDisabled(m.err) {
				s += warnStyle.Render(fmt.Sprintf("  Disabled: %v", m.err)) + "\n\n"
			} else {
				s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			}
			s += dimStyle.Render("  Press Enter or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Index ready!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Documents: %d\n", m.stats.Documents)
			s += fmt.Sprintf("  Chunks:    %d\n", m.stats.Chunks)
			s += fmt.Sprintf("  Backend:   %s\n", m.stats.Backend)
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start chatting") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.total > 0 {
		s += fmt.Sprintf("  %d / %d\n", m.done, m.total)
	}
	s += "\n"
	s += dimStyle.Render("  Embedding calls the configured service; this can take a moment.") + "\n"
	return s
}
