package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"faqbot/internal/app"
	"faqbot/internal/domain"
)

type indexStatus int

const (
	indexNotFound indexStatus = iota
	indexReady
	indexStale
)

type welcomeModel struct {
	disabled      error
	status        indexStatus
	staleReason   string
	chunks        int
	missingModels []string
	ollamaErr     error
	err           error
	ready         bool // true once the check has completed
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status        indexStatus
	staleReason   string
	chunks        int
	missingModels []string
	ollamaErr     error
	err           error
}

func checkIndex(a *app.App) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var msg checkIndexMsg
		msg.missingModels, msg.ollamaErr = a.MissingOllamaModels(ctx)

		info, err := a.Info(ctx)
		switch {
		case errors.Is(err, domain.ErrNoSnapshot):
			msg.status = indexNotFound
		case err != nil:
			msg.err = err
		case info.Model != a.Embedder.Model():
			msg.status = indexStale
			msg.staleReason = fmt.Sprintf("model changed: %s → %s", info.Model, a.Embedder.Model())
		default:
			msg.status = indexReady
			msg.chunks = info.ChunkCount
		}
		return msg
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkIndexMsg:
		m.status = msg.status
		m.staleReason = msg.staleReason
		m.chunks = msg.chunks
		m.missingModels = msg.missingModels
		m.ollamaErr = msg.ollamaErr
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ faqbot") + "\n"
	s += subtitleStyle.Render("  Insurance FAQ assistant grounded in your documents") + "\n\n"

	if m.disabled != nil {
		s += warnStyle.Render("  ⚠ Chat disabled") + "\n"
		s += dimStyle.Render("    "+m.disabled.Error()) + "\n\n"
		s += dimStyle.Render("  Set the key in your environment or .env file, then restart.") + "\n"
		s += dimStyle.Render("  Press Enter or q to quit") + "\n"
		return s
	}

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch {
	case m.err != nil:
		s += errorStyle.Render("  ✗ "+m.err.Error()) + "\n"
	case m.status == indexReady:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d chunks)", m.chunks)) + "\n"
	case m.status == indexNotFound:
		s += warnStyle.Render("  ✗ No index found, it will be built now") + "\n"
	case m.status == indexStale:
		s += warnStyle.Render("  ⚠ Index stale, it will be rebuilt") + "\n"
		s += dimStyle.Render("    "+m.staleReason) + "\n"
	}

	if m.ollamaErr != nil {
		s += warnStyle.Render("  ⚠ Ollama unreachable: "+m.ollamaErr.Error()) + "\n"
	} else if len(m.missingModels) > 0 {
		s += warnStyle.Render("  ⚠ Ollama models not installed: "+strings.Join(m.missingModels, ", ")) + "\n"
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to continue") + "\n"
	return s
}
