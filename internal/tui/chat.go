package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"faqbot/internal/domain"
	"faqbot/internal/index"
	"faqbot/internal/rag"
	"faqbot/internal/session"
)

type chatState int

const (
	chatIdle chatState = iota
	chatAnswering
	chatRebuilding
)

const helpText = "Commands:\n  /1../5   - ask a suggested question\n  /sources - show sources of the last answer\n  /rebuild - re-index the documents\n  /clear   - clear conversation history\n  /exit    - quit\n  /help    - show this help"

type chatModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	messages    []chatMessage
	session     *session.Session
	pending     string
	config      Config
	state       chatState
	width       int
	height      int
	initialized bool
}

type chatMessage struct {
	role    string
	content string
	sources []domain.SourceRef
}

// answerMsg is sent when a RAG query completes.
type answerMsg struct {
	answer rag.Answer
	err    error
}

// rebuildMsg is sent when an in-chat rebuild completes.
type rebuildMsg struct {
	stats *index.Stats
	err   error
}

func newChatModel(cfg Config) chatModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Ask about deductibles, copays, coverage..."
	ti.CharLimit = 2000
	ti.Focus()

	return chatModel{
		spinner: sp,
		input:   ti,
		session: session.New(),
		config:  cfg,
		state:   chatIdle,
	}
}

func (m *chatModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + borders/gaps (1 line).
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(m.renderMessages())

	m.input.Width = width - 4

	// Create glamour renderer matched to current width.
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func askQuestion(cfg Config, sess *session.Session, question string) tea.Cmd {
	previous := sess.LastQuestion()
	return func() tea.Msg {
		ans, err := cfg.App.Answerer(cfg.K).AnswerFollowUp(context.Background(), question, previous)
		return answerMsg{answer: ans, err: err}
	}
}

func rebuildIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		stats, err := cfg.App.Rebuild(context.Background(), nil)
		return rebuildMsg{stats: stats, err: err}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case answerMsg:
		m.state = chatIdle
		if msg.err != nil {
			m.messages = append(m.messages, errorMessage(msg.err))
		} else {
			m.messages = append(m.messages, chatMessage{role: "assistant", content: msg.answer.Text, sources: msg.answer.Sources})
			// Only answered turns enter the history replayed to the model.
			m.session.AddUser(m.pending)
			m.session.AddAssistant(msg.answer.Text, msg.answer.Sources)
		}
		m.refresh()
		return m, nil

	case rebuildMsg:
		m.state = chatIdle
		if msg.err != nil {
			m.messages = append(m.messages, errorMessage(msg.err))
		} else {
			m.messages = append(m.messages, chatMessage{role: "system", content: fmt.Sprintf(
				"Index rebuilt: %d chunks from %d documents (%s).", msg.stats.Chunks, msg.stats.Documents, msg.stats.Backend)})
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.state != chatIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			// Re-render viewport so the spinner frame updates.
			m.refresh()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.state != chatIdle {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()

			switch question {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/clear":
				m.messages = nil
				m.session.Reset()
				m.refresh()
				return m, nil
			case "/help":
				m.messages = append(m.messages, chatMessage{role: "help", content: helpText})
				m.refresh()
				return m, nil
			case "/sources":
				m.messages = append(m.messages, chatMessage{role: "system", content: formatSources(m.session.LastSources())})
				m.refresh()
				return m, nil
			case "/rebuild":
				m.state = chatRebuilding
				m.refresh()
				return m, tea.Batch(m.spinner.Tick, rebuildIndex(m.config))
			}

			if suggested, ok := session.PickSuggestion(question); ok {
				question = suggested
			}
			cmd := askQuestion(m.config, m.session, question)
			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.pending = question
			m.state = chatAnswering
			m.refresh()

			return m, tea.Batch(m.spinner.Tick, cmd)
		}
	}

	// Update text input.
	if m.state == chatIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update viewport (scrolling).
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func errorMessage(err error) chatMessage {
	if domain.IsDisabled(err) {
		return chatMessage{role: "disabled", content: err.Error()}
	}
	return chatMessage{role: "error", content: err.Error()}
}

func formatSources(sources []domain.SourceRef) string {
	if len(sources) == 0 {
		return "No sources for the last answer."
	}
	var sb strings.Builder
	sb.WriteString("Sources:")
	for i, s := range sources {
		text := strings.Join(strings.Fields(s.Text), " ")
		fmt.Fprintf(&sb, "\n  %d. [doc: %s] %s\n     %s", i+1, s.ID, s.Source, text)
	}
	return sb.String()
}

func (m chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return assistantMsgStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return assistantMsgStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func emptyState() string {
	return dimStyle.Render("Ask a question about insurance concepts and policies.") + "\n\n" +
		subtitleStyle.Render("Suggested questions (by topic):") + "\n" +
		helpStyle.Render(session.SuggestionList()) + "\n\n" +
		dimStyle.Render("Commands: /help, /sources, /rebuild, /clear, /exit")
}

func (m chatModel) renderMessages() string {
	if len(m.messages) == 0 && m.state == chatIdle {
		return emptyState()
	}
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userMsgStyle.Render("You: ") + msg.content + "\n\n")
		case "assistant":
			sb.WriteString(m.renderMarkdown(msg.content) + "\n")
			if len(msg.sources) > 0 {
				ids := make([]string, len(msg.sources))
				for i, s := range msg.sources {
					ids[i] = s.ID
				}
				sb.WriteString(sourceStyle.Render("Sources: "+strings.Join(ids, ", ")) + "\n")
			}
			sb.WriteString("\n")
		case "disabled":
			sb.WriteString(warnStyle.Render("Disabled: "+msg.content) + "\n\n")
		case "error":
			sb.WriteString(errorStyle.Render("Error: "+msg.content) + "\n\n")
		case "system":
			sb.WriteString(dimStyle.Render(msg.content) + "\n\n")
		case "help":
			sb.WriteString(helpStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.state != chatIdle {
		label := "Thinking..."
		if m.state == chatRebuilding {
			label = "Rebuilding index..."
		}
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render(label) + "\n")
	}

	return sb.String()
}

func (m chatModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	switch m.state {
	case chatAnswering:
		statusText = "answering..."
	case chatRebuilding:
		statusText = "rebuilding..."
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" faqbot • %s • session %s • %d turns", statusText, m.session.ID().String()[:8], m.session.Len()))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
