package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"faqbot/internal/app"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewIndexing
	ViewChat
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.p != nil {
		r.p.Send(msg)
	}
}

// Config holds what the CLI layer prepared.
type Config struct {
	// App is nil when the runtime could not be built; Disabled then says why.
	App      *app.App
	Disabled error
	K        int

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	indexing indexingModel
	chat     chatModel
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:   ViewWelcome,
		config:  cfg,
		welcome: welcomeModel{disabled: cfg.Disabled},
	}
}

func (m Model) Init() tea.Cmd {
	if m.config.App == nil {
		return nil
	}
	return checkIndex(m.config.App)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewChat {
			var c tea.Cmd
			m.chat, c = m.chat.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewChat {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
			if m.welcome.disabled != nil {
				return m, tea.Quit
			}
			if !m.welcome.ready {
				return m, nil
			}
			rebuild := m.welcome.status == indexStale
			m.state = ViewIndexing
			m.indexing = newIndexingModel(rebuild)
			return m, tea.Batch(m.indexing.spinner.Tick, runIndex(m.config, rebuild))
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if done, ok := msg.(indexDoneMsg); ok && done.err == nil && done.stats.FromSnapshot {
			return m, m.transitionToChat()
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.finished {
			if m.indexing.err != nil {
				return m, tea.Quit
			}
			return m, m.transitionToChat()
		}

	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToChat() tea.Cmd {
	m.chat = newChatModel(m.config)
	m.chat.initViewport(m.width, m.height)
	m.state = ViewChat
	return nil
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewChat:
		return m.chat.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
