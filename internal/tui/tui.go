package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"guidesearch/internal/ingest"
	"guidesearch/internal/mirror"
	"guidesearch/internal/search"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewSync ViewState = iota
	ViewSearch
)

// Config holds the collaborators built by the CLI layer.
type Config struct {
	Synchronizer *mirror.Synchronizer
	Pipeline     *ingest.Pipeline
	Engine       *search.Engine
	AccountURL   string
	Container    string
}

// Model is the top-level Bubble Tea model. The sync screen runs first; once
// the mirror and index are current the search screen takes over.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	sync   syncModel
	search searchModel
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewSync,
		config: cfg,
		sync:   newSyncModel(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sync.spinner.Tick, runSync(m.config))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewSearch {
			var c tea.Cmd
			m.search, c = m.search.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewSearch {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewSync:
		m.sync, cmd = m.sync.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		// Enter moves on once syncing finished, even after a partial failure.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.sync.done {
			m.search = newSearchModel(m.config)
			m.search.initViewport(m.width, m.height)
			m.state = ViewSearch
			return m, nil
		}

	case ViewSearch:
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case ViewSync:
		return m.sync.View(m.width, m.height)
	case ViewSearch:
		return m.search.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
