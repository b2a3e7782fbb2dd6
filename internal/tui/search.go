package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"guidesearch/internal/search"
)

type searchState int

const (
	searchIdle searchState = iota
	searchRunning
)

type searchModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	entries     []searchEntry
	config      Config
	state       searchState
	width       int
	height      int
	initialized bool
}

type searchEntry struct {
	role    string
	content string
}

// resultsMsg is sent when a query completes.
type resultsMsg struct {
	query string
	resp  *search.Response
	err   error
}

func newSearchModel(cfg Config) searchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Search the guideline library, or type 'list'..."
	ti.CharLimit = 500
	ti.Focus()

	return searchModel{
		spinner: sp,
		input:   ti,
		config:  cfg,
		state:   searchIdle,
	}
}

func (m *searchModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + gap (1 line).
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Search the guideline library.\n\nType a clinical topic and press Enter, 'list' to see every document, or /exit to quit."))

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func runQuery(cfg Config, query string) tea.Cmd {
	return func() tea.Msg {
		resp, err := cfg.Engine.Query(context.Background(), query)
		return resultsMsg{query: query, resp: resp, err: err}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.viewport.SetContent(m.renderEntries())
		m.viewport.GotoBottom()
		return m, nil

	case resultsMsg:
		m.state = searchIdle
		switch {
		case errors.Is(msg.err, search.ErrNoResults):
			m.entries = append(m.entries, searchEntry{role: "system", content: "No matching guideline excerpts found."})
		case msg.err != nil:
			m.entries = append(m.entries, searchEntry{role: "error", content: msg.err.Error()})
		case msg.resp.Listing != nil:
			m.entries = append(m.entries, searchEntry{role: "results", content: m.formatListing(msg.resp.Listing)})
		default:
			m.entries = append(m.entries, searchEntry{role: "results", content: m.formatResults(msg.resp.Results)})
		}
		m.viewport.SetContent(m.renderEntries())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.state != searchIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.viewport.SetContent(m.renderEntries())
			m.viewport.GotoBottom()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.state != searchIdle {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.input.Reset()

			switch query {
			case "/exit", "/quit":
				return m, tea.Quit
			case "/clear":
				m.entries = nil
				m.viewport.SetContent(dimStyle.Render("Cleared."))
				return m, nil
			}

			m.entries = append(m.entries, searchEntry{role: "query", content: query})
			m.state = searchRunning
			m.viewport.SetContent(m.renderEntries())
			m.viewport.GotoBottom()

			return m, tea.Batch(m.spinner.Tick, runQuery(m.config, query))
		}
	}

	// Update text input.
	if m.state == searchIdle {
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

func (m searchModel) formatResults(results []search.ScoredDocument) string {
	var sb strings.Builder
	for i, r := range results {
		name := search.DisplayName(r.Chunk.Source)
		url := search.DocumentURL(m.config.AccountURL, m.config.Container, r.Chunk.Source)
		fmt.Fprintf(&sb, "### %d. %s\n\n", i+1, name)
		fmt.Fprintf(&sb, "[Open document](%s) · page %d\n\n", url, r.Chunk.Page+1)
		fmt.Fprintf(&sb, "> %s\n\n", flatten(r.Chunk.Content, 400))
	}
	return sb.String()
}

func (m searchModel) formatListing(names []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### Indexed guidelines (%d)\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	return sb.String()
}

func flatten(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return string(runes[:max]) + "..."
}

func (m searchModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return resultStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return resultStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m searchModel) renderEntries() string {
	var sb strings.Builder
	for _, entry := range m.entries {
		switch entry.role {
		case "query":
			sb.WriteString(queryStyle.Render("You: ") + entry.content + "\n\n")
		case "results":
			sb.WriteString(m.renderMarkdown(entry.content) + "\n\n")
		case "error":
			sb.WriteString(errorStyle.Render("Error: "+entry.content) + "\n\n")
		case "system":
			sb.WriteString(dimStyle.Render(entry.content) + "\n\n")
		}
	}

	if m.state != searchIdle {
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render("Searching...") + "\n")
	}

	return sb.String()
}

func (m searchModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	if m.state == searchRunning {
		statusText = "searching..."
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" guidesearch • %s", statusText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
