package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"guidesearch/internal/ingest"
	"guidesearch/internal/mirror"
)

type syncModel struct {
	spinner spinner.Model
	phase   string
	done    bool
	mirror  *mirror.Result
	stats   *ingest.Stats
	err     error
}

func newSyncModel() syncModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return syncModel{
		spinner: sp,
		phase:   "Checking the guideline library...",
	}
}

// syncDoneMsg is sent when the mirror sync and indexing pass complete.
type syncDoneMsg struct {
	mirror *mirror.Result
	stats  *ingest.Stats
	err    error
}

func runSync(cfg Config) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		result, err := cfg.Synchronizer.Sync(ctx)
		if err != nil {
			return syncDoneMsg{err: err}
		}

		stats, err := cfg.Pipeline.Run(ctx, result.Documents)
		if err != nil {
			return syncDoneMsg{mirror: result, err: err}
		}

		return syncDoneMsg{mirror: result, stats: stats}
	}
}

func (m syncModel) Update(msg tea.Msg) (syncModel, tea.Cmd) {
	switch msg := msg.(type) {
	case syncDoneMsg:
		m.done = true
		m.mirror = msg.mirror
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m syncModel) failureCount() int {
	n := 0
	if m.mirror != nil {
		n += len(m.mirror.Failed)
	}
	if m.stats != nil {
		n += len(m.stats.Failures)
	}
	return n
}

func (m syncModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Guideline Library Sync") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press Enter to search the existing index, or q to quit.") + "\n"
			return s
		}
		if n := m.failureCount(); n > 0 {
			s += warnStyle.Render(fmt.Sprintf("  Sync finished with %d failure(s)", n)) + "\n\n"
		} else {
			s += successStyle.Render("  ✓ Library is current!") + "\n\n"
		}
		if m.mirror != nil {
			if m.mirror.UpToDate {
				s += "  Mirror already up to date\n"
			} else {
				s += fmt.Sprintf("  Downloaded: %d document(s)\n", len(m.mirror.Transferred))
			}
			for _, f := range m.mirror.Failed {
				s += warnStyle.Render(fmt.Sprintf("  download failed: %s", f.Name)) + "\n"
			}
		}
		if m.stats != nil {
			s += fmt.Sprintf("  Documents: %d total, %d indexed, %d skipped\n",
				m.stats.Total, m.stats.Ingested, m.stats.Skipped)
			s += fmt.Sprintf("  Chunks: %d\n", m.stats.Chunks)
			for _, f := range m.stats.Failures {
				s += warnStyle.Render(fmt.Sprintf("  index failed: %s", f.Source)) + "\n"
			}
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start searching") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	s += "\n"
	s += dimStyle.Render("  First run downloads and embeds the whole library...") + "\n"
	return s
}
