package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/quote"
	"github.com/sadopc/nexus/internal/store"
)

type quoteMsg struct {
	quote store.QuoteCache
	err   error
}

type quoteModel struct {
	store   *store.Store
	current *store.QuoteCache
	loading bool
}

func newQuoteModel(s *store.Store) quoteModel {
	return quoteModel{store: s}
}

// due reports whether the shown quote has expired.
func (q quoteModel) due(now time.Time) bool {
	return !q.loading && q.current != nil && !quote.Fresh(q.current, now)
}

// load shows the stored quote while it is fresh and draws a new one otherwise.
func (q *quoteModel) load(ctx context.Context, now time.Time) tea.Cmd {
	q.loading = true
	s := q.store
	return func() tea.Msg {
		c, err := quote.Current(ctx, s, now)
		return quoteMsg{quote: c, err: err}
	}
}

func (q *quoteModel) refresh(ctx context.Context, now time.Time) tea.Cmd {
	q.loading = true
	s := q.store
	return func() tea.Msg {
		c, err := quote.Refresh(ctx, s, now)
		return quoteMsg{quote: c, err: err}
	}
}

func (q quoteModel) receive(msg quoteMsg) quoteModel {
	q.loading = false
	// Refresh still returns the drawn quote when storing it failed.
	if msg.quote.Quote != "" {
		c := msg.quote
		q.current = &c
	}
	return q
}

func (q quoteModel) view(st styles, w int) string {
	if q.current == nil {
		return st.muted.Render("Loading…")
	}
	text := lipgloss.NewStyle().Width(max(10, w)).Italic(true).Foreground(st.pal.fg).Render("“" + q.current.Quote + "”")
	author := q.current.Author
	if author == "" {
		author = "Unknown"
	}
	return lipgloss.JoinVertical(lipgloss.Left, text, st.muted.Render("- "+author))
}
