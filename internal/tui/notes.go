package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

// noteSaver writes the notes record once typing pauses.
type noteSaver struct {
	ctx      context.Context
	binding  *binding.Binding[string]
	debounce *binding.Debouncer[string]

	mu   sync.Mutex
	last <-chan error
}

func newNoteSaver(ctx context.Context, b *binding.Binding[string]) *noteSaver {
	n := &noteSaver{ctx: ctx, binding: b}
	n.debounce = binding.NewDebouncer(binding.NotesQuietWindow, n.save)
	return n
}

func (n *noteSaver) save(text string) {
	ack := n.binding.Set(n.ctx, text)
	n.mu.Lock()
	n.last = ack
	n.mu.Unlock()
}

// flush saves any pending edit and waits for the latest write to land.
func (n *noteSaver) flush() error {
	n.debounce.Flush()
	n.mu.Lock()
	last := n.last
	n.mu.Unlock()
	if last == nil {
		return nil
	}
	return <-last
}

type notesModel struct {
	ctx     context.Context
	binding *binding.Binding[string]
	saver   *noteSaver
	area    textarea.Model
	synced  bool
	editing bool
}

func newNotesModel(ctx context.Context, s *store.Store, log *logger.Logger) notesModel {
	b := binding.New(s, store.KeyNotes, log)
	ta := textarea.New()
	ta.Placeholder = "Write something…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	return notesModel{
		ctx:     ctx,
		binding: b,
		saver:   newNoteSaver(ctx, b),
		area:    ta,
	}
}

func (n notesModel) mount() tea.Cmd {
	return awaitMount(n.binding.Key(), n.binding.Mount(n.ctx))
}

// sync copies the loaded record into the editor, once.
func (n *notesModel) sync() {
	if n.synced {
		return
	}
	if v, loaded := n.binding.Value(); loaded {
		n.area.SetValue(v)
		n.synced = true
	}
}

func (n *notesModel) setSize(w, h int) {
	n.area.SetWidth(max(10, w-8))
	n.area.SetHeight(max(3, h-6))
}

func (n *notesModel) focus() tea.Cmd {
	n.sync()
	n.editing = true
	return n.area.Focus()
}

func (n *notesModel) blur() {
	n.editing = false
	n.area.Blur()
}

func (n notesModel) close() error {
	return n.saver.flush()
}

func (n notesModel) update(msg tea.Msg) (notesModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return n, nil
	}
	if !n.editing {
		if km.String() == "enter" || km.String() == "i" {
			return n, n.focus()
		}
		return n, nil
	}
	if km.String() == "esc" {
		n.blur()
		return n, nil
	}

	before := n.area.Value()
	var cmd tea.Cmd
	n.area, cmd = n.area.Update(msg)
	if v := n.area.Value(); v != before {
		n.synced = true
		n.saver.debounce.Push(v)
	}
	return n, cmd
}

func (n notesModel) summary(st styles, w int) string {
	if !n.synced {
		return st.muted.Render("Loading…")
	}
	v := n.area.Value()
	if strings.TrimSpace(v) == "" {
		return st.muted.Render("No notes")
	}
	lines := strings.Split(v, "\n")
	if len(lines) > 4 {
		lines = append(lines[:4], "…")
	}
	for i, l := range lines {
		lines[i] = truncate(l, w)
	}
	return st.normalItem.Render(strings.Join(lines, "\n"))
}

func (n notesModel) view(st styles, width int) string {
	hint := "enter: edit"
	if n.editing {
		hint = "esc: stop editing"
	}
	if n.saver.debounce.Pending() {
		hint += "  " + st.warning.Render("unsaved")
	}
	return st.panel.Width(width - 4).Render(lipgloss.JoinVertical(lipgloss.Left,
		st.title.Render("Notes"),
		"",
		n.area.View(),
		"",
		st.muted.Render(hint),
	))
}
