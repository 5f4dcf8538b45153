package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/ordering"
	"github.com/sadopc/nexus/internal/store"
)

type linksModel struct {
	ctx     context.Context
	binding *binding.Binding[[]store.QuickLink]
	cursor  int

	formActive bool
	form       *huh.Form
	editingID  string // empty when adding

	// Form values as pointers (survive value copies)
	title *string
	url   *string
}

func newLinksModel(ctx context.Context, s *store.Store, log *logger.Logger) linksModel {
	title, url := "", ""
	return linksModel{
		ctx:     ctx,
		binding: binding.New(s, store.KeyQuickLinks, log),
		title:   &title,
		url:     &url,
	}
}

func (l linksModel) mount() tea.Cmd {
	return awaitMount(l.binding.Key(), l.binding.Mount(l.ctx))
}

// items returns the links in display order.
func (l linksModel) items() []store.QuickLink {
	links, _ := l.binding.Value()
	return ordering.Sorted(links)
}

func (l linksModel) update(msg tea.Msg) (linksModel, tea.Cmd) {
	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	links := l.items()

	switch {
	case key.Matches(km, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(km, keys.Down):
		if l.cursor < len(links)-1 {
			l.cursor++
		}
	case key.Matches(km, keys.New):
		return l.showForm(store.QuickLink{})
	case key.Matches(km, keys.Enter):
		if len(links) > 0 {
			return l.showForm(links[l.cursor])
		}
	case key.Matches(km, keys.Delete):
		if len(links) == 0 {
			return l, nil
		}
		next, err := ordering.Remove(links, links[l.cursor].ID)
		if err != nil {
			return l, errStatus(err)
		}
		if l.cursor >= len(next) && l.cursor > 0 {
			l.cursor--
		}
		return l, awaitWrite("quick links", l.binding.Set(l.ctx, next))
	case key.Matches(km, keys.MoveUp), key.Matches(km, keys.MoveDown):
		to := l.cursor + 1
		if key.Matches(km, keys.MoveUp) {
			to = l.cursor - 1
		}
		if to < 0 || to >= len(links) {
			return l, nil
		}
		next, err := ordering.Move(links, l.cursor, to)
		if err != nil {
			return l, errStatus(err)
		}
		l.cursor = to
		return l, awaitWrite("quick links", l.binding.Set(l.ctx, next))
	}
	return l, nil
}

func (l linksModel) showForm(link store.QuickLink) (linksModel, tea.Cmd) {
	*l.title = link.Title
	*l.url = link.URL
	l.editingID = link.ID

	heading := "New link"
	if link.ID != "" {
		heading = "Edit link"
	}

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(l.title).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return ordering.ErrEmptyField
				}
				return nil
			}),
			huh.NewInput().Title("URL").Value(l.url).Validate(func(s string) error {
				_, err := ordering.NewLink("x", s)
				return err
			}),
		).Title(heading),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l linksModel) updateForm(msg tea.Msg) (linksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		l.formActive = false
		l.form = nil
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.form = nil
		return l.save()
	}
	return l, cmd
}

func (l linksModel) save() (linksModel, tea.Cmd) {
	links := l.items()
	var next []store.QuickLink
	if l.editingID != "" {
		var err error
		if next, err = ordering.Update(links, l.editingID, *l.title, *l.url); err != nil {
			return l, errStatus(err)
		}
	} else {
		link, err := ordering.NewLink(*l.title, *l.url)
		if err != nil {
			return l, errStatus(err)
		}
		next = ordering.Append(links, link)
		l.cursor = len(next) - 1
	}
	return l, awaitWrite("quick links", l.binding.Set(l.ctx, next))
}

func (l linksModel) summary(st styles, w int) string {
	links, loaded := l.binding.Value()
	if !loaded {
		return st.muted.Render("Loading…")
	}
	if len(links) == 0 {
		return st.muted.Render("No links")
	}
	var rows []string
	for i, link := range ordering.Sorted(links) {
		if i == 6 {
			rows = append(rows, st.muted.Render("…"))
			break
		}
		rows = append(rows, st.highlight.Render(truncate(link.Title, w/2))+" "+
			st.muted.Render(truncate(linkHost(link.URL), w/2)))
	}
	return strings.Join(rows, "\n")
}

func (l linksModel) view(st styles, width int) string {
	w := width - 4

	if l.formActive && l.form != nil {
		return st.panel.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, st.title.Render("Quick Links"), "", l.form.View()),
		)
	}

	links := l.items()
	rows := []string{st.title.Render("Quick Links"), ""}
	if len(links) == 0 {
		rows = append(rows, st.muted.Render("No links yet. Press n to add one."))
	}
	for i, link := range links {
		cursor := "  "
		style := st.normalItem
		if i == l.cursor {
			cursor = "> "
			style = st.selectedItem
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-20s", cursor, truncate(link.Title, 20)))+
			" "+st.muted.Render(truncate(link.URL, max(10, w-30))))
	}
	rows = append(rows, "", st.muted.Render("n: new  enter: edit  d: delete  K/J: move"))

	return st.panel.Width(w).Render(strings.Join(rows, "\n"))
}
