package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

var categoryColors = map[string]lipgloss.Color{
	"work":     lipgloss.Color("#7AA2F7"),
	"personal": lipgloss.Color("#2ECC71"),
	"urgent":   lipgloss.Color("#E74C3C"),
	"later":    lipgloss.Color("#666666"),
}

type todosModel struct {
	ctx     context.Context
	now     func() time.Time
	binding *binding.Binding[[]store.Todo]
	cursor  int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	text     *string
	category *string
}

func newTodosModel(ctx context.Context, s *store.Store, log *logger.Logger, now func() time.Time) todosModel {
	text, category := "", ""
	return todosModel{
		ctx:      ctx,
		now:      now,
		binding:  binding.New(s, store.KeyTodos, log),
		text:     &text,
		category: &category,
	}
}

func (t todosModel) mount() tea.Cmd {
	return awaitMount(t.binding.Key(), t.binding.Mount(t.ctx))
}

func (t todosModel) items() []store.Todo {
	todos, _ := t.binding.Value()
	return todos
}

func (t todosModel) update(msg tea.Msg) (todosModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	todos := t.items()

	switch {
	case key.Matches(km, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(km, keys.Down):
		if t.cursor < len(todos)-1 {
			t.cursor++
		}
	case key.Matches(km, keys.New):
		return t.showForm()
	case key.Matches(km, keys.Toggle):
		if len(todos) == 0 {
			return t, nil
		}
		next, err := store.ToggleTodo(todos, todos[t.cursor].ID)
		if err != nil {
			return t, errStatus(err)
		}
		return t, awaitWrite("todos", t.binding.Set(t.ctx, next))
	case key.Matches(km, keys.Delete):
		if len(todos) == 0 {
			return t, nil
		}
		next, err := store.DeleteTodo(todos, todos[t.cursor].ID)
		if err != nil {
			return t, errStatus(err)
		}
		if t.cursor >= len(next) && t.cursor > 0 {
			t.cursor--
		}
		return t, awaitWrite("todos", t.binding.Set(t.ctx, next))
	}
	return t, nil
}

func (t todosModel) showForm() (todosModel, tea.Cmd) {
	*t.text = ""
	*t.category = ""

	options := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range store.TodoCategories {
		options = append(options, huh.NewOption(strings.ToUpper(c[:1])+c[1:], c))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Todo").Value(t.text).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return store.ErrEmptyText
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Category").Options(options...).Value(t.category),
		).Title("New todo"),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todosModel) updateForm(msg tea.Msg) (todosModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		return t.add(*t.text, *t.category)
	}
	return t, cmd
}

func (t todosModel) add(text, category string) (todosModel, tea.Cmd) {
	todo, err := store.NewTodo(text, category, t.now())
	if err != nil {
		return t, errStatus(err)
	}
	t.cursor = 0
	return t, awaitWrite("todos", t.binding.Set(t.ctx, store.PrependTodo(t.items(), todo)))
}

func (t todosModel) renderItem(st styles, todo store.Todo, w int) string {
	box := "☐"
	text := st.normalItem.Render(truncate(todo.Text, w-4))
	if todo.Completed {
		box = st.success.Render("☑")
		text = st.muted.Strikethrough(true).Render(truncate(todo.Text, w-4))
	}
	line := box + " " + text
	if todo.Category != "" {
		line += " " + lipgloss.NewStyle().Foreground(categoryColors[todo.Category]).Render("#"+todo.Category)
	}
	return line
}

// summary is the compact widget shown on the home grid.
func (t todosModel) summary(st styles, w int) string {
	todos, loaded := t.binding.Value()
	if !loaded {
		return st.muted.Render("Loading…")
	}
	done, total := store.CountTodos(todos)
	rows := []string{st.subtitle.Render(fmt.Sprintf("%d/%d done", done, total))}
	shown := 0
	for _, todo := range todos {
		if todo.Completed {
			continue
		}
		if shown == 5 {
			rows = append(rows, st.muted.Render("…"))
			break
		}
		rows = append(rows, t.renderItem(st, todo, w))
		shown++
	}
	if total == 0 {
		rows = append(rows, st.muted.Render("Nothing to do"))
	}
	return strings.Join(rows, "\n")
}

func (t todosModel) view(st styles, width int) string {
	w := width - 4

	if t.formActive && t.form != nil {
		return st.panel.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, st.title.Render("Todos"), "", t.form.View()),
		)
	}

	todos, loaded := t.binding.Value()
	done, total := store.CountTodos(todos)
	rows := []string{
		st.title.Render("Todos") + "  " + st.highlight.Render(fmt.Sprintf("%d/%d", done, total)),
		"",
	}
	switch {
	case !loaded:
		rows = append(rows, st.muted.Render("Loading…"))
	case len(todos) == 0:
		rows = append(rows, st.muted.Render("No todos yet. Press n to add one."))
	}
	for i, todo := range todos {
		cursor := "  "
		if i == t.cursor {
			cursor = st.selectedItem.Render("> ")
		}
		rows = append(rows, cursor+t.renderItem(st, todo, w-6))
	}
	rows = append(rows, "", st.muted.Render("n: new  space: toggle  d: delete"))

	return st.panel.Width(w).Render(strings.Join(rows, "\n"))
}
