package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/ordering"
	"github.com/sadopc/nexus/internal/store"
)

var widgetTitles = map[string]string{
	store.WidgetClock:      "Clock",
	store.WidgetWeather:    "Weather",
	store.WidgetTodos:      "Todos",
	store.WidgetPomodoro:   "Pomodoro",
	store.WidgetNotes:      "Notes",
	store.WidgetQuickLinks: "Quick Links",
	store.WidgetQuote:      "Quote",
}

// widgetViews maps a widget to the view that edits it.
var widgetViews = map[string]viewState{
	store.WidgetClock:      viewSettings,
	store.WidgetWeather:    viewSettings,
	store.WidgetTodos:      viewTodos,
	store.WidgetPomodoro:   viewPomodoro,
	store.WidgetNotes:      viewNotes,
	store.WidgetQuickLinks: viewLinks,
}

// homeModel tracks which widget on the grid has focus.
type homeModel struct {
	focus string
}

func newHomeModel() homeModel {
	return homeModel{}
}

// clamp moves focus to the first visible widget when the focused one is gone.
func (h *homeModel) clamp(layout store.WidgetLayout) {
	visible := ordering.VisibleWidgets(layout)
	for _, k := range visible {
		if k == h.focus {
			return
		}
	}
	h.focus = ""
	if len(visible) > 0 {
		h.focus = visible[0]
	}
}

func (a App) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	layout := a.current.Layout

	switch {
	case key.Matches(km, keys.Left):
		if k := ordering.Neighbor(layout, a.home.focus, -1); k != "" {
			a.home.focus = k
		}
	case key.Matches(km, keys.Right):
		if k := ordering.Neighbor(layout, a.home.focus, 1); k != "" {
			a.home.focus = k
		}
	case key.Matches(km, keys.SwapLeft), key.Matches(km, keys.SwapRight):
		dir := 1
		if key.Matches(km, keys.SwapLeft) {
			dir = -1
		}
		other := ordering.Neighbor(layout, a.home.focus, dir)
		if other == "" {
			return a, nil
		}
		ack := a.agg.SwapWidgets(a.ctx, a.home.focus, other)
		return a, func() tea.Msg {
			err := <-ack
			if errors.Is(err, ordering.ErrDragDisabled) {
				return statusMsg{text: "Widget reordering is off. Turn it on in Settings.", isError: true}
			}
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Saving layout failed: %v", err), isError: true}
			}
			return nil
		}
	case key.Matches(km, keys.Enter):
		if v, ok := widgetViews[a.home.focus]; ok {
			return a.switchTo(v)
		}
	case key.Matches(km, keys.NextPlace):
		if a.home.focus == store.WidgetWeather {
			cmd := a.weather.nextLocation(a.ctx, a.now())
			return a, cmd
		}
	case key.Matches(km, keys.Units):
		if a.home.focus == store.WidgetWeather {
			cmd := a.weather.toggleUnits(a.ctx, a.now())
			return a, cmd
		}
	case key.Matches(km, keys.Refresh):
		switch a.home.focus {
		case store.WidgetWeather:
			cmd := a.weather.fetch(a.ctx, a.now())
			return a, cmd
		case store.WidgetQuote:
			cmd := a.quote.refresh(a.ctx, a.now())
			return a, cmd
		}
	}
	return a, nil
}

func (a App) renderHome() string {
	now := a.now()
	banner := a.styles.strip(now.Format("Monday, January 2"), a.width)

	visible := ordering.VisibleWidgets(a.current.Layout)
	if len(visible) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, banner, "",
			a.styles.muted.Render("  All widgets are hidden. Turn some on in Settings."))
	}

	cols := max(1, min(3, a.width/36))
	panelWidth := a.width/cols - 2
	inner := panelWidth - 2

	rows := []string{banner}
	var row []string
	for i, k := range visible {
		style := a.styles.panel
		if k == a.home.focus {
			style = a.styles.activePanel
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			a.styles.title.Render(widgetTitles[k]),
			a.renderWidget(k, inner),
		)
		row = append(row, style.Width(panelWidth).Render(body))
		if len(row) == cols || i == len(visible)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a App) renderWidget(k string, w int) string {
	switch k {
	case store.WidgetClock:
		return a.renderClock(w)
	case store.WidgetWeather:
		return a.weather.view(a.styles, w)
	case store.WidgetTodos:
		return a.todos.summary(a.styles, w)
	case store.WidgetPomodoro:
		return a.pomodoro.summary(a.styles)
	case store.WidgetNotes:
		return a.notes.summary(a.styles, w)
	case store.WidgetQuickLinks:
		return a.links.summary(a.styles, w)
	case store.WidgetQuote:
		return a.quote.view(a.styles, w)
	}
	return a.styles.muted.Render("unknown widget")
}

func (a App) renderClock(w int) string {
	zones, loaded := a.zones.Value()
	if !loaded {
		return a.styles.muted.Render("Loading…")
	}
	layout := "3:04:05 PM"
	if a.current.Clock.Use24Hour {
		layout = "15:04:05"
	}

	now := a.now()
	var rows []string
	for i, z := range zones {
		loc, err := store.LoadZone(z)
		if err != nil {
			rows = append(rows, a.styles.err.Render(truncate(z+": unknown zone", w)))
			continue
		}
		t := now.In(loc)
		if i == 0 {
			rows = append(rows, a.styles.big.Render(t.Format(layout)))
			rows = append(rows, a.styles.subtitle.Render(store.ZoneLabel(z)+"  "+t.Format("Mon Jan 2")))
			continue
		}
		rows = append(rows, fmt.Sprintf("%-14s %s",
			truncate(store.ZoneLabel(z), 14), a.styles.highlight.Render(t.Format(layout))))
	}
	return strings.Join(rows, "\n")
}

// linkHost is the host part of a link for compact display.
func linkHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}
