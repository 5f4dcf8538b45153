package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/export"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/settings"
	"github.com/sadopc/nexus/internal/store"
	"github.com/sadopc/nexus/internal/weather"
)

// Deps are the collaborators the TUI runs against.
type Deps struct {
	Store *store.Store
	// Weather may be nil; the widget then shows a hint instead of data.
	Weather *weather.Service
	Scheme  settings.ColorScheme
	Fonts   settings.FontLoader
	Logger  *logger.Logger
	Now     func() time.Time
	// ExportDir is where the export picker writes files. Defaults to the
	// home directory.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	store  *store.Store
	agg    *settings.Aggregator
	bridge *bridge
	log    *logger.Logger
	now    func() time.Time

	exportDir string

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	current settings.Settings
	styles  styles

	zones *binding.Binding[[]string]

	home     homeModel
	todos    todosModel
	notes    notesModel
	links    linksModel
	pomodoro pomodoroModel
	weather  weatherModel
	quote    quoteModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(ctx context.Context, d Deps) App {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	br := newBridge()
	agg := settings.NewAggregator(d.Store, settings.Options{
		Scheme:    d.Scheme,
		Fonts:     d.Fonts,
		Presenter: br,
		Logger:    log,
	})
	agg.Subscribe(func(settings.Settings) { br.poke() })

	h := help.New()
	h.ShowAll = false

	current := agg.Settings()
	zones := binding.New(d.Store, store.KeyTimezones, log)
	pomodoro := newPomodoroModel(ctx, d.Store, log, now)
	home := newHomeModel()
	home.clamp(current.Layout)

	return App{
		ctx:        ctx,
		store:      d.Store,
		agg:        agg,
		bridge:     br,
		log:        log,
		now:        now,
		exportDir:  d.ExportDir,
		activeView: viewHome,
		current:    current,
		styles:     newStyles(current),
		zones:      zones,
		home:       home,
		todos:      newTodosModel(ctx, d.Store, log, now),
		notes:      newNotesModel(ctx, d.Store, log),
		links:      newLinksModel(ctx, d.Store, log),
		pomodoro:   pomodoro,
		weather:    newWeatherModel(d.Weather),
		quote:      newQuoteModel(d.Store),
		settings:   newSettingsModel(ctx, now, agg, d.Store, d.Weather, zones, pomodoro.settings),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		awaitMount("settings", a.agg.Start(a.ctx)),
		awaitMount(a.zones.Key(), a.zones.Mount(a.ctx)),
		a.todos.mount(),
		a.notes.mount(),
		a.links.mount(),
		a.pomodoro.mount(),
		a.bridge.listen(a.ctx),
		a.weather.fetch(a.ctx, a.now()),
		a.quote.load(a.ctx, a.now()),
		a.settings.refresh(),
		tickCmd(),
	)
}

// Close flushes pending note edits and tears down every binding. It waits for
// the final note write.
func (a App) Close() error {
	err := a.notes.close()
	if err != nil {
		a.log.WithError(err).Warn("final notes write failed")
	}
	a.todos.binding.Unmount()
	a.links.binding.Unmount()
	a.pomodoro.unmount()
	a.zones.Unmount()
	a.agg.Stop()
	return err
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.notes.setSize(a.width, contentHeight)
		a.weather.setSize(a.width)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input gets every key.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewHome)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewTodos)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewNotes)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewLinks)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewPomodoro)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		now := time.Time(msg)
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		cmds = append(cmds, cmd)
		if a.weather.due(now) {
			cmds = append(cmds, a.weather.fetch(a.ctx, now))
		}
		if a.quote.due(now) {
			cmds = append(cmds, a.quote.load(a.ctx, now))
		}
		return a, tea.Batch(cmds...)

	case settingsChangedMsg:
		a.current = a.agg.Settings()
		a.styles = newStyles(a.current)
		a.home.clamp(a.current.Layout)
		return a, a.bridge.listen(a.ctx)

	case loadedMsg:
		switch msg.key {
		case "settings":
			a.current = a.agg.Settings()
			a.styles = newStyles(a.current)
			a.home.clamp(a.current.Layout)
			return a, awaitWrite("background", a.agg.RefreshBackgroundPhoto(a.ctx, a.now()))
		case a.notes.binding.Key():
			a.notes.sync()
		case a.pomodoro.settings.Key():
			a.pomodoro, _ = a.pomodoro.update(msg)
		}
		return a, nil

	case weatherMsg:
		a.weather = a.weather.receive(msg)
		return a, nil

	case settingsDataMsg:
		a.settings.weatherSettings = msg.weather
		return a, nil

	case weatherSavedMsg:
		cmds = append(cmds, a.weather.fetch(a.ctx, a.now()), a.settings.refresh())
		return a, tea.Batch(cmds...)

	case quoteMsg:
		a.quote = a.quote.receive(msg)
		if msg.err != nil {
			return a, errStatus(msg.err)
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	if a.activeView == viewNotes && v != viewNotes {
		a.notes.blur()
	}
	a.activeView = v
	switch v {
	case viewNotes:
		cmd := a.notes.focus()
		return a, cmd
	case viewSettings:
		return a, a.settings.refresh()
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewHome:
		return a.updateHome(msg)
	case viewTodos:
		a.todos, cmd = a.todos.update(msg)
	case viewNotes:
		a.notes, cmd = a.notes.update(msg)
	case viewLinks:
		a.links, cmd = a.links.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTodos:
		return a.todos.formActive
	case viewNotes:
		return a.notes.editing
	case viewLinks:
		return a.links.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case a.exportPicking:
		content = a.renderExportPicker()
	case a.activeView == viewHome:
		content = a.renderHome()
	case a.activeView == viewTodos:
		content = a.todos.view(a.styles, a.width)
	case a.activeView == viewNotes:
		content = a.notes.view(a.styles, a.width)
	case a.activeView == viewLinks:
		content = a.links.view(a.styles, a.width)
	case a.activeView == viewPomodoro:
		content = a.pomodoro.view(a.styles, a.width)
	case a.activeView == viewSettings:
		content = a.settings.view(a.styles, a.width, a.current, a.bridge)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, a.styles.activeTab.Render(name))
		} else {
			tabs = append(tabs, a.styles.inactiveTab.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := a.styles.big.Render("nexus")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return a.styles.header.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := a.styles.muted
		if a.statusErr {
			style = a.styles.err
		}
		status = style.Render(" " + a.status)
	}

	// Pomodoro indicator in footer
	timerInfo := ""
	if a.pomodoro.running {
		timerInfo = a.styles.success.Render(" ● " + formatCountdown(a.pomodoro.remaining))
	}
	if a.current.Loading {
		timerInfo += a.styles.warning.Render(" loading…")
	}

	left := a.styles.footer.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

type exportChoice struct {
	label string
	file  string
}

var exportChoices = []exportChoice{
	{"JSON backup", "nexus-backup-%s.json"},
	{"YAML backup", "nexus-backup-%s.yaml"},
	{"Todos (CSV)", "nexus-todos-%s.csv"},
	{"Quick links (CSV)", "nexus-links-%s.csv"},
}

func (a App) renderExportPicker() string {
	rows := []string{a.styles.title.Render("Export"), ""}
	for i, c := range exportChoices {
		cursor := "  "
		style := a.styles.normalItem
		if i == a.exportCursor {
			cursor = "> "
			style = a.styles.selectedItem
		}
		rows = append(rows, style.Render(cursor+c.label))
	}
	rows = append(rows, "", a.styles.muted.Render("  enter: export  esc: cancel"))

	return a.styles.activePanel.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportChoices)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(choice int) tea.Cmd {
	ctx, s, now, dir := a.ctx, a.store, a.now(), a.exportDir
	return func() tea.Msg {
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			dir = home
		}
		path := filepath.Join(dir, fmt.Sprintf(exportChoices[choice].file, now.Format(store.DayFormat)))

		var err error
		switch choice {
		case 0, 1:
			err = export.WriteFile(path, s.GetAll(ctx), now)
		case 2:
			err = writeCSV(path, func(f *os.File) error {
				return export.TodosToCSV(f, store.Get(ctx, s, store.KeyTodos))
			})
		case 3:
			err = writeCSV(path, func(f *os.File) error {
				return export.LinksToCSV(f, store.Get(ctx, s, store.KeyQuickLinks))
			})
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

func writeCSV(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, d Deps) error {
	app := NewApp(ctx, d)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := p.Run()
	if m, ok := final.(App); ok {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	} else {
		app.Close()
	}
	return err
}
