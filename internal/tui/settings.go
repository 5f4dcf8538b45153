package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/ordering"
	"github.com/sadopc/nexus/internal/settings"
	"github.com/sadopc/nexus/internal/store"
	"github.com/sadopc/nexus/internal/weather"
)

var fontChoices = []string{
	"Inter", "Space Grotesk", "JetBrains Mono", "Roboto", "Open Sans",
	"Playfair Display", "Merriweather", "Fira Code", "IBM Plex Mono",
}

// settingsForm holds the values the huh form edits.
type settingsForm struct {
	theme      string
	bgType     string
	solid      string
	gradStart  string
	gradEnd    string
	photoQuery string
	textColor  string

	heading string
	body    string
	mono    string
	scale   string
	weight  string

	use24Hour bool
	keepZones []string
	addZone   string

	apiKey      string
	addLocation string
	units       string

	work      string
	brk       string
	longBreak string
	sessions  string
	sound     bool

	drag    bool
	visible []string
}

type settingsDataMsg struct {
	weather store.WeatherSettings
}

// weatherSavedMsg tells the App to refetch after weather settings changed.
type weatherSavedMsg struct{}

type settingsModel struct {
	ctx      context.Context
	now      func() time.Time
	agg      *settings.Aggregator
	store    *store.Store
	weather  *weather.Service
	zones    *binding.Binding[[]string]
	pomodoro *binding.Binding[store.PomodoroSettings]

	weatherSettings store.WeatherSettings

	formActive bool
	form       *huh.Form
	values     *settingsForm
}

func newSettingsModel(ctx context.Context, now func() time.Time, agg *settings.Aggregator, s *store.Store, svc *weather.Service,
	zones *binding.Binding[[]string], pomodoro *binding.Binding[store.PomodoroSettings]) settingsModel {
	return settingsModel{
		ctx:      ctx,
		now:      now,
		agg:      agg,
		store:    s,
		weather:  svc,
		zones:    zones,
		pomodoro: pomodoro,
		values:   &settingsForm{},
	}
}

func (s settingsModel) refresh() tea.Cmd {
	ctx, st := s.ctx, s.store
	return func() tea.Msg {
		return settingsDataMsg{weather: store.Get(ctx, st, store.KeyWeatherSettings)}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.weatherSettings = msg.weather
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" || msg.String() == "n" {
			return s.showForm()
		}
	}
	return s, nil
}

func validHex(v string) error {
	if _, err := colorful.Hex(v); err != nil {
		return fmt.Errorf("not a #rrggbb color")
	}
	return nil
}

func validMinutes(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 180 {
		return fmt.Errorf("enter 1 to 180 minutes")
	}
	return nil
}

func validSessions(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func validZone(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	_, err := store.LoadZone(strings.TrimSpace(v))
	return err
}

func options(values ...string) []huh.Option[string] {
	return huh.NewOptions(values...)
}

// load fills the form values from the current records.
func (s settingsModel) load() {
	cur := s.agg.Settings()
	v := s.values
	bg := cur.Background
	*v = settingsForm{
		theme:      string(cur.Theme),
		bgType:     string(bg.Type),
		solid:      bg.SolidColor,
		gradStart:  bg.GradientStart,
		gradEnd:    bg.GradientEnd,
		photoQuery: bg.UnsplashQuery,
		textColor:  string(bg.TextColor),
		heading:    cur.Fonts.HeadingFont,
		body:       cur.Fonts.BodyFont,
		mono:       cur.Fonts.MonoFont,
		scale:      cur.Fonts.Scale,
		weight:     cur.Fonts.Weight,
		use24Hour:  cur.Clock.Use24Hour,
		drag:       cur.DragEnabled,
		visible:    ordering.VisibleWidgets(cur.Layout),
	}

	zones, _ := s.zones.Value()
	v.keepZones = slices.Clone(zones)

	p := s.pomodoroSettings()
	v.work = strconv.Itoa(p.WorkDuration)
	v.brk = strconv.Itoa(p.BreakDuration)
	v.longBreak = strconv.Itoa(p.LongBreakDuration)
	v.sessions = strconv.Itoa(p.SessionsUntilLongBreak)
	v.sound = p.SoundEnabled

	v.units = string(s.weatherSettings.Units)
	if v.units == "" {
		v.units = string(store.UnitsMetric)
	}
}

func (s settingsModel) pomodoroSettings() store.PomodoroSettings {
	if p, loaded := s.pomodoro.Value(); loaded {
		return p
	}
	return store.KeyPomodoroSettings.Default()
}

func fontOptions(current string) []huh.Option[string] {
	choices := fontChoices
	if !slices.Contains(choices, current) {
		choices = append([]string{current}, choices...)
	}
	return options(choices...)
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	s.load()
	v := s.values

	zoneOpts := make([]huh.Option[string], 0, len(v.keepZones))
	for _, z := range v.keepZones {
		zoneOpts = append(zoneOpts, huh.NewOption(store.ZoneLabel(z), z).Selected(true))
	}
	widgetOpts := make([]huh.Option[string], 0, len(store.WidgetKeys))
	for _, k := range store.WidgetKeys {
		widgetOpts = append(widgetOpts, huh.NewOption(widgetTitles[k], k).Selected(slices.Contains(v.visible, k)))
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").Options(options("dark", "light", "system")...).Value(&v.theme),
			huh.NewSelect[string]().Title("Background").Options(
				huh.NewOption("Gradient", string(store.BackgroundGradient)),
				huh.NewOption("Solid", string(store.BackgroundSolid)),
				huh.NewOption("Daily photo", string(store.BackgroundPhoto)),
			).Value(&v.bgType),
			huh.NewInput().Title("Solid color").Value(&v.solid).Validate(validHex),
			huh.NewInput().Title("Gradient start").Value(&v.gradStart).Validate(validHex),
			huh.NewInput().Title("Gradient end").Value(&v.gradEnd).Validate(validHex),
			huh.NewInput().Title("Photo search").Value(&v.photoQuery),
			huh.NewSelect[string]().Title("Text color").Options(options("auto", "light", "dark")...).Value(&v.textColor),
		).Title("Appearance"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Heading font").Options(fontOptions(v.heading)...).Value(&v.heading),
			huh.NewSelect[string]().Title("Body font").Options(fontOptions(v.body)...).Value(&v.body),
			huh.NewSelect[string]().Title("Mono font").Options(fontOptions(v.mono)...).Value(&v.mono),
			huh.NewSelect[string]().Title("Size").Options(options("small", "medium", "large")...).Value(&v.scale),
			huh.NewSelect[string]().Title("Weight").Options(options("light", "regular", "medium", "bold")...).Value(&v.weight),
		).Title("Fonts"),
		huh.NewGroup(
			huh.NewConfirm().Title("24-hour clock").Value(&v.use24Hour),
			huh.NewMultiSelect[string]().Title("Time zones").Options(zoneOpts...).Value(&v.keepZones),
			huh.NewInput().Title("Add time zone").Placeholder("Europe/Berlin").Value(&v.addZone).Validate(validZone),
		).Title("Clock"),
	}
	if s.weather != nil {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("API key").Description("Leave empty to keep the current key").
				EchoMode(huh.EchoModePassword).Value(&v.apiKey),
			huh.NewInput().Title("Add location").Value(&v.addLocation),
			huh.NewSelect[string]().Title("Units").Options(options("metric", "imperial")...).Value(&v.units),
		).Title("Weather"))
	}
	groups = append(groups,
		huh.NewGroup(
			huh.NewInput().Title("Work (min)").Value(&v.work).Validate(validMinutes),
			huh.NewInput().Title("Break (min)").Value(&v.brk).Validate(validMinutes),
			huh.NewInput().Title("Long break (min)").Value(&v.longBreak).Validate(validMinutes),
			huh.NewInput().Title("Sessions before long break").Value(&v.sessions).Validate(validSessions),
			huh.NewConfirm().Title("Sound").Value(&v.sound),
		).Title("Pomodoro"),
		huh.NewGroup(
			huh.NewConfirm().Title("Allow reordering widgets").Value(&v.drag),
			huh.NewMultiSelect[string]().Title("Visible widgets").Options(widgetOpts...).Value(&v.visible),
		).Title("Layout"),
	)

	s.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save()
	}
	return s, cmd
}

// save writes every record the form touched. Presentation records go through
// the aggregator so the theme and fonts are applied.
func (s settingsModel) save() tea.Cmd {
	v := s.values
	cur := s.agg.Settings()
	var cmds []tea.Cmd

	if t := store.Theme(v.theme); t != cur.Theme {
		cmds = append(cmds, awaitWrite("theme", s.agg.SetTheme(s.ctx, t)))
	}

	bg := cur.Background
	bg.Type = store.BackgroundType(v.bgType)
	bg.SolidColor = v.solid
	bg.GradientStart = v.gradStart
	bg.GradientEnd = v.gradEnd
	bg.UnsplashQuery = strings.TrimSpace(v.photoQuery)
	bg.TextColor = store.TextColorMode(v.textColor)
	if bg != cur.Background {
		cmds = append(cmds, awaitWrite("background", s.agg.SetBackground(s.ctx, bg)))
		if bg.Type == store.BackgroundPhoto {
			cmds = append(cmds, awaitWrite("background", s.agg.RefreshBackgroundPhoto(s.ctx, s.now())))
		}
	}

	fonts := store.FontSettings{HeadingFont: v.heading, BodyFont: v.body, MonoFont: v.mono, Scale: v.scale, Weight: v.weight}
	if fonts != cur.Fonts {
		cmds = append(cmds, awaitWrite("fonts", s.agg.SetFonts(s.ctx, fonts)))
	}

	if v.use24Hour != cur.Clock.Use24Hour {
		cmds = append(cmds, awaitWrite("clock", s.agg.SetClock(s.ctx, store.ClockSettings{Use24Hour: v.use24Hour})))
	}
	if v.drag != cur.DragEnabled {
		cmds = append(cmds, awaitWrite("drag", s.agg.SetDragEnabled(s.ctx, v.drag)))
	}

	layout := cur.Layout
	for _, k := range store.WidgetKeys {
		var err error
		if layout, err = ordering.SetVisible(layout, k, slices.Contains(v.visible, k)); err != nil {
			cmds = append(cmds, errStatus(err))
		}
	}
	if !maps.Equal(layout, cur.Layout) {
		cmds = append(cmds, awaitWrite("layout", s.agg.SetLayout(s.ctx, layout)))
	}

	if cmd := s.saveZones(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := s.savePomodoro(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := s.saveWeather(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (s settingsModel) saveZones() tea.Cmd {
	v := s.values
	zones, _ := s.zones.Value()
	next := slices.Clone(zones)
	for _, z := range zones {
		if z == store.LocalZone || slices.Contains(v.keepZones, z) {
			continue
		}
		var err error
		if next, err = store.RemoveTimezone(next, z); err != nil {
			return errStatus(err)
		}
	}
	if add := strings.TrimSpace(v.addZone); add != "" {
		var err error
		if next, err = store.AddTimezone(next, add); err != nil {
			return errStatus(err)
		}
	}
	if slices.Equal(next, zones) {
		return nil
	}
	return awaitWrite("time zones", s.zones.Set(s.ctx, next))
}

func (s settingsModel) savePomodoro() tea.Cmd {
	v := s.values
	cur := s.pomodoroSettings()
	next := cur
	next.WorkDuration, _ = strconv.Atoi(strings.TrimSpace(v.work))
	next.BreakDuration, _ = strconv.Atoi(strings.TrimSpace(v.brk))
	next.LongBreakDuration, _ = strconv.Atoi(strings.TrimSpace(v.longBreak))
	next.SessionsUntilLongBreak, _ = strconv.Atoi(strings.TrimSpace(v.sessions))
	next.SoundEnabled = v.sound
	if next == cur {
		return nil
	}
	return awaitWrite("pomodoro settings", s.pomodoro.Set(s.ctx, next))
}

// saveWeather applies weather changes through the service, which owns the
// location list invariants, then asks for a refetch.
func (s settingsModel) saveWeather() tea.Cmd {
	if s.weather == nil {
		return nil
	}
	v := s.values
	apiKey := strings.TrimSpace(v.apiKey)
	loc := strings.TrimSpace(v.addLocation)
	toggle := store.Units(v.units) != s.weatherSettings.Units && s.weatherSettings.Units != ""
	if apiKey == "" && loc == "" && !toggle {
		return nil
	}

	ctx, svc := s.ctx, s.weather
	return func() tea.Msg {
		var errs []error
		if apiKey != "" {
			if _, err := svc.SetAPIKey(ctx, apiKey); err != nil {
				errs = append(errs, err)
			}
		}
		if loc != "" {
			if _, err := svc.AddLocation(ctx, loc); err != nil {
				errs = append(errs, err)
			}
		}
		if toggle {
			if _, err := svc.ToggleUnits(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return statusMsg{text: fmt.Sprintf("Weather settings: %v", err), isError: true}
		}
		return weatherSavedMsg{}
	}
}

func (s settingsModel) view(st styles, width int, cur settings.Settings, br *bridge) string {
	w := width - 4

	if s.formActive && s.form != nil {
		return st.panel.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, st.title.Render("Settings"), "", s.form.View()),
		)
	}

	dark, fonts := br.applied()
	mode := "light"
	if dark {
		mode = "dark"
	}
	text := "dark"
	if cur.UseLightText {
		text = "light"
	}
	bg := cur.Background
	background := string(bg.Type)
	switch bg.Type {
	case store.BackgroundSolid:
		background += " " + bg.SolidColor
	case store.BackgroundGradient:
		background += fmt.Sprintf(" %s → %s", bg.GradientStart, bg.GradientEnd)
	case store.BackgroundPhoto:
		background += " " + bg.UnsplashQuery
	}
	fontLine := "loading…"
	if fonts.Body != "" {
		fontLine = fmt.Sprintf("%s / %s / %s  x%.3g  %d", fonts.Heading, fonts.Body, fonts.Mono, fonts.Scale, fonts.Weight)
	}
	clock := "12-hour"
	if cur.Clock.Use24Hour {
		clock = "24-hour"
	}
	zones, _ := s.zones.Value()
	labels := make([]string, len(zones))
	for i, z := range zones {
		labels[i] = store.ZoneLabel(z)
	}
	p := s.pomodoroSettings()
	locations := "none"
	if len(s.weatherSettings.Locations) > 0 {
		locations = strings.Join(s.weatherSettings.Locations, ", ")
	}

	items := [][2]string{
		{"Theme", fmt.Sprintf("%s (%s)", cur.Theme, mode)},
		{"Background", background},
		{"Text on background", text},
		{"Fonts", fontLine},
		{"Clock", clock},
		{"Time zones", strings.Join(labels, ", ")},
		{"Weather", fmt.Sprintf("%s, %s", locations, s.weatherSettings.Units)},
		{"Pomodoro", fmt.Sprintf("%d/%d/%d min, long break every %d", p.WorkDuration, p.BreakDuration, p.LongBreakDuration, p.SessionsUntilLongBreak)},
		{"Reordering", strconv.FormatBool(cur.DragEnabled)},
		{"Widgets", strings.Join(ordering.VisibleWidgets(cur.Layout), ", ")},
	}

	rows := []string{st.title.Render("Settings"), ""}
	for _, it := range items {
		label := lipgloss.NewStyle().Width(20).Render(it[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, st.highlight.Render(truncate(it[1], max(10, w-26)))))
	}
	rows = append(rows, "", st.muted.Render("Press enter to edit settings"))

	return st.panel.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
