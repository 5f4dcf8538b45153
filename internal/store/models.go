package store

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Todo categories offered by the to-do widget.
var TodoCategories = []string{"work", "personal", "urgent", "later"}

type Todo struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
	Category  string `json:"category,omitempty" validate:"omitempty,oneof=work personal urgent later"`
	CreatedAt int64  `json:"createdAt"` // unix millis
}

type QuickLink struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	URL     string `json:"url" validate:"required,url"`
	Favicon string `json:"favicon,omitempty"`
	Order   int    `json:"order" validate:"gte=0"`
}

// PomodoroSettings durations are in minutes.
type PomodoroSettings struct {
	WorkDuration           int  `json:"workDuration" validate:"gte=1,lte=180"`
	BreakDuration          int  `json:"breakDuration" validate:"gte=1,lte=180"`
	LongBreakDuration      int  `json:"longBreakDuration" validate:"gte=1,lte=180"`
	SessionsUntilLongBreak int  `json:"sessionsUntilLongBreak" validate:"gte=1"`
	SoundEnabled           bool `json:"soundEnabled"`
}

type PomodoroStats struct {
	TotalSessions   int    `json:"totalSessions" validate:"gte=0"`
	TodaySessions   int    `json:"todaySessions" validate:"gte=0"`
	LastSessionDate string `json:"lastSessionDate"`
}

type WidgetPlacement struct {
	Visible bool `json:"visible"`
	Order   int  `json:"order" validate:"gte=0"`
}

// WidgetLayout maps a widget key to its placement in the grid.
type WidgetLayout map[string]WidgetPlacement

// Widget keys known to this build, in default order.
const (
	WidgetClock      = "clock"
	WidgetWeather    = "weather"
	WidgetTodos      = "todos"
	WidgetPomodoro   = "pomodoro"
	WidgetNotes      = "notes"
	WidgetQuickLinks = "quickLinks"
	WidgetQuote      = "quote"
)

var WidgetKeys = []string{
	WidgetClock, WidgetWeather, WidgetTodos, WidgetPomodoro, WidgetNotes, WidgetQuickLinks, WidgetQuote,
}

type BackgroundType string

const (
	BackgroundSolid    BackgroundType = "solid"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundPhoto    BackgroundType = "unsplash"
)

type TextColorMode string

const (
	TextColorAuto  TextColorMode = "auto"
	TextColorLight TextColorMode = "light"
	TextColorDark  TextColorMode = "dark"
)

type BackgroundSettings struct {
	Type          BackgroundType `json:"type" validate:"oneof=solid gradient unsplash"`
	UnsplashQuery string         `json:"unsplashQuery"`
	SolidColor    string         `json:"solidColor" validate:"hexcolor"`
	GradientStart string         `json:"gradientStart" validate:"hexcolor"`
	GradientEnd   string         `json:"gradientEnd" validate:"hexcolor"`
	GradientAngle int            `json:"gradientAngle" validate:"gte=0,lte=360"`
	Blur          int            `json:"blur" validate:"gte=0,lte=20"`
	Opacity       int            `json:"opacity" validate:"gte=0,lte=100"`
	LastPhotoURL  string         `json:"lastUnsplashUrl,omitempty"`
	LastPhotoDate string         `json:"lastUnsplashDate,omitempty"`
	TextColor     TextColorMode  `json:"textColor" validate:"oneof=auto light dark"`
}

type FontSettings struct {
	HeadingFont string `json:"headingFont" validate:"required"`
	BodyFont    string `json:"bodyFont" validate:"required"`
	MonoFont    string `json:"monoFont" validate:"required"`
	Scale       string `json:"scale" validate:"oneof=small medium large"`
	Weight      string `json:"weight" validate:"oneof=light regular medium bold"`
}

// Families returns the three configured families in heading, body, mono order.
func (f FontSettings) Families() []string {
	return []string{f.HeadingFont, f.BodyFont, f.MonoFont}
}

type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

type WeatherSettings struct {
	APIKey               string   `json:"apiKey"`
	Locations            []string `json:"locations"`
	CurrentLocationIndex int      `json:"currentLocationIndex" validate:"gte=0"`
	Units                Units    `json:"units" validate:"oneof=metric imperial"`
}

// CurrentLocation returns the selected location, or "" when none is configured.
func (w WeatherSettings) CurrentLocation() string {
	if w.CurrentLocationIndex < 0 || w.CurrentLocationIndex >= len(w.Locations) {
		return ""
	}
	return w.Locations[w.CurrentLocationIndex]
}

type ForecastDay struct {
	Date string  `json:"date"`
	Temp float64 `json:"temp"`
	Icon string  `json:"icon"`
}

type WeatherData struct {
	Temp        float64       `json:"temp"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Humidity    int           `json:"humidity"`
	WindSpeed   float64       `json:"windSpeed"`
	City        string        `json:"city"`
	Forecast    []ForecastDay `json:"forecast,omitempty"`
}

type WeatherCacheEntry struct {
	Data      WeatherData `json:"data"`
	Timestamp int64       `json:"timestamp" validate:"gte=0"` // unix millis
	Units     Units       `json:"units" validate:"oneof=metric imperial"`
}

// WeatherCache maps a (location, units) cache key to its entry.
type WeatherCache map[string]WeatherCacheEntry

type ClockSettings struct {
	Use24Hour bool `json:"use24Hour"`
}

type QuoteCache struct {
	Quote     string `json:"quote" validate:"required"`
	Author    string `json:"author"`
	FetchedAt int64  `json:"fetchedAt" validate:"gte=0"` // unix millis
}

// Snapshot is every record, persisted values merged over defaults.
type Snapshot struct {
	Todos              []Todo             `json:"todos"`
	QuickLinks         []QuickLink        `json:"quickLinks"`
	Notes              string             `json:"notes"`
	PomodoroSettings   PomodoroSettings   `json:"pomodoroSettings"`
	PomodoroStats      PomodoroStats      `json:"pomodoroStats"`
	WidgetLayout       WidgetLayout       `json:"widgetLayout"`
	BackgroundSettings BackgroundSettings `json:"backgroundSettings"`
	FontSettings       FontSettings       `json:"fontSettings"`
	WeatherSettings    WeatherSettings    `json:"weatherSettings"`
	WeatherCache       WeatherCache       `json:"weatherCache"`
	Timezones          []string           `json:"timezones"`
	Theme              Theme              `json:"theme"`
	ClockSettings      ClockSettings      `json:"clockSettings"`
	DragEnabled        bool               `json:"dragEnabled"`
	QuoteCache         *QuoteCache        `json:"quoteCache"`
}
