package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Key names one persisted record and knows its compiled-in default.
type Key[T any] struct {
	name string
	def  func() T
	// upgrade decodes a stored payload that may be in an older shape and
	// reports whether the result differs from what was stored.
	upgrade func(raw []byte) (T, bool, error)
}

func (k Key[T]) Name() string { return k.name }

// Default returns a fresh copy of the compiled-in default.
func (k Key[T]) Default() T { return k.def() }

func (k Key[T]) load(ctx context.Context, s *Store, raw []byte, ok bool) any {
	return k.decode(ctx, s, raw, ok)
}

func (k Key[T]) defaultAny() any { return k.def() }

func (k Key[T]) encodeJSON(raw []byte) ([]byte, error) {
	var v T
	if k.upgrade != nil {
		var err error
		if v, _, err = k.upgrade(raw); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if err := writable(v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// record is the type-erased view of a Key used by name-based access.
type record interface {
	Name() string
	load(ctx context.Context, s *Store, raw []byte, ok bool) any
	defaultAny() any
	encodeJSON(raw []byte) ([]byte, error)
}

var (
	KeyTodos = Key[[]Todo]{name: "todos", def: func() []Todo { return []Todo{} }}

	KeyQuickLinks = Key[[]QuickLink]{name: "quickLinks", def: func() []QuickLink {
		return []QuickLink{
			{ID: "1", Title: "Google", URL: "https://google.com", Order: 0},
			{ID: "2", Title: "GitHub", URL: "https://github.com", Order: 1},
			{ID: "3", Title: "YouTube", URL: "https://youtube.com", Order: 2},
		}
	}}

	KeyNotes = Key[string]{name: "notes", def: func() string { return "" }}

	KeyPomodoroSettings = Key[PomodoroSettings]{name: "pomodoroSettings", def: func() PomodoroSettings {
		return PomodoroSettings{
			WorkDuration:           25,
			BreakDuration:          5,
			LongBreakDuration:      15,
			SessionsUntilLongBreak: 4,
			SoundEnabled:           true,
		}
	}}

	KeyPomodoroStats = Key[PomodoroStats]{name: "pomodoroStats", def: func() PomodoroStats { return PomodoroStats{} }}

	KeyWidgetLayout = Key[WidgetLayout]{name: "widgetLayout", def: DefaultWidgetLayout, upgrade: upgradeWidgetLayout}

	KeyBackgroundSettings = Key[BackgroundSettings]{name: "backgroundSettings", def: func() BackgroundSettings {
		return BackgroundSettings{
			Type:          BackgroundGradient,
			UnsplashQuery: "nature,landscape",
			SolidColor:    "#1a1a2e",
			GradientStart: "#0f0c29",
			GradientEnd:   "#302b63",
			GradientAngle: 135,
			Blur:          0,
			Opacity:       100,
			TextColor:     TextColorAuto,
		}
	}}

	KeyFontSettings = Key[FontSettings]{name: "fontSettings", def: func() FontSettings {
		return FontSettings{
			HeadingFont: "Space Grotesk",
			BodyFont:    "Inter",
			MonoFont:    "JetBrains Mono",
			Scale:       "medium",
			Weight:      "regular",
		}
	}}

	KeyWeatherSettings = Key[WeatherSettings]{name: "weatherSettings", def: func() WeatherSettings {
		return WeatherSettings{Locations: []string{}, Units: UnitsMetric}
	}, upgrade: UpgradeWeatherSettings}

	KeyWeatherCache = Key[WeatherCache]{name: "weatherCache", def: func() WeatherCache { return WeatherCache{} }}

	KeyTimezones = Key[[]string]{name: "timezones", def: func() []string { return []string{"local"} }}

	KeyTheme = Key[Theme]{name: "theme", def: func() Theme { return ThemeDark }}

	KeyClockSettings = Key[ClockSettings]{name: "clockSettings", def: func() ClockSettings {
		return ClockSettings{Use24Hour: true}
	}}

	KeyDragEnabled = Key[bool]{name: "dragEnabled", def: func() bool { return true }}

	// KeyQuoteCache defaults to nil: no quote has been picked yet.
	KeyQuoteCache = Key[*QuoteCache]{name: "quoteCache", def: func() *QuoteCache { return nil }}
)

var records = map[string]record{}

func init() {
	for _, r := range []record{
		KeyTodos, KeyQuickLinks, KeyNotes, KeyPomodoroSettings, KeyPomodoroStats,
		KeyWidgetLayout, KeyBackgroundSettings, KeyFontSettings, KeyWeatherSettings,
		KeyWeatherCache, KeyTimezones, KeyTheme, KeyClockSettings, KeyDragEnabled,
		KeyQuoteCache,
	} {
		records[r.Name()] = r
	}
}

// KeyNames lists every record key, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (record, error) {
	r, ok := records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return r, nil
}
