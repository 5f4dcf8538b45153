package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sadopc/nexus/internal/backend"
	"github.com/sadopc/nexus/internal/logger"
)

var ErrUnknownKey = errors.New("unknown key")

// Store is the schema-aware layer over a backend. It holds no values in
// memory: every read goes to the backend.
type Store struct {
	backend backend.Backend
	log     *logger.Logger
}

func New(b backend.Backend, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{backend: b, log: log}
}

// NewMemory creates a store over an in-memory backend for testing.
func NewMemory() *Store {
	return New(backend.NewLocal(backend.NewMemoryStrings()), logger.Nop())
}

func (s *Store) Backend() backend.Backend { return s.backend }

func (s *Store) Close() error {
	return s.backend.Close()
}

// Get returns the persisted value for k if present and well-formed, and
// k's default otherwise. Backend and decode failures are logged, never
// returned.
func Get[T any](ctx context.Context, s *Store, k Key[T]) T {
	values, err := s.backend.Get(ctx, []string{k.name})
	if err != nil {
		s.log.WithKey(k.name).WithError(err).Warn("read failed, using default")
		return k.def()
	}
	raw, ok := values[k.name]
	return k.decode(ctx, s, raw, ok)
}

// Set durably replaces the whole value stored under k.
func Set[T any](ctx context.Context, s *Store, k Key[T], v T) error {
	if err := writable(v); err != nil {
		return fmt.Errorf("set %s: %w", k.name, err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k.name, err)
	}
	if err := s.backend.Set(ctx, map[string][]byte{k.name: raw}); err != nil {
		return fmt.Errorf("set %s: %w", k.name, err)
	}
	return nil
}

func (k Key[T]) decode(ctx context.Context, s *Store, raw []byte, ok bool) T {
	if !ok || isNull(raw) {
		return k.def()
	}
	log := s.log.WithKey(k.name)

	var (
		v       T
		changed bool
		err     error
	)
	if k.upgrade != nil {
		v, changed, err = k.upgrade(raw)
	} else {
		err = json.Unmarshal(raw, &v)
	}
	if err != nil {
		log.WithError(err).Warn("corrupt record, using default")
		return k.def()
	}
	if err := wellFormed(v); err != nil {
		log.WithError(err).Warn("malformed record, using default")
		return k.def()
	}
	if changed {
		if err := Set(ctx, s, k, v); err != nil {
			log.WithError(err).Warn("persist upgraded record")
		} else {
			log.Info("upgraded record")
		}
	}
	return v
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// GetAll reads every record in one backend round-trip and merges persisted
// values over defaults.
func (s *Store) GetAll(ctx context.Context) Snapshot {
	values, err := s.backend.Get(ctx, nil)
	if err != nil {
		s.log.WithError(err).Warn("read all failed, using defaults")
		values = map[string][]byte{}
	}
	get := func(r record) any {
		raw, ok := values[r.Name()]
		return r.load(ctx, s, raw, ok)
	}
	return Snapshot{
		Todos:              get(KeyTodos).([]Todo),
		QuickLinks:         get(KeyQuickLinks).([]QuickLink),
		Notes:              get(KeyNotes).(string),
		PomodoroSettings:   get(KeyPomodoroSettings).(PomodoroSettings),
		PomodoroStats:      get(KeyPomodoroStats).(PomodoroStats),
		WidgetLayout:       get(KeyWidgetLayout).(WidgetLayout),
		BackgroundSettings: get(KeyBackgroundSettings).(BackgroundSettings),
		FontSettings:       get(KeyFontSettings).(FontSettings),
		WeatherSettings:    get(KeyWeatherSettings).(WeatherSettings),
		WeatherCache:       get(KeyWeatherCache).(WeatherCache),
		Timezones:          get(KeyTimezones).([]string),
		Theme:              get(KeyTheme).(Theme),
		ClockSettings:      get(KeyClockSettings).(ClockSettings),
		DragEnabled:        get(KeyDragEnabled).(bool),
		QuoteCache:         get(KeyQuoteCache).(*QuoteCache),
	}
}

// Restore writes every record of snap in one backend call.
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	values := map[string]any{
		KeyTodos.name:              snap.Todos,
		KeyQuickLinks.name:         snap.QuickLinks,
		KeyNotes.name:              snap.Notes,
		KeyPomodoroSettings.name:   snap.PomodoroSettings,
		KeyPomodoroStats.name:      snap.PomodoroStats,
		KeyWidgetLayout.name:       snap.WidgetLayout,
		KeyBackgroundSettings.name: snap.BackgroundSettings,
		KeyFontSettings.name:       snap.FontSettings,
		KeyWeatherSettings.name:    snap.WeatherSettings,
		KeyWeatherCache.name:       snap.WeatherCache,
		KeyTimezones.name:          snap.Timezones,
		KeyTheme.name:              snap.Theme,
		KeyClockSettings.name:      snap.ClockSettings,
		KeyDragEnabled.name:        snap.DragEnabled,
	}
	if snap.QuoteCache != nil {
		values[KeyQuoteCache.name] = snap.QuoteCache
	}

	items := make(map[string][]byte, len(values))
	for name, v := range values {
		if err := writable(v); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		items[name] = raw
	}
	if err := s.backend.Set(ctx, items); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}

// ClearAll removes every persisted record. Later reads return defaults.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	return nil
}
