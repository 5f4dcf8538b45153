// Package weather fetches conditions for the selected location and keeps a
// per-(location, units) cache of readings in the record store.
package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

var ErrNotConfigured = errors.New("weather needs an API key and a location")

// KeySource supplies an API key when the settings record has none.
type KeySource interface {
	APIKey() (string, error)
}

type Service struct {
	store    *store.Store
	provider Provider
	keys     KeySource
	now      func() time.Time
	log      *logger.Logger
}

type Option func(*Service)

func WithKeySource(k KeySource) Option {
	return func(s *Service) { s.keys = k }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(st *store.Store, p Provider, opts ...Option) *Service {
	s := &Service{store: st, provider: p, now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reading is a weather result and where it came from.
type Reading struct {
	Location string
	Units    store.Units
	Data     store.WeatherData
	Cached   bool
}

// Current returns conditions for the selected location, from the cache when
// fresh and from the provider otherwise. Fetch failures are returned as is;
// there is no retry.
func (s *Service) Current(ctx context.Context) (Reading, error) {
	ws := store.Get(ctx, s.store, store.KeyWeatherSettings)
	loc := ws.CurrentLocation()
	key := s.apiKey(ws)
	if loc == "" || key == "" {
		return Reading{}, ErrNotConfigured
	}

	now := s.now()
	cache := store.Get(ctx, s.store, store.KeyWeatherCache)
	if data, ok := Lookup(cache, loc, ws.Units, now); ok {
		return Reading{Location: loc, Units: ws.Units, Data: data, Cached: true}, nil
	}

	data, err := s.provider.Fetch(ctx, loc, ws.Units, key)
	if err != nil {
		return Reading{}, fmt.Errorf("weather for %s: %w", loc, err)
	}

	cache = Put(Prune(cache, now), loc, ws.Units, data, now)
	if err := store.Set(ctx, s.store, store.KeyWeatherCache, cache); err != nil {
		s.log.WithKey(store.KeyWeatherCache.Name()).WithError(err).Warn("store weather cache")
	}
	return Reading{Location: loc, Units: ws.Units, Data: data}, nil
}

func (s *Service) apiKey(ws store.WeatherSettings) string {
	if ws.APIKey != "" || s.keys == nil {
		return ws.APIKey
	}
	key, err := s.keys.APIKey()
	if err != nil {
		return ""
	}
	return key
}

// Configured reports whether Current can attempt a fetch.
func (s *Service) Configured(ctx context.Context) bool {
	ws := store.Get(ctx, s.store, store.KeyWeatherSettings)
	return ws.CurrentLocation() != "" && s.apiKey(ws) != ""
}

func (s *Service) update(ctx context.Context, fn func(store.WeatherSettings) (store.WeatherSettings, error)) (store.WeatherSettings, error) {
	ws, err := fn(store.Get(ctx, s.store, store.KeyWeatherSettings))
	if err != nil {
		return ws, err
	}
	if err := store.Set(ctx, s.store, store.KeyWeatherSettings, ws); err != nil {
		return ws, fmt.Errorf("save weather settings: %w", err)
	}
	return ws, nil
}

func (s *Service) AddLocation(ctx context.Context, loc string) (store.WeatherSettings, error) {
	return s.update(ctx, func(ws store.WeatherSettings) (store.WeatherSettings, error) {
		return AddLocation(ws, loc)
	})
}

func (s *Service) RemoveLocation(ctx context.Context, i int) (store.WeatherSettings, error) {
	return s.update(ctx, func(ws store.WeatherSettings) (store.WeatherSettings, error) {
		return RemoveLocation(ws, i)
	})
}

func (s *Service) NextLocation(ctx context.Context) (store.WeatherSettings, error) {
	return s.update(ctx, func(ws store.WeatherSettings) (store.WeatherSettings, error) {
		return NextLocation(ws), nil
	})
}

func (s *Service) ToggleUnits(ctx context.Context) (store.WeatherSettings, error) {
	return s.update(ctx, func(ws store.WeatherSettings) (store.WeatherSettings, error) {
		return ToggleUnits(ws), nil
	})
}

func (s *Service) SetAPIKey(ctx context.Context, key string) (store.WeatherSettings, error) {
	return s.update(ctx, func(ws store.WeatherSettings) (store.WeatherSettings, error) {
		ws.APIKey = key
		return ws, nil
	})
}
