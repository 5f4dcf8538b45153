package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/store"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// ============================================================
// Cache policy
// ============================================================

func TestCacheExpiry(t *testing.T) {
	data := store.WeatherData{Temp: 21, City: "Paris"}
	cache := Put(store.WeatherCache{}, "Paris", store.UnitsMetric, data, t0)

	if got, ok := Lookup(cache, "Paris", store.UnitsMetric, t0.Add(9*time.Minute+59*time.Second)); !ok || got.City != "Paris" {
		t.Errorf("expected hit just before TTL, got %+v ok=%v", got, ok)
	}
	if _, ok := Lookup(cache, "Paris", store.UnitsMetric, t0.Add(10*time.Minute+time.Second)); ok {
		t.Error("expected miss just after TTL")
	}
	if _, ok := Lookup(cache, "Paris", store.UnitsMetric, t0.Add(CacheTTL)); ok {
		t.Error("expected miss at exactly TTL")
	}
}

func TestCacheEntryFromTheFutureMisses(t *testing.T) {
	cache := Put(store.WeatherCache{}, "Paris", store.UnitsMetric, store.WeatherData{Temp: 21}, t0.Add(time.Hour))

	if _, ok := Lookup(cache, "Paris", store.UnitsMetric, t0); ok {
		t.Error("entry stamped after now should miss")
	}
	if pruned := Prune(cache, t0); len(pruned) != 0 {
		t.Errorf("entry stamped after now should be pruned, got %v", pruned)
	}
	if _, ok := Lookup(cache, "Paris", store.UnitsMetric, t0.Add(time.Hour)); !ok {
		t.Error("expected hit once the clock reaches the stamp")
	}
}

func TestCacheUnitsMustMatch(t *testing.T) {
	cache := Put(store.WeatherCache{}, "Paris", store.UnitsMetric, store.WeatherData{Temp: 21}, t0)
	for _, age := range []time.Duration{0, time.Minute, time.Hour} {
		if _, ok := Lookup(cache, "Paris", store.UnitsImperial, t0.Add(age)); ok {
			t.Errorf("other units hit at age %v", age)
		}
	}

	// An entry whose stored units disagree with its key is a miss too.
	cache[CacheKey("Paris", store.UnitsImperial)] = store.WeatherCacheEntry{Timestamp: t0.UnixMilli(), Units: store.UnitsMetric}
	if _, ok := Lookup(cache, "Paris", store.UnitsImperial, t0); ok {
		t.Error("mismatched stored units should miss")
	}
}

func TestCacheCombinationsAreIndependent(t *testing.T) {
	cache := Put(store.WeatherCache{}, "Paris", store.UnitsMetric, store.WeatherData{Temp: 1}, t0)
	cache = Put(cache, "Oslo", store.UnitsMetric, store.WeatherData{Temp: 2}, t0.Add(8*time.Minute))

	now := t0.Add(12 * time.Minute)
	if _, ok := Lookup(cache, "Paris", store.UnitsMetric, now); ok {
		t.Error("Paris should have expired")
	}
	if got, ok := Lookup(cache, "Oslo", store.UnitsMetric, now); !ok || got.Temp != 2 {
		t.Error("Oslo should still be fresh")
	}

	pruned := Prune(cache, now)
	if len(pruned) != 1 {
		t.Errorf("expected only Oslo after prune, got %v", pruned)
	}
}

func TestPutOverwritesAndCopies(t *testing.T) {
	orig := Put(store.WeatherCache{}, "Paris", store.UnitsMetric, store.WeatherData{Temp: 1}, t0)
	next := Put(orig, "Paris", store.UnitsMetric, store.WeatherData{Temp: 5}, t0.Add(time.Minute))
	if next[CacheKey("Paris", store.UnitsMetric)].Data.Temp != 5 {
		t.Error("expected overwrite")
	}
	if orig[CacheKey("Paris", store.UnitsMetric)].Data.Temp != 1 {
		t.Error("input cache was mutated")
	}
	if CacheKey("Paris", store.UnitsMetric) != "Paris_metric" {
		t.Errorf("unexpected cache key %q", CacheKey("Paris", store.UnitsMetric))
	}
}

// ============================================================
// OpenWeatherMap client
// ============================================================

func newTestServer(t *testing.T, forecastStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("appid") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"cod":401,"message":"Invalid API key"}`)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"main":{"temp":21.6,"humidity":40},"weather":[{"description":"clear sky","icon":"01d"}],"wind":{"speed":3.4}}`,
			r.URL.Query().Get("q"))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if forecastStatus != http.StatusOK {
			w.WriteHeader(forecastStatus)
			return
		}
		fmt.Fprint(w, `{"list":[`)
		for i := 0; i < 40; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"dt":%d,"main":{"temp":%d.4},"weather":[{"icon":"0%dd"}]}`, t0.Unix()+int64(i)*3*3600, i, i%9)
		}
		fmt.Fprint(w, `]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testClient(url string) *Client {
	return NewClient(config.WeatherConfig{BaseURL: url, Timeout: time.Second, RatePerMinute: 600})
}

func TestClientFetch(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	data, err := testClient(srv.URL).Fetch(context.Background(), "Paris", store.UnitsMetric, "good")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if data.City != "Paris" || data.Temp != 22 || data.WindSpeed != 3 || data.Humidity != 40 || data.Icon != "01d" {
		t.Errorf("unexpected current %+v", data)
	}
	if len(data.Forecast) != ForecastDays {
		t.Fatalf("expected %d forecast days, got %d", ForecastDays, len(data.Forecast))
	}
	// Every eighth slot: 0, 8, 16, 24, 32.
	for i, d := range data.Forecast {
		if d.Temp != float64(i*8) {
			t.Errorf("day %d: expected temp %d, got %v", i, i*8, d.Temp)
		}
	}
}

func TestClientForecastFailureIsNotFatal(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError)
	data, err := testClient(srv.URL).Fetch(context.Background(), "Paris", store.UnitsMetric, "good")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data.Forecast) != 0 {
		t.Errorf("expected empty forecast, got %+v", data.Forecast)
	}
}

func TestClientAPIError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK)
	_, err := testClient(srv.URL).Fetch(context.Background(), "Paris", store.UnitsMetric, "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid API key" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

// ============================================================
// Service
// ============================================================

type fakeProvider struct {
	calls atomic.Int32
	err   error
}

func (f *fakeProvider) Fetch(_ context.Context, location string, units store.Units, _ string) (store.WeatherData, error) {
	f.calls.Add(1)
	if f.err != nil {
		return store.WeatherData{}, f.err
	}
	return store.WeatherData{City: location, Description: string(units)}, nil
}

type staticKey string

func (k staticKey) APIKey() (string, error) {
	if k == "" {
		return "", errors.New("no key")
	}
	return string(k), nil
}

func configure(t *testing.T, s *store.Store, ws store.WeatherSettings) {
	t.Helper()
	if err := store.Set(context.Background(), s, store.KeyWeatherSettings, ws); err != nil {
		t.Fatalf("configure weather: %v", err)
	}
}

func TestServiceNotConfigured(t *testing.T) {
	s := store.NewMemory()
	svc := NewService(s, &fakeProvider{})
	if _, err := svc.Current(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if svc.Configured(context.Background()) {
		t.Error("expected unconfigured")
	}
}

func TestServiceUsesCacheWithinTTL(t *testing.T) {
	s := store.NewMemory()
	configure(t, s, store.WeatherSettings{APIKey: "k", Locations: []string{"Paris"}, Units: store.UnitsMetric})

	now := t0
	p := &fakeProvider{}
	svc := NewService(s, p, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	r, err := svc.Current(ctx)
	if err != nil || r.Cached || r.Data.City != "Paris" {
		t.Fatalf("expected fresh fetch, got %+v (%v)", r, err)
	}
	now = t0.Add(5 * time.Minute)
	if r, err := svc.Current(ctx); err != nil || !r.Cached {
		t.Fatalf("expected cache hit, got %+v (%v)", r, err)
	}
	now = t0.Add(11 * time.Minute)
	if r, err := svc.Current(ctx); err != nil || r.Cached {
		t.Fatalf("expected refetch after TTL, got %+v (%v)", r, err)
	}
	if p.calls.Load() != 2 {
		t.Errorf("expected 2 provider calls, got %d", p.calls.Load())
	}
}

func TestServiceUnitSwitchRefetchesOnlyThatPair(t *testing.T) {
	s := store.NewMemory()
	configure(t, s, store.WeatherSettings{APIKey: "k", Locations: []string{"Paris"}, Units: store.UnitsMetric})
	p := &fakeProvider{}
	svc := NewService(s, p, WithClock(func() time.Time { return t0 }))
	ctx := context.Background()

	if _, err := svc.Current(ctx); err != nil {
		t.Fatalf("current: %v", err)
	}
	if _, err := svc.ToggleUnits(ctx); err != nil {
		t.Fatalf("toggle units: %v", err)
	}
	r, err := svc.Current(ctx)
	if err != nil || r.Cached || r.Units != store.UnitsImperial {
		t.Fatalf("expected imperial fetch, got %+v (%v)", r, err)
	}
	if _, err := svc.ToggleUnits(ctx); err != nil {
		t.Fatalf("toggle units: %v", err)
	}
	if r, _ := svc.Current(ctx); !r.Cached {
		t.Error("metric reading should still be cached")
	}
	if p.calls.Load() != 2 {
		t.Errorf("expected 2 provider calls, got %d", p.calls.Load())
	}
}

func TestServiceFetchErrorSurfaces(t *testing.T) {
	s := store.NewMemory()
	configure(t, s, store.WeatherSettings{APIKey: "k", Locations: []string{"Paris"}, Units: store.UnitsMetric})
	p := &fakeProvider{err: &APIError{Status: 401}}
	svc := NewService(s, p)

	_, err := svc.Current(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if p.calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", p.calls.Load())
	}
	if c := store.Get(context.Background(), s, store.KeyWeatherCache); len(c) != 0 {
		t.Errorf("failed fetch should not be cached: %v", c)
	}
}

func TestServiceFallsBackToKeySource(t *testing.T) {
	s := store.NewMemory()
	configure(t, s, store.WeatherSettings{Locations: []string{"Oslo"}, Units: store.UnitsMetric})

	svc := NewService(s, &fakeProvider{}, WithKeySource(staticKey("from-keyring")))
	if _, err := svc.Current(context.Background()); err != nil {
		t.Fatalf("expected keyring key to be used: %v", err)
	}
	svc = NewService(s, &fakeProvider{}, WithKeySource(staticKey("")))
	if _, err := svc.Current(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

// ============================================================
// Locations
// ============================================================

func TestLocations(t *testing.T) {
	ws := store.WeatherSettings{Locations: []string{}, Units: store.UnitsMetric}

	ws, err := AddLocation(ws, " Paris ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	ws, _ = AddLocation(ws, "Oslo")
	ws, _ = AddLocation(ws, "Lima")
	if ws.CurrentLocationIndex != 2 || ws.CurrentLocation() != "Lima" {
		t.Fatalf("expected Lima selected, got %+v", ws)
	}
	if _, err := AddLocation(ws, "paris"); !errors.Is(err, ErrDuplicateLocation) {
		t.Errorf("expected ErrDuplicateLocation, got %v", err)
	}
	if _, err := AddLocation(ws, "  "); !errors.Is(err, ErrEmptyLocation) {
		t.Errorf("expected ErrEmptyLocation, got %v", err)
	}

	if ws = NextLocation(ws); ws.CurrentLocation() != "Paris" {
		t.Errorf("expected wrap to Paris, got %s", ws.CurrentLocation())
	}
	ws = NextLocation(ws) // Oslo

	ws, err = RemoveLocation(ws, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ws.CurrentLocation() != "Oslo" {
		t.Errorf("selection should stay on Oslo, got %s", ws.CurrentLocation())
	}
	ws, _ = RemoveLocation(ws, 1)
	ws, _ = RemoveLocation(ws, 0)
	if len(ws.Locations) != 0 || ws.CurrentLocationIndex != 0 {
		t.Errorf("expected empty list with index 0, got %+v", ws)
	}
	if _, err := RemoveLocation(ws, 0); !errors.Is(err, ErrNoSuchLocation) {
		t.Errorf("expected ErrNoSuchLocation, got %v", err)
	}
}

func TestServiceLocationOpsPersist(t *testing.T) {
	s := store.NewMemory()
	svc := NewService(s, &fakeProvider{})
	ctx := context.Background()

	if _, err := svc.AddLocation(ctx, "Paris"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddLocation(ctx, "Oslo"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.NextLocation(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	ws := store.Get(ctx, s, store.KeyWeatherSettings)
	if ws.CurrentLocation() != "Paris" || len(ws.Locations) != 2 {
		t.Errorf("unexpected settings %+v", ws)
	}
}
