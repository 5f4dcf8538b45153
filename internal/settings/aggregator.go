// Package settings composes the presentation records into one Settings value
// and applies their process-wide effects: theme resolution and font loading.
package settings

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/ordering"
	"github.com/sadopc/nexus/internal/store"
)

// Presenter receives the side effects of settings changes.
type Presenter interface {
	ApplyTheme(dark bool)
	ApplyFonts(FontVars)
}

// Settings is the published view. UseLightText is derived on every call.
type Settings struct {
	Theme        store.Theme
	Dark         bool
	Fonts        store.FontSettings
	Background   store.BackgroundSettings
	Layout       store.WidgetLayout
	Clock        store.ClockSettings
	DragEnabled  bool
	UseLightText bool
	Loading      bool
}

type Options struct {
	Scheme    ColorScheme
	Fonts     FontLoader
	Presenter Presenter
	Logger    *logger.Logger
}

type Aggregator struct {
	theme      *binding.Binding[store.Theme]
	fonts      *binding.Binding[store.FontSettings]
	background *binding.Binding[store.BackgroundSettings]
	layout     *binding.Binding[store.WidgetLayout]
	clock      *binding.Binding[store.ClockSettings]
	drag       *binding.Binding[bool]

	scheme    ColorScheme
	loader    FontLoader
	presenter Presenter
	log       *logger.Logger

	mu         sync.Mutex
	dark       bool
	fontsReady bool
	fontSeq    uint64
	observers  map[int]func(Settings)
	nextObs    int
	unsubs     []func()
	ctx        context.Context
	cancel     context.CancelFunc
	fontLoads  sync.WaitGroup
}

func NewAggregator(s *store.Store, opts Options) *Aggregator {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Scheme == nil {
		opts.Scheme = TerminalColorScheme{}
	}
	if opts.Fonts == nil {
		opts.Fonts = NopFonts{}
	}
	if opts.Presenter == nil {
		opts.Presenter = nopPresenter{}
	}
	return &Aggregator{
		theme:      binding.New(s, store.KeyTheme, log),
		fonts:      binding.New(s, store.KeyFontSettings, log),
		background: binding.New(s, store.KeyBackgroundSettings, log),
		layout:     binding.New(s, store.KeyWidgetLayout, log),
		clock:      binding.New(s, store.KeyClockSettings, log),
		drag:       binding.New(s, store.KeyDragEnabled, log),
		scheme:     opts.Scheme,
		loader:     opts.Fonts,
		presenter:  opts.Presenter,
		log:        log,
		dark:       true,
		observers:  make(map[int]func(Settings)),
	}
}

// Start mounts every binding and runs the startup font load. The returned
// channel is closed when Loading turns false.
func (a *Aggregator) Start(ctx context.Context) <-chan struct{} {
	a.mu.Lock()
	a.ctx, a.cancel = context.WithCancel(ctx)
	ctx = a.ctx
	a.mu.Unlock()

	unsubs := []func(){
		a.theme.Subscribe(func(t store.Theme) {
			a.applyTheme(t)
			a.publish()
		}),
		a.fonts.Subscribe(func(f store.FontSettings) {
			a.applyFonts(f)
			a.publish()
		}),
		a.background.Subscribe(func(store.BackgroundSettings) { a.publish() }),
		a.layout.Subscribe(func(store.WidgetLayout) { a.publish() }),
		a.clock.Subscribe(func(store.ClockSettings) { a.publish() }),
		a.drag.Subscribe(func(bool) { a.publish() }),
	}
	a.mu.Lock()
	a.unsubs = unsubs
	a.mu.Unlock()

	mounts := []<-chan struct{}{
		a.theme.Mount(ctx),
		a.fonts.Mount(ctx),
		a.background.Mount(ctx),
		a.layout.Mount(ctx),
		a.clock.Mount(ctx),
		a.drag.Mount(ctx),
	}

	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		LoadFonts(ctx, a.loader, InitFamilies, a.log)

		a.mu.Lock()
		a.fontsReady = true
		a.mu.Unlock()
		if f, loaded := a.fonts.Value(); loaded {
			a.applyFonts(f)
		}
	}()

	ready := make(chan struct{})
	go func() {
		defer close(ready)
		for _, m := range append(mounts, initDone) {
			select {
			case <-m:
			case <-ctx.Done():
				return
			}
		}
		a.publish()
	}()
	return ready
}

// Stop unmounts every binding and drops subscriptions. Pending loads are
// discarded.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	a.theme.Unmount()
	a.fonts.Unmount()
	a.background.Unmount()
	a.layout.Unmount()
	a.clock.Unmount()
	a.drag.Unmount()
}

// WaitFonts blocks until every font load started so far has settled.
func (a *Aggregator) WaitFonts() {
	a.fontLoads.Wait()
}

// Loading is true until every binding has loaded and startup fonts settled.
func (a *Aggregator) Loading() bool {
	a.mu.Lock()
	ready := a.fontsReady
	a.mu.Unlock()
	return !ready ||
		a.theme.Loading() || a.fonts.Loading() || a.background.Loading() ||
		a.layout.Loading() || a.clock.Loading() || a.drag.Loading()
}

// Settings returns the current view. Records still loading read as defaults.
func (a *Aggregator) Settings() Settings {
	bg := valueOr(a.background, store.KeyBackgroundSettings)
	a.mu.Lock()
	dark := a.dark
	a.mu.Unlock()
	return Settings{
		Theme:        valueOr(a.theme, store.KeyTheme),
		Dark:         dark,
		Fonts:        valueOr(a.fonts, store.KeyFontSettings),
		Background:   bg,
		Layout:       valueOr(a.layout, store.KeyWidgetLayout),
		Clock:        valueOr(a.clock, store.KeyClockSettings),
		DragEnabled:  valueOr(a.drag, store.KeyDragEnabled),
		UseLightText: UseLightText(bg),
		Loading:      a.Loading(),
	}
}

func valueOr[T any](b *binding.Binding[T], k store.Key[T]) T {
	if v, loaded := b.Value(); loaded {
		return v
	}
	return k.Default()
}

// Subscribe registers fn for every change to the published settings.
func (a *Aggregator) Subscribe(fn func(Settings)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextObs
	a.nextObs++
	a.observers[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.observers, id)
		a.mu.Unlock()
	}
}

func (a *Aggregator) publish() {
	s := a.Settings()
	a.mu.Lock()
	obs := make([]func(Settings), 0, len(a.observers))
	for i := 0; i < a.nextObs; i++ {
		if fn, ok := a.observers[i]; ok {
			obs = append(obs, fn)
		}
	}
	a.mu.Unlock()
	for _, fn := range obs {
		fn(s)
	}
}

func (a *Aggregator) applyTheme(t store.Theme) {
	dark := ResolveTheme(t, a.scheme)
	a.mu.Lock()
	a.dark = dark
	a.mu.Unlock()
	a.presenter.ApplyTheme(dark)
}

// applyFonts loads f's families and then hands f to the presenter, unless a
// newer FontSettings arrived in the meantime. Before the startup load has
// settled it does nothing; the startup load applies the latest value itself.
func (a *Aggregator) applyFonts(f store.FontSettings) {
	a.mu.Lock()
	if !a.fontsReady {
		a.mu.Unlock()
		return
	}
	a.fontSeq++
	seq := a.fontSeq
	ctx := a.ctx
	a.fontLoads.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.fontLoads.Done()
		LoadFonts(ctx, a.loader, f.Families(), a.log)

		a.mu.Lock()
		latest := seq == a.fontSeq
		a.mu.Unlock()
		if latest {
			a.presenter.ApplyFonts(Vars(f))
		}
	}()
}

func (a *Aggregator) SetTheme(ctx context.Context, t store.Theme) <-chan error {
	return a.theme.Set(ctx, t)
}

func (a *Aggregator) SetFonts(ctx context.Context, f store.FontSettings) <-chan error {
	return a.fonts.Set(ctx, f)
}

func (a *Aggregator) SetBackground(ctx context.Context, bg store.BackgroundSettings) <-chan error {
	return a.background.Set(ctx, bg)
}

func (a *Aggregator) SetLayout(ctx context.Context, l store.WidgetLayout) <-chan error {
	return a.layout.Set(ctx, l)
}

func (a *Aggregator) SetClock(ctx context.Context, c store.ClockSettings) <-chan error {
	return a.clock.Set(ctx, c)
}

func (a *Aggregator) SetDragEnabled(ctx context.Context, enabled bool) <-chan error {
	return a.drag.Set(ctx, enabled)
}

// SwapWidgets exchanges two widgets' positions when dragging is enabled.
// Rejected swaps report their error on the returned channel and change
// nothing.
func (a *Aggregator) SwapWidgets(ctx context.Context, x, y string) <-chan error {
	s := a.Settings()
	layout, err := ordering.SwapIfEnabled(s.Layout, s.DragEnabled, x, y)
	if err != nil {
		return failed(err)
	}
	return a.layout.Set(ctx, layout)
}

func (a *Aggregator) SetWidgetVisible(ctx context.Context, key string, visible bool) <-chan error {
	layout, err := ordering.SetVisible(a.Settings().Layout, key, visible)
	if err != nil {
		return failed(err)
	}
	return a.layout.Set(ctx, layout)
}

// RefreshBackgroundPhoto stores a new daily photo URL when the background
// needs one.
func (a *Aggregator) RefreshBackgroundPhoto(ctx context.Context, now time.Time) <-chan error {
	bg, changed := RefreshPhoto(a.Settings().Background, now)
	if !changed {
		return failed(nil)
	}
	return a.background.Set(ctx, bg)
}

// failed returns an already-settled ack.
func failed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

type nopPresenter struct{}

func (nopPresenter) ApplyTheme(bool)     {}
func (nopPresenter) ApplyFonts(FontVars) {}
