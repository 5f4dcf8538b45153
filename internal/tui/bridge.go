package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/nexus/internal/settings"
)

// bridge carries settings side effects from other goroutines into the
// Bubble Tea loop. Notifications coalesce: the loop only needs to know that
// something changed, and reads current values itself.
type bridge struct {
	wake chan struct{}

	mu    sync.Mutex
	dark  bool
	fonts settings.FontVars
}

func newBridge() *bridge {
	return &bridge{wake: make(chan struct{}, 1), dark: true}
}

// ApplyTheme implements settings.Presenter.
func (b *bridge) ApplyTheme(dark bool) {
	b.mu.Lock()
	b.dark = dark
	b.mu.Unlock()
	b.poke()
}

// ApplyFonts implements settings.Presenter. A terminal cannot switch
// typefaces, so the values are only shown.
func (b *bridge) ApplyFonts(v settings.FontVars) {
	b.mu.Lock()
	b.fonts = v
	b.mu.Unlock()
	b.poke()
}

func (b *bridge) applied() (bool, settings.FontVars) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dark, b.fonts
}

// poke never blocks: it may be called from inside Update.
func (b *bridge) poke() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// listen waits for the next change. The App re-arms it after each message.
func (b *bridge) listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.wake:
			return settingsChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}
