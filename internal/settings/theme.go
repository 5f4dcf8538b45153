package settings

import (
	"github.com/muesli/termenv"
	"github.com/sadopc/nexus/internal/store"
)

// ColorScheme reports the platform's current light/dark preference.
type ColorScheme interface {
	PrefersDark() bool
}

// TerminalColorScheme asks the terminal for its background color.
type TerminalColorScheme struct {
	Output *termenv.Output
}

func (t TerminalColorScheme) PrefersDark() bool {
	if t.Output != nil {
		return t.Output.HasDarkBackground()
	}
	return termenv.HasDarkBackground()
}

// StaticColorScheme always reports the same preference.
type StaticColorScheme bool

func (s StaticColorScheme) PrefersDark() bool { return bool(s) }

// ResolveTheme maps a theme to dark or light. System is resolved by asking
// scheme now; the answer is not watched afterwards.
func ResolveTheme(theme store.Theme, scheme ColorScheme) bool {
	switch theme {
	case store.ThemeLight:
		return false
	case store.ThemeSystem:
		if scheme == nil {
			return true
		}
		return scheme.PrefersDark()
	default:
		return true
	}
}
