package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewHome viewState = iota
	viewTodos
	viewNotes
	viewLinks
	viewPomodoro
	viewSettings
)

var viewNames = []string{"Home", "Todos", "Notes", "Links", "Pomodoro", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// loadedMsg reports that a record binding finished its initial read.
type loadedMsg struct {
	key string
}

// settingsChangedMsg is delivered whenever the aggregator publishes or the
// presenter is told to apply a theme or fonts.
type settingsChangedMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// awaitMount turns a binding's mount channel into a loadedMsg.
func awaitMount(key string, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return loadedMsg{key: key}
	}
}

// awaitWrite reports a failed durable write in the status bar.
func awaitWrite(what string, ack <-chan error) tea.Cmd {
	return func() tea.Msg {
		if err := <-ack; err != nil {
			return statusMsg{text: fmt.Sprintf("Saving %s failed: %v", what, err), isError: true}
		}
		return nil
	}
}

func errStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

func status(text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text}
	}
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
