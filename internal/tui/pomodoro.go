package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/binding"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

var phaseNames = map[store.Phase]string{
	store.PhaseWork:      "WORK",
	store.PhaseBreak:     "SHORT BREAK",
	store.PhaseLongBreak: "LONG BREAK",
}

type pomodoroModel struct {
	ctx      context.Context
	now      func() time.Time
	settings *binding.Binding[store.PomodoroSettings]
	stats    *binding.Binding[store.PomodoroStats]

	phase     store.Phase
	running   bool
	completed int // work sessions finished in this cycle

	// Countdown state
	remaining time.Duration
	phaseEnd  time.Time
}

func newPomodoroModel(ctx context.Context, s *store.Store, log *logger.Logger, now func() time.Time) pomodoroModel {
	return pomodoroModel{
		ctx:       ctx,
		now:       now,
		settings:  binding.New(s, store.KeyPomodoroSettings, log),
		stats:     binding.New(s, store.KeyPomodoroStats, log),
		phase:     store.PhaseWork,
		remaining: store.PhaseWork.Duration(store.KeyPomodoroSettings.Default()),
	}
}

func (p pomodoroModel) mount() tea.Cmd {
	return tea.Batch(
		awaitMount(p.settings.Key(), p.settings.Mount(p.ctx)),
		awaitMount(p.stats.Key(), p.stats.Mount(p.ctx)),
	)
}

func (p pomodoroModel) unmount() {
	p.settings.Unmount()
	p.stats.Unmount()
}

func (p pomodoroModel) config() store.PomodoroSettings {
	if v, loaded := p.settings.Value(); loaded {
		return v
	}
	return store.KeyPomodoroSettings.Default()
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.key == p.settings.Key() && !p.running {
			p.remaining = p.phase.Duration(p.config())
		}
		return p, nil

	case tickMsg:
		if p.running {
			p.remaining = p.phaseEnd.Sub(time.Time(msg))
			if p.remaining <= 0 {
				return p.advancePhase(time.Time(msg))
			}
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			return p.toggle(), nil
		case key.Matches(msg, keys.Stop):
			return p.reset(), nil
		case key.Matches(msg, keys.Skip):
			p.running = false
			return p.enter(store.NextPhase(p.phase, p.completed, p.config())), nil
		}
	}
	return p, nil
}

// toggle starts or pauses the countdown.
func (p pomodoroModel) toggle() pomodoroModel {
	if p.running {
		p.remaining = p.phaseEnd.Sub(p.now())
		p.running = false
		return p
	}
	p.phaseEnd = p.now().Add(p.remaining)
	p.running = true
	return p
}

func (p pomodoroModel) reset() pomodoroModel {
	p.running = false
	p.remaining = p.phase.Duration(p.config())
	return p
}

func (p pomodoroModel) enter(phase store.Phase) pomodoroModel {
	p.phase = phase
	p.remaining = phase.Duration(p.config())
	return p
}

// advancePhase finishes the current phase. A finished work phase counts as a
// session in the stats. The next phase waits to be started.
func (p pomodoroModel) advancePhase(now time.Time) (pomodoroModel, tea.Cmd) {
	p.running = false
	cfg := p.config()

	if p.phase != store.PhaseWork {
		return p.enter(store.PhaseWork), status("Break over. Back to work.")
	}

	p.completed++
	ack := p.stats.Update(p.ctx, func(s store.PomodoroStats) store.PomodoroStats {
		return store.RecordSession(s, now)
	})
	next := store.NextPhase(store.PhaseWork, p.completed, cfg)
	if next == store.PhaseLongBreak {
		p.completed = 0
	}
	p = p.enter(next)

	text := "Session complete. Time for a break."
	if cfg.SoundEnabled {
		text += " \a"
	}
	return p, tea.Batch(awaitWrite("pomodoro stats", ack), status(text))
}

func (p pomodoroModel) todaySessions() int {
	stats, _ := p.stats.Value()
	return store.TodaySessions(stats, p.now())
}

func (p pomodoroModel) phaseStyle(st styles) lipgloss.Style {
	switch p.phase {
	case store.PhaseBreak:
		return st.success.Bold(true)
	case store.PhaseLongBreak:
		return st.highlight.Bold(true)
	}
	return st.accent.Bold(true)
}

func (p pomodoroModel) summary(st styles) string {
	state := "paused"
	if p.running {
		state = "running"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		p.phaseStyle(st).Render(formatCountdown(p.remaining)+"  "+phaseNames[p.phase]),
		st.muted.Render(fmt.Sprintf("%s · %d today", state, p.todaySessions())),
	)
}

func (p pomodoroModel) view(st styles, width int) string {
	w := width - 4
	style := p.phaseStyle(st)

	content := lipgloss.JoinVertical(lipgloss.Center,
		st.title.Render("Pomodoro Timer"),
		"",
		style.Width(w-6).Align(lipgloss.Center).Render(formatCountdown(p.remaining)),
		style.Render(phaseNames[p.phase]),
		"",
		p.renderProgress(st),
	)

	stats, _ := p.stats.Value()
	totals := st.muted.Render(fmt.Sprintf("Today: %d  Total: %d", p.todaySessions(), stats.TotalSessions))

	controls := "s: start  x: reset  space: skip"
	if p.running {
		controls = "s: pause  x: reset  space: skip"
	}

	return st.panel.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", totals, "", st.muted.Render(controls)),
	)
}

func (p pomodoroModel) renderProgress(st styles) string {
	target := p.config().SessionsUntilLongBreak
	var parts []string
	for i := 0; i < target; i++ {
		switch {
		case i < p.completed:
			parts = append(parts, st.success.Render("●"))
		case i == p.completed && p.phase == store.PhaseWork:
			parts = append(parts, st.accent.Render("◐"))
		default:
			parts = append(parts, st.muted.Render("○"))
		}
	}
	counter := st.muted.Render(fmt.Sprintf("  %d/%d", p.completed, target))
	return strings.Join(parts, " ") + counter
}
