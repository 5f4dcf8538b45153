package store

import (
	"context"
	"fmt"
	"time"
)

// DayFormat is the calendar day layout used for date-gated records.
const DayFormat = "2006-01-02"

// Day returns t's local calendar day.
func Day(t time.Time) string {
	return t.Local().Format(DayFormat)
}

// RecordSession counts one completed work session at now. The daily count
// restarts at 1 on the first session of a new day.
func RecordSession(stats PomodoroStats, now time.Time) PomodoroStats {
	today := Day(now)
	stats.TotalSessions++
	if stats.LastSessionDate == today {
		stats.TodaySessions++
	} else {
		stats.TodaySessions = 1
	}
	stats.LastSessionDate = today
	return stats
}

// TodaySessions returns the sessions completed on now's day.
func TodaySessions(stats PomodoroStats, now time.Time) int {
	if stats.LastSessionDate != Day(now) {
		return 0
	}
	return stats.TodaySessions
}

func (s *Store) CompleteSession(ctx context.Context, now time.Time) (PomodoroStats, error) {
	stats := RecordSession(Get(ctx, s, KeyPomodoroStats), now)
	if err := Set(ctx, s, KeyPomodoroStats, stats); err != nil {
		return PomodoroStats{}, fmt.Errorf("complete session: %w", err)
	}
	return stats, nil
}

type Phase string

const (
	PhaseWork      Phase = "work"
	PhaseBreak     Phase = "break"
	PhaseLongBreak Phase = "longBreak"
)

// Duration returns how long phase p lasts under settings.
func (p Phase) Duration(settings PomodoroSettings) time.Duration {
	switch p {
	case PhaseBreak:
		return time.Duration(settings.BreakDuration) * time.Minute
	case PhaseLongBreak:
		return time.Duration(settings.LongBreakDuration) * time.Minute
	default:
		return time.Duration(settings.WorkDuration) * time.Minute
	}
}

// NextPhase returns the phase after p. completed is the number of work
// sessions finished in this cycle, including the one that just ended.
func NextPhase(p Phase, completed int, settings PomodoroSettings) Phase {
	if p != PhaseWork {
		return PhaseWork
	}
	if settings.SessionsUntilLongBreak > 0 && completed > 0 && completed%settings.SessionsUntilLongBreak == 0 {
		return PhaseLongBreak
	}
	return PhaseBreak
}
