package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/store"
	"github.com/sadopc/nexus/internal/weather"
)

// weatherMsg carries the result of a fetch.
type weatherMsg struct {
	reading weather.Reading
	err     error
	at      time.Time
}

type weatherModel struct {
	svc *weather.Service

	reading   weather.Reading
	has       bool
	err       error
	loading   bool
	lastFetch time.Time
	width     int
}

func newWeatherModel(svc *weather.Service) weatherModel {
	return weatherModel{svc: svc, width: 40}
}

func (w *weatherModel) setSize(width int) {
	w.width = width
}

// due reports whether the cached reading has aged past the cache TTL.
func (w weatherModel) due(now time.Time) bool {
	return w.svc != nil && !w.loading && !w.lastFetch.IsZero() && now.Sub(w.lastFetch) >= weather.CacheTTL
}

func (w *weatherModel) fetch(ctx context.Context, now time.Time) tea.Cmd {
	if w.svc == nil {
		return nil
	}
	w.loading = true
	svc := w.svc
	return func() tea.Msg {
		r, err := svc.Current(ctx)
		return weatherMsg{reading: r, err: err, at: now}
	}
}

// nextLocation selects the following saved location and fetches it.
func (w *weatherModel) nextLocation(ctx context.Context, now time.Time) tea.Cmd {
	return w.change(ctx, now, w.svc.NextLocation)
}

func (w *weatherModel) toggleUnits(ctx context.Context, now time.Time) tea.Cmd {
	return w.change(ctx, now, w.svc.ToggleUnits)
}

func (w *weatherModel) change(ctx context.Context, now time.Time, fn func(context.Context) (store.WeatherSettings, error)) tea.Cmd {
	if w.svc == nil {
		return nil
	}
	w.loading = true
	svc := w.svc
	return func() tea.Msg {
		if _, err := fn(ctx); err != nil {
			return weatherMsg{err: err, at: now}
		}
		r, err := svc.Current(ctx)
		return weatherMsg{reading: r, err: err, at: now}
	}
}

func (w weatherModel) receive(msg weatherMsg) weatherModel {
	w.loading = false
	w.lastFetch = msg.at
	w.err = msg.err
	if msg.err == nil {
		w.reading = msg.reading
		w.has = true
	}
	return w
}

func unitSymbols(u store.Units) (temp, speed string) {
	if u == store.UnitsImperial {
		return "°F", "mph"
	}
	return "°C", "m/s"
}

func (w weatherModel) view(st styles, width int) string {
	switch {
	case w.svc == nil || errors.Is(w.err, weather.ErrNotConfigured):
		return st.muted.Render("Add an API key and a location in Settings.")
	case !w.has && w.loading:
		return st.muted.Render("Loading…")
	case !w.has && w.err != nil:
		return st.err.Render(truncate(w.err.Error(), width*3))
	}

	d := w.reading.Data
	temp, speed := unitSymbols(w.reading.Units)
	city := d.City
	if city == "" {
		city = w.reading.Location
	}

	rows := []string{
		st.big.Render(fmt.Sprintf("%.0f%s", d.Temp, temp)) + "  " + st.normalItem.Render(d.Description),
		st.subtitle.Render(truncate(city, width)),
		st.muted.Render(fmt.Sprintf("humidity %d%%  wind %.1f %s", d.Humidity, d.WindSpeed, speed)),
	}
	if w.err != nil {
		rows = append(rows, st.warning.Render(truncate("stale: "+w.err.Error(), width)))
	}
	if len(d.Forecast) > 0 {
		rows = append(rows, "", forecastChart(st, d.Forecast, width), forecastLabels(d.Forecast, width))
	}
	return strings.Join(rows, "\n")
}

// forecastChart draws daily temperatures as bars. Bars start at the coldest
// day so that freezing forecasts still render.
func forecastChart(st styles, days []store.ForecastDay, width int) string {
	lo := math.Inf(1)
	for _, d := range days {
		lo = math.Min(lo, d.Temp)
	}

	chart := barchart.New(max(10, width), 6)
	var bars []barchart.BarData
	for _, d := range days {
		bars = append(bars, barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{{
				Name:  d.Date,
				Value: d.Temp - lo + 1,
				Style: lipgloss.NewStyle().Foreground(st.pal.secondary),
			}},
		})
	}
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

func forecastLabels(days []store.ForecastDay, width int) string {
	cell := max(1, width/max(1, len(days)))
	var b strings.Builder
	for _, d := range days {
		label := d.Date
		if t, err := time.Parse(store.DayFormat, d.Date); err == nil {
			label = t.Format("Mon")
		}
		label = fmt.Sprintf("%s %.0f°", label, d.Temp)
		b.WriteString(fmt.Sprintf("%-*s", cell, truncate(label, cell)))
	}
	return b.String()
}
