package weather

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sadopc/nexus/internal/store"
)

var (
	ErrEmptyLocation     = errors.New("location is empty")
	ErrDuplicateLocation = errors.New("location already added")
	ErrNoSuchLocation    = errors.New("no such location")
)

// AddLocation appends loc and selects it.
func AddLocation(ws store.WeatherSettings, loc string) (store.WeatherSettings, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return ws, ErrEmptyLocation
	}
	if slices.ContainsFunc(ws.Locations, func(l string) bool { return strings.EqualFold(l, loc) }) {
		return ws, fmt.Errorf("%w: %s", ErrDuplicateLocation, loc)
	}
	ws.Locations = append(slices.Clone(ws.Locations), loc)
	ws.CurrentLocationIndex = len(ws.Locations) - 1
	return ws, nil
}

// RemoveLocation drops the location at i. The selection stays on the same
// location when it survives and otherwise moves to the nearest remaining one.
func RemoveLocation(ws store.WeatherSettings, i int) (store.WeatherSettings, error) {
	if i < 0 || i >= len(ws.Locations) {
		return ws, fmt.Errorf("%w: index %d", ErrNoSuchLocation, i)
	}
	ws.Locations = slices.Delete(slices.Clone(ws.Locations), i, i+1)
	switch {
	case i < ws.CurrentLocationIndex:
		ws.CurrentLocationIndex--
	case ws.CurrentLocationIndex >= len(ws.Locations):
		ws.CurrentLocationIndex = max(len(ws.Locations)-1, 0)
	}
	return ws, nil
}

// NextLocation cycles the selection forward, wrapping at the end.
func NextLocation(ws store.WeatherSettings) store.WeatherSettings {
	if len(ws.Locations) > 0 {
		ws.CurrentLocationIndex = (ws.CurrentLocationIndex + 1) % len(ws.Locations)
	}
	return ws
}

// ToggleUnits switches between metric and imperial.
func ToggleUnits(ws store.WeatherSettings) store.WeatherSettings {
	if ws.Units == store.UnitsImperial {
		ws.Units = store.UnitsMetric
	} else {
		ws.Units = store.UnitsImperial
	}
	return ws
}
