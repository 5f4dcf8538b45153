package store

import (
	"encoding/json"
	"slices"
)

// LegacyWeatherSettings is every shape weatherSettings has been stored in.
// Older builds kept a single location string and no index.
type LegacyWeatherSettings struct {
	APIKey               string    `json:"apiKey"`
	Location             *string   `json:"location,omitempty"`
	Locations            *[]string `json:"locations,omitempty"`
	CurrentLocationIndex *int      `json:"currentLocationIndex,omitempty"`
	Units                Units     `json:"units"`
}

// MigrateWeatherSettings converts any stored weather settings shape into the
// current one and reports whether the result differs from the input. A legacy
// location is folded into the list; an absent one leaves the list empty.
// An index outside the list is reset to 0.
func MigrateWeatherSettings(in LegacyWeatherSettings) (WeatherSettings, bool) {
	out := WeatherSettings{APIKey: in.APIKey, Units: in.Units}
	changed := false

	out.Locations = []string{}
	if in.Locations != nil {
		out.Locations = append(out.Locations, *in.Locations...)
	} else {
		changed = true
	}
	// The legacy field is dropped once locations exist, but its value is kept:
	// at index 0 of an empty list, appended to a list that lacks it.
	if in.Location != nil {
		changed = true
		if loc := *in.Location; loc != "" && !slices.Contains(out.Locations, loc) {
			out.Locations = append(out.Locations, loc)
		}
	}

	if in.CurrentLocationIndex == nil {
		changed = true
	} else {
		out.CurrentLocationIndex = *in.CurrentLocationIndex
	}
	if out.CurrentLocationIndex < 0 || (out.CurrentLocationIndex > 0 && out.CurrentLocationIndex >= len(out.Locations)) {
		out.CurrentLocationIndex = 0
		changed = true
	}

	if out.Units == "" {
		out.Units = UnitsMetric
		changed = true
	}
	return out, changed
}

// UpgradeWeatherSettings decodes a stored weatherSettings payload of any
// known shape.
func UpgradeWeatherSettings(raw []byte) (WeatherSettings, bool, error) {
	var legacy LegacyWeatherSettings
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return WeatherSettings{}, false, err
	}
	ws, changed := MigrateWeatherSettings(legacy)
	return ws, changed, nil
}

func DefaultWidgetLayout() WidgetLayout {
	layout := make(WidgetLayout, len(WidgetKeys))
	for i, key := range WidgetKeys {
		layout[key] = WidgetPlacement{Visible: true, Order: i}
	}
	return layout
}

// FillWidgetLayout appends every known widget missing from layout, visible,
// after the current highest order. It reports whether anything was added.
func FillWidgetLayout(layout WidgetLayout) (WidgetLayout, bool) {
	out := make(WidgetLayout, len(WidgetKeys))
	next := 0
	for key, p := range layout {
		out[key] = p
		if p.Order >= next {
			next = p.Order + 1
		}
	}
	changed := false
	for _, key := range WidgetKeys {
		if _, ok := out[key]; ok {
			continue
		}
		out[key] = WidgetPlacement{Visible: true, Order: next}
		next++
		changed = true
	}
	return out, changed
}

func upgradeWidgetLayout(raw []byte) (WidgetLayout, bool, error) {
	var layout WidgetLayout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return nil, false, err
	}
	filled, changed := FillWidgetLayout(layout)
	return filled, changed, nil
}
