package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"
)

// LocalZone is the placeholder for the machine's own zone.
const LocalZone = "local"

var (
	ErrDuplicateZone = errors.New("timezone already added")
	ErrLocalZone     = errors.New("local timezone cannot be removed")
)

// AddTimezone appends zone after checking that it names a real location.
func AddTimezone(zones []string, zone string) ([]string, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return zones, ErrEmptyText
	}
	if slices.Contains(zones, zone) {
		return zones, fmt.Errorf("%w: %s", ErrDuplicateZone, zone)
	}
	if _, err := LoadZone(zone); err != nil {
		return zones, err
	}
	return append(slices.Clone(zones), zone), nil
}

func RemoveTimezone(zones []string, zone string) ([]string, error) {
	if zone == LocalZone {
		return zones, ErrLocalZone
	}
	return slices.DeleteFunc(slices.Clone(zones), func(z string) bool { return z == zone }), nil
}

// LoadZone resolves an IANA name, or LocalZone, to a location.
func LoadZone(zone string) (*time.Location, error) {
	if zone == LocalZone || zone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return loc, nil
}

// ZoneLabel is the short display name for a zone: the city part of an IANA
// name, or "Local".
func ZoneLabel(zone string) string {
	if zone == LocalZone {
		return "Local"
	}
	if i := strings.LastIndex(zone, "/"); i >= 0 {
		zone = zone[i+1:]
	}
	return strings.ReplaceAll(zone, "_", " ")
}
