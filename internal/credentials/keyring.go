// Package credentials keeps secrets such as the weather API key in the system
// keyring instead of the record store.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	serviceName       = "nexus"
	WeatherAPIKeyName = "WEATHER_API_KEY"
)

var ErrNotFound = errors.New("secret not found")

func Get(name string) (string, error) {
	v, err := keyring.Get(serviceName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read secret %q: %w", name, err)
	}
	return v, nil
}

func Set(name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("secret %q cannot be empty", name)
	}
	if err := keyring.Set(serviceName, name, value); err != nil {
		return fmt.Errorf("store secret %q: %w", name, err)
	}
	return nil
}

func Delete(name string) error {
	if err := keyring.Delete(serviceName, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete secret %q: %w", name, err)
	}
	return nil
}

// WeatherKey reads the weather API key. It satisfies weather.KeySource.
type WeatherKey struct{}

func (WeatherKey) APIKey() (string, error) { return Get(WeatherAPIKeyName) }
