// Package backend provides the raw key-value persistence primitives the
// typed store is built on. Values are opaque JSON payloads addressed by
// flat string keys.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadopc/nexus/internal/config"
	"github.com/sadopc/nexus/internal/logger"
)

// ErrUnavailable is returned by Open when the configured backend cannot be
// reached.
var ErrUnavailable = errors.New("backend unavailable")

// Backend is a flat key-value store over JSON-serializable payloads.
type Backend interface {
	// Get returns the stored payload for each key that exists. A nil keys
	// slice returns every stored key.
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	// Set overwrites the full payload for each key.
	Set(ctx context.Context, items map[string][]byte) error
	// Clear removes every key this backend owns.
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the backend named by cfg.Storage.Backend. When it cannot be
// opened, Open logs the failure and degrades to the local string store in
// the data directory, and from there to memory, so callers always get a
// working backend.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) Backend {
	var (
		b   Backend
		err error
	)
	switch cfg.Storage.Backend {
	case "sqlite":
		b, err = NewSQLite(cfg.Storage.DBPath)
	case "redis":
		b, err = NewRedis(ctx, cfg.Redis)
	case "local":
		b, err = openLocal(cfg.Storage.DataDir)
	default:
		err = fmt.Errorf("%w: unknown backend %q", ErrUnavailable, cfg.Storage.Backend)
	}
	if err == nil {
		log.Debugw("storage backend opened", "backend", cfg.Storage.Backend)
		return b
	}

	log.WithError(err).Warnw("storage backend unavailable, using local fallback", "backend", cfg.Storage.Backend)
	if cfg.Storage.Backend != "local" {
		if b, err = openLocal(cfg.Storage.DataDir); err == nil {
			return b
		}
		log.WithError(err).Warn("local fallback unavailable, using memory")
	}
	return NewLocal(NewMemoryStrings())
}

func openLocal(dataDir string) (Backend, error) {
	strs, err := NewFileStrings(LocalFilePath(dataDir))
	if err != nil {
		return nil, err
	}
	return NewLocal(strs), nil
}
