package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetByName returns the current value of the named record, with the same
// default fallback as Get.
func (s *Store) GetByName(ctx context.Context, name string) (any, error) {
	r, err := lookup(name)
	if err != nil {
		return nil, err
	}
	values, err := s.backend.Get(ctx, []string{name})
	if err != nil {
		s.log.WithKey(name).WithError(err).Warn("read failed, using default")
		return r.defaultAny(), nil
	}
	raw, ok := values[name]
	return r.load(ctx, s, raw, ok), nil
}

// SetJSON replaces the named record with raw after checking that raw decodes
// into the record's type and passes validation.
func (s *Store) SetJSON(ctx context.Context, name string, raw []byte) error {
	r, err := lookup(name)
	if err != nil {
		return err
	}
	if !json.Valid(raw) {
		return fmt.Errorf("set %s: invalid JSON", name)
	}
	canonical, err := r.encodeJSON(raw)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	if err := s.backend.Set(ctx, map[string][]byte{name: canonical}); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// DefaultByName returns the compiled-in default of the named record.
func (s *Store) DefaultByName(name string) (any, error) {
	r, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return r.defaultAny(), nil
}

// SetManyJSON validates every item like SetJSON and writes them in one
// backend call. Nothing is written if any item is rejected.
func (s *Store) SetManyJSON(ctx context.Context, items map[string]json.RawMessage) error {
	canonical := make(map[string][]byte, len(items))
	for name, raw := range items {
		r, err := lookup(name)
		if err != nil {
			return err
		}
		b, err := r.encodeJSON(raw)
		if err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
		canonical[name] = b
	}
	if len(canonical) == 0 {
		return nil
	}
	if err := s.backend.Set(ctx, canonical); err != nil {
		return fmt.Errorf("set records: %w", err)
	}
	return nil
}
