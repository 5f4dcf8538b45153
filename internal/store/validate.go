package store

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type validity interface {
	Valid() bool
}

// wellFormed walks v and runs struct validation on every struct it reaches.
func wellFormed(v any) error {
	if c, ok := v.(validity); ok && !c.Valid() {
		return fmt.Errorf("invalid value %v", v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return wellFormed(rv.Elem().Interface())
	case reflect.Struct:
		return validate.Struct(v)
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			if err := wellFormed(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := wellFormed(iter.Value().Interface()); err != nil {
				return fmt.Errorf("[%v]: %w", iter.Key(), err)
			}
		}
	}
	return nil
}

var (
	ErrDuplicateID = errors.New("duplicate id")
	ErrLinkOrder   = errors.New("link orders must be 0..n-1 without ties")
)

// consistent checks the invariants that span a whole collection. Writes must
// pass it; reads only need wellFormed.
func consistent(v any) error {
	switch v := v.(type) {
	case []Todo:
		if err := validate.Var(v, "unique=ID"); err != nil {
			return ErrDuplicateID
		}
	case []QuickLink:
		if err := validate.Var(v, "unique=ID"); err != nil {
			return ErrDuplicateID
		}
		if err := validate.Var(v, "unique=Order"); err != nil {
			return ErrLinkOrder
		}
		// n distinct orders below n are exactly 0..n-1.
		for _, l := range v {
			if l.Order >= len(v) {
				return fmt.Errorf("%w: order %d of %d links", ErrLinkOrder, l.Order, len(v))
			}
		}
	}
	return nil
}

// writable is the check every write path runs.
func writable(v any) error {
	if err := wellFormed(v); err != nil {
		return err
	}
	return consistent(v)
}
