// Package quote picks a quote of the hour from a bundled list.
package quote

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sadopc/nexus/internal/store"
)

// Validity is how long a picked quote is shown before a new one is drawn.
const Validity = time.Hour

//go:embed quotes.json
var bundled []byte

type Quote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

var all = sync.OnceValues(func() ([]Quote, error) {
	var qs []Quote
	if err := json.Unmarshal(bundled, &qs); err != nil {
		return nil, fmt.Errorf("decode bundled quotes: %w", err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("decode bundled quotes: list is empty")
	}
	return qs, nil
})

// All returns the bundled quotes.
func All() ([]Quote, error) {
	return all()
}

// Fresh reports whether c may still be shown at now.
func Fresh(c *store.QuoteCache, now time.Time) bool {
	return c != nil && now.UnixMilli()-c.FetchedAt <= Validity.Milliseconds()
}

// Pick draws a quote uniformly with intn, which must return a value in
// [0, n). A nil intn uses math/rand/v2.
func Pick(now time.Time, intn func(n int) int) (store.QuoteCache, error) {
	qs, err := All()
	if err != nil {
		return store.QuoteCache{}, err
	}
	if intn == nil {
		intn = rand.IntN
	}
	q := qs[intn(len(qs))]
	return store.QuoteCache{Quote: q.Quote, Author: q.Author, FetchedAt: now.UnixMilli()}, nil
}

// Current returns the stored quote while it is fresh and otherwise picks and
// stores a new one.
func Current(ctx context.Context, s *store.Store, now time.Time) (store.QuoteCache, error) {
	if c := store.Get(ctx, s, store.KeyQuoteCache); Fresh(c, now) {
		return *c, nil
	}
	return Refresh(ctx, s, now)
}

// Refresh always picks and stores a new quote.
func Refresh(ctx context.Context, s *store.Store, now time.Time) (store.QuoteCache, error) {
	q, err := Pick(now, nil)
	if err != nil {
		return store.QuoteCache{}, err
	}
	if err := store.Set(ctx, s, store.KeyQuoteCache, &q); err != nil {
		return q, fmt.Errorf("store quote: %w", err)
	}
	return q, nil
}
