package quote

import (
	"context"
	"testing"
	"time"

	"github.com/sadopc/nexus/internal/store"
)

func TestBundledQuotesLoad(t *testing.T) {
	qs, err := All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	for i, q := range qs {
		if q.Quote == "" || q.Author == "" {
			t.Errorf("quote %d is incomplete: %+v", i, q)
		}
	}
}

func TestPickUsesIndex(t *testing.T) {
	qs, _ := All()
	now := time.UnixMilli(1_000)
	got, err := Pick(now, func(n int) int {
		if n != len(qs) {
			t.Errorf("expected n=%d, got %d", len(qs), n)
		}
		return n - 1
	})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got.Quote != qs[len(qs)-1].Quote || got.FetchedAt != 1_000 {
		t.Errorf("unexpected pick %+v", got)
	}
}

func TestFresh(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	c := &store.QuoteCache{Quote: "q", FetchedAt: now.UnixMilli()}
	if !Fresh(c, now.Add(59*time.Minute)) {
		t.Error("expected fresh within the hour")
	}
	if !Fresh(c, now.Add(Validity)) {
		t.Error("expected fresh at exactly one hour")
	}
	if Fresh(c, now.Add(Validity+time.Millisecond)) {
		t.Error("expected stale after one hour")
	}
	if Fresh(nil, now) {
		t.Error("missing cache is never fresh")
	}
}

func TestCurrentKeepsFreshQuote(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	now := time.Now()

	first, err := Current(ctx, s, now)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	again, err := Current(ctx, s, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if again != first {
		t.Errorf("fresh quote replaced: %+v -> %+v", first, again)
	}

	later, err := Current(ctx, s, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if later.FetchedAt == first.FetchedAt {
		t.Error("stale quote was not replaced")
	}
}
