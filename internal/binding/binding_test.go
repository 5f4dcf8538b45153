package binding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadopc/nexus/internal/backend"
	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

// gatedBackend blocks reads until gate is closed.
type gatedBackend struct {
	backend.Backend
	gate chan struct{}
}

func (g *gatedBackend) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	<-g.gate
	return g.Backend.Get(ctx, keys)
}

// countingBackend records every write and can be told to fail them.
type countingBackend struct {
	backend.Backend
	mu     sync.Mutex
	writes []map[string][]byte
	fail   error
}

func (c *countingBackend) Set(ctx context.Context, items map[string][]byte) error {
	c.mu.Lock()
	c.writes = append(c.writes, items)
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.Backend.Set(ctx, items)
}

func (c *countingBackend) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.writes {
		if _, ok := w[key]; ok {
			n++
		}
	}
	return n
}

func memoryBackend() backend.Backend {
	return backend.NewLocal(backend.NewMemoryStrings())
}

func newTestStore(t *testing.T, b backend.Backend) *store.Store {
	t.Helper()
	s := store.New(b, logger.Nop())
	t.Cleanup(func() { s.Close() })
	return s
}

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

// ============================================================
// Mount / Unmount
// ============================================================

func TestMountLoadsValue(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	ctx := context.Background()
	if err := store.Set(ctx, s, store.KeyNotes, "hello"); err != nil {
		t.Fatalf("seed notes: %v", err)
	}

	b := New(s, store.KeyNotes, nil)
	if !b.Loading() {
		t.Fatal("expected loading before mount completes")
	}
	var calls []string
	b.Subscribe(func(v string) { calls = append(calls, v) })

	<-b.Mount(ctx)

	v, loaded := b.Value()
	if !loaded || v != "hello" {
		t.Fatalf("expected loaded 'hello', got %q loaded=%v", v, loaded)
	}
	if b.Loading() {
		t.Error("expected loading false")
	}
	if len(calls) != 1 || calls[0] != "hello" {
		t.Errorf("expected one initial notification, got %v", calls)
	}
}

func TestMountOfEmptyStoreYieldsDefault(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	b := New(s, store.KeyTimezones, nil)
	<-b.Mount(context.Background())

	v, _ := b.Value()
	if len(v) != 1 || v[0] != store.LocalZone {
		t.Errorf("expected default timezones, got %v", v)
	}
}

func TestUnmountDiscardsPendingLoad(t *testing.T) {
	gb := &gatedBackend{Backend: memoryBackend(), gate: make(chan struct{})}
	s := newTestStore(t, gb)

	b := New(s, store.KeyTheme, nil)
	called := false
	b.Subscribe(func(store.Theme) { called = true })

	done := b.Mount(context.Background())
	b.Unmount()
	close(gb.gate)
	wait(t, done)

	if !b.Loading() {
		t.Error("discarded load must not clear loading")
	}
	if v, _ := b.Value(); v != "" {
		t.Errorf("expected no value, got %q", v)
	}
	if called {
		t.Error("observer notified after unmount")
	}
}

func TestLoadAfterLocalSetKeepsLocalValue(t *testing.T) {
	gb := &gatedBackend{Backend: memoryBackend(), gate: make(chan struct{})}
	s := newTestStore(t, gb)
	ctx := context.Background()

	b := New(s, store.KeyNotes, nil)
	done := b.Mount(ctx)
	ack := b.Set(ctx, "typed while loading")
	close(gb.gate)
	wait(t, done)
	if err := wait(t, ack); err != nil {
		t.Fatalf("write: %v", err)
	}

	if v, _ := b.Value(); v != "typed while loading" {
		t.Errorf("load clobbered local value: %q", v)
	}
	if b.Loading() {
		t.Error("expected loading false")
	}
}

// ============================================================
// Set
// ============================================================

func TestSetIsOptimistic(t *testing.T) {
	gb := &gatedBackend{Backend: memoryBackend(), gate: make(chan struct{})}
	cb := &countingBackend{Backend: gb}
	s := newTestStore(t, cb)
	ctx := context.Background()

	b := New(s, store.KeyDragEnabled, nil)
	var seen []bool
	b.Subscribe(func(v bool) { seen = append(seen, v) })

	ack := b.Set(ctx, false)
	if v, loaded := b.Value(); v || !loaded {
		t.Errorf("expected local false immediately, got %v loaded=%v", v, loaded)
	}
	if len(seen) != 1 || seen[0] {
		t.Errorf("expected synchronous notification, got %v", seen)
	}
	if err := wait(t, ack); err != nil {
		t.Fatalf("write: %v", err)
	}

	close(gb.gate)
	if store.Get(ctx, s, store.KeyDragEnabled) {
		t.Error("expected durable false")
	}
}

func TestSetFailureIsNotRolledBack(t *testing.T) {
	cb := &countingBackend{Backend: memoryBackend(), fail: errors.New("disk full")}
	s := newTestStore(t, cb)

	b := New(s, store.KeyNotes, nil)
	err := wait(t, b.Set(context.Background(), "draft"))
	if err == nil {
		t.Fatal("expected write error on ack channel")
	}
	if v, _ := b.Value(); v != "draft" {
		t.Errorf("local value rolled back to %q", v)
	}
}

func TestSetRejectsInvalidValueOnAck(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	b := New(s, store.KeyTheme, nil)
	if err := wait(t, b.Set(context.Background(), store.Theme("neon"))); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWritesFromOneBindingLandInOrder(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	ctx := context.Background()
	b := New(s, store.KeyNotes, nil)

	acks := make([]<-chan error, 0, 50)
	for i := 0; i < 50; i++ {
		acks = append(acks, b.Set(ctx, fmt.Sprintf("v%d", i)))
	}
	for _, ack := range acks {
		if err := wait(t, ack); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got := store.Get(ctx, s, store.KeyNotes); got != "v49" {
		t.Errorf("expected last write v49 durable, got %q", got)
	}
}

func TestUpdateComposesOnCurrentValue(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	ctx := context.Background()
	b := New(s, store.KeyTimezones, nil)
	<-b.Mount(ctx)

	ack := b.Update(ctx, func(z []string) []string { return append(append([]string{}, z...), "UTC") })
	if err := wait(t, ack); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.Get(ctx, s, store.KeyTimezones); len(got) != 2 || got[1] != "UTC" {
		t.Errorf("unexpected timezones %v", got)
	}
}

func TestSiblingBindingsDoNotPush(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	ctx := context.Background()

	a := New(s, store.KeyTheme, nil)
	b := New(s, store.KeyTheme, nil)
	<-a.Mount(ctx)
	<-b.Mount(ctx)

	var notified atomic.Bool
	b.Subscribe(func(store.Theme) { notified.Store(true) })

	if err := wait(t, a.Set(ctx, store.ThemeLight)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := b.Value(); v != store.ThemeDark {
		t.Errorf("sibling should still hold dark, got %s", v)
	}
	if notified.Load() {
		t.Error("sibling was notified of a foreign write")
	}

	<-b.Mount(ctx)
	if v, _ := b.Value(); v != store.ThemeLight {
		t.Errorf("sibling should see light after remount, got %s", v)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newTestStore(t, memoryBackend())
	b := New(s, store.KeyNotes, nil)

	n := 0
	unsub := b.Subscribe(func(string) { n++ })
	b.Set(context.Background(), "a")
	unsub()
	b.Set(context.Background(), "b")
	if n != 1 {
		t.Errorf("expected 1 notification, got %d", n)
	}
}

// ============================================================
// Debouncer
// ============================================================

func TestDebouncedNotesProduceOneWrite(t *testing.T) {
	cb := &countingBackend{Backend: memoryBackend()}
	s := newTestStore(t, cb)
	ctx := context.Background()

	saved := make(chan string, 10)
	d := NewDebouncer(NotesQuietWindow, func(v string) {
		if err := store.Set(ctx, s, store.KeyNotes, v); err != nil {
			t.Errorf("save: %v", err)
		}
		saved <- v
	})

	for i := 1; i <= 5; i++ {
		d.Push(fmt.Sprintf("edit %d", i))
		time.Sleep(20 * time.Millisecond)
	}

	if got := wait(t, saved); got != "edit 5" {
		t.Errorf("expected last edit saved, got %q", got)
	}
	time.Sleep(NotesQuietWindow + 100*time.Millisecond)

	if n := cb.count("notes"); n != 1 {
		t.Errorf("expected exactly one durable write, got %d", n)
	}
	if got := store.Get(ctx, s, store.KeyNotes); got != "edit 5" {
		t.Errorf("expected stored 'edit 5', got %q", got)
	}
}

func TestDebouncerWaitsForQuietWindow(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(200*time.Millisecond, func(string) { n.Add(1) })

	d.Push("a")
	time.Sleep(50 * time.Millisecond)
	if n.Load() != 0 || !d.Pending() {
		t.Fatal("saved before the quiet window elapsed")
	}
	d.Push("b")
	time.Sleep(150 * time.Millisecond)
	if n.Load() != 0 {
		t.Fatal("second push did not restart the timer")
	}
	time.Sleep(200 * time.Millisecond)
	if n.Load() != 1 {
		t.Fatalf("expected one save, got %d", n.Load())
	}
}

func TestDebouncerCancelDropsPending(t *testing.T) {
	var n atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func(string) { n.Add(1) })

	d.Push("a")
	d.Cancel()
	time.Sleep(80 * time.Millisecond)
	if n.Load() != 0 {
		t.Errorf("cancelled value was saved")
	}
}

func TestDebouncerFlush(t *testing.T) {
	var got []string
	var mu sync.Mutex
	d := NewDebouncer(30*time.Millisecond, func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	d.Push("a")
	d.Flush()
	d.Flush()
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("expected single flushed save, got %v", got)
	}
}
