// Package binding gives UI components a per-key view of a persisted record:
// one initial asynchronous read, synchronous local updates, and
// fire-and-forget durable writes.
package binding

import (
	"context"
	"sync"

	"github.com/sadopc/nexus/internal/logger"
	"github.com/sadopc/nexus/internal/store"
)

// Binding holds one component's copy of a record. Bindings for the same key
// do not notify each other; a sibling sees a change on its next Mount.
type Binding[T any] struct {
	store *store.Store
	key   store.Key[T]
	log   *logger.Logger

	mu        sync.Mutex
	value     T
	loading   bool
	mounted   bool
	dirty     bool // written locally during the current mount
	gen       uint64
	observers map[int]func(T)
	nextObs   int

	writeMu sync.Mutex
	seq     uint64
	written uint64
}

func New[T any](s *store.Store, key store.Key[T], log *logger.Logger) *Binding[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &Binding[T]{
		store:     s,
		key:       key,
		log:       log.WithKey(key.Name()),
		loading:   true,
		observers: make(map[int]func(T)),
	}
}

func (b *Binding[T]) Key() string { return b.key.Name() }

// Mount starts the single initial read. The returned channel is closed once
// the read has been applied or discarded. A result arriving after Unmount is
// discarded, as is one arriving after a local Set.
func (b *Binding[T]) Mount(ctx context.Context) <-chan struct{} {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mounted = true
	b.loading = true
	b.dirty = false
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		v := store.Get(ctx, b.store, b.key)

		b.mu.Lock()
		if !b.mounted || b.gen != gen {
			b.mu.Unlock()
			return
		}
		b.loading = false
		if b.dirty {
			b.mu.Unlock()
			return
		}
		b.value = v
		obs := b.snapshotObservers()
		b.mu.Unlock()

		notify(obs, v)
	}()
	return done
}

// Unmount tears the binding down. Pending loads are discarded.
func (b *Binding[T]) Unmount() {
	b.mu.Lock()
	b.mounted = false
	b.gen++
	b.mu.Unlock()
}

// Value returns the current value and whether the initial read has finished.
func (b *Binding[T]) Value() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, !b.loading || b.dirty
}

func (b *Binding[T]) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Set updates the local value and notifies observers before returning, then
// writes v to the store in the background. A write failure is logged and
// reported on the returned channel; the local value is not rolled back.
func (b *Binding[T]) Set(ctx context.Context, v T) <-chan error {
	b.mu.Lock()
	b.value = v
	b.dirty = true
	b.seq++
	seq := b.seq
	obs := b.snapshotObservers()
	b.mu.Unlock()

	notify(obs, v)

	ack := make(chan error, 1)
	go func() {
		defer close(ack)
		ack <- b.write(ctx, seq, v)
	}()
	return ack
}

// Update applies fn to the current value and sets the result.
func (b *Binding[T]) Update(ctx context.Context, fn func(T) T) <-chan error {
	b.mu.Lock()
	cur := b.value
	b.mu.Unlock()
	return b.Set(ctx, fn(cur))
}

// write persists v unless a later Set on this binding already has. Writes from
// one binding therefore land in call order.
func (b *Binding[T]) write(ctx context.Context, seq uint64, v T) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if seq < b.written {
		return nil
	}
	if err := store.Set(ctx, b.store, b.key, v); err != nil {
		b.log.WithError(err).Warn("durable write failed")
		return err
	}
	b.written = seq
	return nil
}

// Subscribe registers fn for every local Set and for the initial load.
func (b *Binding[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

func (b *Binding[T]) snapshotObservers() []func(T) {
	obs := make([]func(T), 0, len(b.observers))
	for i := 0; i < b.nextObs; i++ {
		if fn, ok := b.observers[i]; ok {
			obs = append(obs, fn)
		}
	}
	return obs
}

func notify[T any](obs []func(T), v T) {
	for _, fn := range obs {
		fn(v)
	}
}
