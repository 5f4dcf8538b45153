package binding

import (
	"sync"
	"time"
)

// NotesQuietWindow is how long note edits must pause before they are saved.
const NotesQuietWindow = 500 * time.Millisecond

// Debouncer coalesces bursts of values: each Push replaces the pending value
// and restarts the timer, and only the timer firing hands the latest value to
// the save function.
type Debouncer[T any] struct {
	delay time.Duration
	save  func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	has     bool
	gen     uint64
}

func NewDebouncer[T any](delay time.Duration, save func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, save: save}
}

func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = v
	d.has = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.has {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.has = false
	d.mu.Unlock()

	d.save(v)
}

// Pending reports whether a value is waiting for the timer.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.has
}

// Flush saves the pending value now, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	if !d.has {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.has = false
	d.mu.Unlock()

	d.save(v)
}

// Cancel drops the pending value without saving it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.has = false
}
