package syncclient

import (
	"sync"
	"time"
)

// Batcher coalesces rapid repeated mutations into one delayed flush.
// Every Add within the debounce window restarts the timer, so a burst of
// next/next/next becomes a single call carrying all three ids. Failed
// flushes are retried with exponential backoff; after MaxAttempts the
// batch is dropped and surfaced through OnFail instead of retrying
// forever.
type Batcher struct {
	delay       time.Duration
	maxAttempts int
	flush       func(ids []string) error
	onFail      func(ids []string, err error)

	mu       sync.Mutex
	pending  []string
	seen     map[string]bool
	attempts int
	timer    *time.Timer
	stopped  bool
}

func NewBatcher(delay time.Duration, maxAttempts int, flush func(ids []string) error, onFail func(ids []string, err error)) *Batcher {
	return &Batcher{
		delay:       delay,
		maxAttempts: maxAttempts,
		flush:       flush,
		onFail:      onFail,
		seen:        make(map[string]bool),
	}
}

// Add enqueues an id and (re)starts the debounce window.
func (b *Batcher) Add(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	if !b.seen[id] {
		b.seen[id] = true
		b.pending = append(b.pending, id)
	}
	b.scheduleLocked(b.delay)
}

func (b *Batcher) scheduleLocked(d time.Duration) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(d, b.fire)
}

func (b *Batcher) fire() {
	b.mu.Lock()
	if b.stopped || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.seen = make(map[string]bool)
	b.mu.Unlock()

	err := b.flush(batch)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.attempts = 0
		return
	}

	b.attempts++
	if b.attempts >= b.maxAttempts {
		b.attempts = 0
		if b.onFail != nil {
			go b.onFail(batch, err)
		}
		return
	}

	// Re-enqueue ahead of anything added during the flush and back off.
	later := b.pending
	b.pending = nil
	b.seen = make(map[string]bool)
	for _, id := range append(batch, later...) {
		if !b.seen[id] {
			b.seen[id] = true
			b.pending = append(b.pending, id)
		}
	}
	b.scheduleLocked(b.delay << b.attempts)
}

// Flush forces an immediate flush of whatever is pending.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.fire()
}

// Stop cancels the pending timer; queued ids are abandoned.
func (b *Batcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
}
