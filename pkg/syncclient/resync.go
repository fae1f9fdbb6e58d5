package syncclient

import (
	"sync"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
)

// resyncer re-requests timer state on a fixed interval while a countdown
// is running, correcting drift between broadcasts. observe is fed every
// received timer status: running starts the loop once, anything else
// stops it.
type resyncer struct {
	interval time.Duration
	request  func()

	mu   sync.Mutex
	stop chan struct{} // nil while idle
}

func newResyncer(interval time.Duration, request func()) *resyncer {
	return &resyncer{interval: interval, request: request}
}

func (r *resyncer) observe(status models.TimerStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status != models.TimerRunning {
		r.stopLocked()
		return
	}
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	go r.loop(r.stop)
}

func (r *resyncer) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.request()
		}
	}
}

func (r *resyncer) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *resyncer) stopLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}
