package syncclient

import (
	"sync"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
)

// ResyncInterval is how often a client re-requests timer state while a
// countdown is running, correcting any drift that accumulates between
// broadcasts.
const ResyncInterval = 10 * time.Second

// Countdown renders a server-driven countdown on a local clock. Each
// received payload carries the server's clock; the difference to the
// local clock is stored as skew and applied to every subsequent tick, so
// two clients with different wall clocks show the same remaining time.
type Countdown struct {
	mu     sync.Mutex
	state  models.TimerState
	skewMs int64

	// Now is swappable for tests.
	Now func() time.Time
}

func NewCountdown() *Countdown {
	return &Countdown{
		state: models.TimerState{Status: models.TimerPending},
		Now:   time.Now,
	}
}

// Apply ingests a timer:state payload, recomputing skew from its
// serverTime.
func (c *Countdown) Apply(payload *models.TimerStatePayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = payload.TimerState
	c.skewMs = payload.ServerTime - c.Now().UnixMilli()
}

// Remaining is the skew-corrected time left. Paused timers report their
// frozen remainder; pending timers report zero; a running timer past its
// deadline clamps to zero.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state.Status {
	case models.TimerRunning:
		serverNow := c.Now().UnixMilli() + c.skewMs
		left := c.state.EndAt - serverNow
		if left < 0 {
			left = 0
		}
		return time.Duration(left) * time.Millisecond
	case models.TimerPaused:
		return time.Duration(c.state.RemainingMs) * time.Millisecond
	default:
		return 0
	}
}

func (c *Countdown) Status() models.TimerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status
}
