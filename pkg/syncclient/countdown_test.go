package syncclient_test

import (
	"testing"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/syncclient"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func runningPayload(serverNow, endAt int64) *models.TimerStatePayload {
	return &models.TimerStatePayload{
		TimerState: models.TimerState{Status: models.TimerRunning, EndAt: endAt},
		ServerTime: serverNow,
	}
}

func TestSkewedClientsAgreeOnRemaining(t *testing.T) {
	const serverNow = int64(1_000_000)
	payload := runningPayload(serverNow, serverNow+60_000)

	// One client's clock runs two minutes ahead of the server, the
	// other's thirty seconds behind.
	ahead := syncclient.NewCountdown()
	ahead.Now = fixedClock(serverNow + 120_000)
	ahead.Apply(payload)

	behind := syncclient.NewCountdown()
	behind.Now = fixedClock(serverNow - 30_000)
	behind.Apply(payload)

	diff := ahead.Remaining() - behind.Remaining()
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Second {
		t.Fatalf("skewed clients disagree: %v vs %v", ahead.Remaining(), behind.Remaining())
	}
	if got := ahead.Remaining(); got != 60*time.Second {
		t.Fatalf("expected 60s remaining, got %v", got)
	}
}

func TestRemainingCountsDownOnLocalClock(t *testing.T) {
	const serverNow = int64(1_000_000)
	c := syncclient.NewCountdown()
	c.Now = fixedClock(serverNow)
	c.Apply(runningPayload(serverNow, serverNow+60_000))

	c.Now = fixedClock(serverNow + 15_000)
	if got := c.Remaining(); got != 45*time.Second {
		t.Fatalf("expected 45s after 15s elapsed, got %v", got)
	}
}

func TestRemainingClampsAtZeroPastDeadline(t *testing.T) {
	const serverNow = int64(1_000_000)
	c := syncclient.NewCountdown()
	c.Now = fixedClock(serverNow)
	c.Apply(runningPayload(serverNow, serverNow+1_000))

	c.Now = fixedClock(serverNow + 10_000)
	if got := c.Remaining(); got != 0 {
		t.Fatalf("expected 0 past deadline, got %v", got)
	}
}

func TestPausedReportsFrozenRemainder(t *testing.T) {
	c := syncclient.NewCountdown()
	c.Now = fixedClock(5_000)
	c.Apply(&models.TimerStatePayload{
		TimerState: models.TimerState{Status: models.TimerPaused, RemainingMs: 42_000},
		ServerTime: 5_000,
	})

	// Local time moving on must not change a paused remainder.
	c.Now = fixedClock(500_000)
	if got := c.Remaining(); got != 42*time.Second {
		t.Fatalf("paused remainder drifted: %v", got)
	}
}

func TestPendingReportsZero(t *testing.T) {
	c := syncclient.NewCountdown()
	if got := c.Remaining(); got != 0 {
		t.Fatalf("pending timer should report 0, got %v", got)
	}
	if c.Status() != models.TimerPending {
		t.Fatalf("fresh countdown should be pending")
	}
}

func TestApplyRecomputesSkewEachPayload(t *testing.T) {
	c := syncclient.NewCountdown()
	c.Now = fixedClock(0)
	c.Apply(runningPayload(10_000, 70_000))
	if got := c.Remaining(); got != 60*time.Second {
		t.Fatalf("expected 60s with +10s skew, got %v", got)
	}

	// Server clock view shifts; next payload re-anchors.
	c.Apply(runningPayload(40_000, 70_000))
	if got := c.Remaining(); got != 30*time.Second {
		t.Fatalf("expected 30s after re-anchoring, got %v", got)
	}
}
