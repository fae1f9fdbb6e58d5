package rooms

import (
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
)

// Timer state is held purely in memory and evicted with the room. Every
// mutator returns the resulting payload (stamped with the server clock)
// and whether anything changed; unchanged results are not broadcast.

func (r *Registry) nowMs() int64 {
	return r.Clock().UnixMilli()
}

func (r *Registry) timerPayloadLocked(rm *room) *models.TimerStatePayload {
	return &models.TimerStatePayload{
		TimerState: rm.timer,
		ServerTime: r.nowMs(),
	}
}

// TimerSnapshot returns the current timer state plus server time.
func (r *Registry) TimerSnapshot(meetingID string) *models.TimerStatePayload {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return r.timerPayloadLocked(rm)
}

// StartTimer begins a countdown. Non-positive durations are ignored.
func (r *Registry) StartTimer(meetingID string, durationMs int64) (*models.TimerStatePayload, bool) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if durationMs <= 0 {
		return r.timerPayloadLocked(rm), false
	}

	rm.timer = models.TimerState{
		Status: models.TimerRunning,
		EndAt:  r.nowMs() + durationMs,
	}
	return r.timerPayloadLocked(rm), true
}

// PauseTimer freezes a running countdown, capturing the time left.
func (r *Registry) PauseTimer(meetingID string) (*models.TimerStatePayload, bool) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.timer.Status != models.TimerRunning {
		return r.timerPayloadLocked(rm), false
	}

	remaining := rm.timer.EndAt - r.nowMs()
	if remaining < 0 {
		remaining = 0
	}
	rm.timer = models.TimerState{
		Status:      models.TimerPaused,
		RemainingMs: remaining,
	}
	return r.timerPayloadLocked(rm), true
}

// ResumeTimer restarts a paused countdown from its captured remainder.
func (r *Registry) ResumeTimer(meetingID string) (*models.TimerStatePayload, bool) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.timer.Status != models.TimerPaused {
		return r.timerPayloadLocked(rm), false
	}

	rm.timer = models.TimerState{
		Status: models.TimerRunning,
		EndAt:  r.nowMs() + rm.timer.RemainingMs,
	}
	return r.timerPayloadLocked(rm), true
}

// CancelTimer unconditionally resets the countdown.
func (r *Registry) CancelTimer(meetingID string) (*models.TimerStatePayload, bool) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.timer = models.TimerState{Status: models.TimerPending}
	return r.timerPayloadLocked(rm), true
}

// TimerSettingsSnapshot returns the current settings plus server time.
func (r *Registry) TimerSettingsSnapshot(meetingID string) *models.TimerSettingsPayload {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return r.settingsPayloadLocked(rm)
}

// UpdateTimerSettings replaces the meeting's timer settings. Writing the
// values already in place is a noop.
func (r *Registry) UpdateTimerSettings(meetingID string, settings models.TimerSettings) (*models.TimerSettingsPayload, bool) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if settings == rm.settings {
		return r.settingsPayloadLocked(rm), false
	}

	rm.settings = settings
	return r.settingsPayloadLocked(rm), true
}

func (r *Registry) settingsPayloadLocked(rm *room) *models.TimerSettingsPayload {
	return &models.TimerSettingsPayload{
		TimerSettings: rm.settings,
		ServerTime:    r.nowMs(),
	}
}

// EditTimer moves the deadline to an absolute time, clamped to now so a
// proposed deadline in the past never yields negative remaining time. A
// paused timer stays paused with its remainder recomputed; a pending timer
// is promoted to running.
func (r *Registry) EditTimer(meetingID string, proposedEndAt int64) (*models.TimerStatePayload, bool) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := r.nowMs()
	if proposedEndAt < now {
		proposedEndAt = now
	}

	if rm.timer.Status == models.TimerPaused {
		rm.timer.RemainingMs = proposedEndAt - now
		return r.timerPayloadLocked(rm), true
	}

	rm.timer = models.TimerState{
		Status: models.TimerRunning,
		EndAt:  proposedEndAt,
	}
	return r.timerPayloadLocked(rm), true
}
