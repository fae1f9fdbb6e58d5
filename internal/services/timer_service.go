package services

import (
	"fmt"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/rooms"
)

// TimerService runs the countdown command set. Timer state is ephemeral
// and lives only in the room registry; every broadcast carries the server
// clock so clients can correct for skew.
type TimerService struct {
	reg         *rooms.Registry
	broadcaster Broadcaster
}

func NewTimerService(reg *rooms.Registry, broadcaster Broadcaster) *TimerService {
	return &TimerService{reg: reg, broadcaster: broadcaster}
}

// Get serves a unicast state request; the payload includes serverTime for
// the receiver's skew computation.
func (s *TimerService) Get(meetingID string) (*models.TimerStatePayload, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("missing meeting id")
	}
	return s.reg.TimerSnapshot(meetingID), nil
}

func (s *TimerService) Start(meetingID string, durationMs int64) *models.Ack {
	return s.apply(meetingID, func() (*models.TimerStatePayload, bool) {
		return s.reg.StartTimer(meetingID, durationMs)
	})
}

func (s *TimerService) Pause(meetingID string) *models.Ack {
	return s.apply(meetingID, func() (*models.TimerStatePayload, bool) {
		return s.reg.PauseTimer(meetingID)
	})
}

func (s *TimerService) Resume(meetingID string) *models.Ack {
	return s.apply(meetingID, func() (*models.TimerStatePayload, bool) {
		return s.reg.ResumeTimer(meetingID)
	})
}

func (s *TimerService) Cancel(meetingID string) *models.Ack {
	return s.apply(meetingID, func() (*models.TimerStatePayload, bool) {
		return s.reg.CancelTimer(meetingID)
	})
}

func (s *TimerService) Edit(meetingID string, proposedEndAt int64) *models.Ack {
	return s.apply(meetingID, func() (*models.TimerStatePayload, bool) {
		return s.reg.EditTimer(meetingID, proposedEndAt)
	})
}

// UpdateSettings replaces the meeting's timer settings and broadcasts the
// change; writing the settings already in place acks as noop without a
// broadcast.
func (s *TimerService) UpdateSettings(meetingID string, settings *models.TimerSettings) *models.Ack {
	if meetingID == "" {
		return &models.Ack{OK: false, Error: "missing meeting id"}
	}
	if settings == nil {
		return &models.Ack{OK: false, Error: "missing settings"}
	}

	payload, changed := s.reg.UpdateTimerSettings(meetingID, *settings)
	if !changed {
		return &models.Ack{OK: true, Noop: true}
	}

	s.broadcaster.BroadcastEvent(meetingID, models.EventSettingsUpdate, payload)
	return &models.Ack{OK: true}
}

// GetSettings serves a unicast settings request.
func (s *TimerService) GetSettings(meetingID string) (*models.TimerSettingsPayload, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("missing meeting id")
	}
	return s.reg.TimerSettingsSnapshot(meetingID), nil
}

// apply runs one timer mutation and broadcasts the resulting state to the
// room when it changed. Ignored commands (start with duration <= 0, pause
// while not running) ack as noop without a broadcast.
func (s *TimerService) apply(meetingID string, op func() (*models.TimerStatePayload, bool)) *models.Ack {
	if meetingID == "" {
		return &models.Ack{OK: false, Error: "missing meeting id"}
	}

	state, changed := op()
	if !changed {
		return &models.Ack{OK: true, Noop: true}
	}

	s.broadcaster.BroadcastEvent(meetingID, models.EventTimerState, state)
	return &models.Ack{OK: true}
}
