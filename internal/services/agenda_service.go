package services

import (
	"context"
	"fmt"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/rooms"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

// Broadcaster fans an event out to every client subscribed to a meeting
// room. The websocket manager implements it.
type Broadcaster interface {
	BroadcastEvent(meetingID, event string, data any)
}

// AgendaService runs the agenda command set: join/get snapshots, advance,
// rewind, and the reload-after-REST-write path. Mutations go through the
// room registry, which serializes them per meeting and persists before
// returning.
type AgendaService struct {
	reg         *rooms.Registry
	broadcaster Broadcaster
}

func NewAgendaService(reg *rooms.Registry, broadcaster Broadcaster) *AgendaService {
	return &AgendaService{reg: reg, broadcaster: broadcaster}
}

// Snapshot serves join and explicit refresh requests. The caller unicasts
// the result to the requesting client only.
func (s *AgendaService) Snapshot(ctx context.Context, meetingID string) (*models.AgendaSnapshot, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("missing meeting id")
	}
	return s.reg.Snapshot(ctx, meetingID)
}

// Advance processes the current item and broadcasts the resulting patch.
// The returned ack goes to the issuing client only.
func (s *AgendaService) Advance(ctx context.Context, meetingID string) *models.Ack {
	return s.step(ctx, meetingID, s.reg.Advance)
}

// Rewind reverses the most recent advance and broadcasts the patch.
func (s *AgendaService) Rewind(ctx context.Context, meetingID string) *models.Ack {
	return s.step(ctx, meetingID, s.reg.Rewind)
}

func (s *AgendaService) step(ctx context.Context, meetingID string, op func(context.Context, string) (*models.AgendaSnapshot, bool, error)) *models.Ack {
	if meetingID == "" {
		return &models.Ack{OK: false, Error: "missing meeting id"}
	}

	snap, noop, err := op(ctx, meetingID)
	if err != nil {
		logger.Error("Agenda step failed for meeting %s: %v", meetingID, err)
		return &models.Ack{OK: false, Error: "internal error"}
	}
	if noop {
		return &models.Ack{OK: true, Noop: true, Version: snap.Version}
	}

	s.broadcaster.BroadcastEvent(meetingID, models.EventAgendaUpdate, snap)
	return &models.Ack{OK: true, Version: snap.Version}
}

// Reload discards the cached agenda, reloads from the store, and
// broadcasts the fresh snapshot. REST handlers call this after any
// out-of-band create/update/delete so connected clients converge.
func (s *AgendaService) Reload(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return fmt.Errorf("missing meeting id")
	}

	snap, err := s.reg.ForceReload(ctx, meetingID)
	if err != nil {
		return err
	}

	s.broadcaster.BroadcastEvent(meetingID, models.EventAgendaUpdate, snap)
	return nil
}
