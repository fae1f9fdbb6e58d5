package services

import (
	"context"
	"fmt"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

// NudgeService records participant nudges and keeps every room member's
// counters current. Counters are also served over REST for clients that
// poll instead of listening to the broadcast.
type NudgeService struct {
	db          database.NudgeRepository
	broadcaster Broadcaster
}

func NewNudgeService(db database.NudgeRepository, broadcaster Broadcaster) *NudgeService {
	return &NudgeService{db: db, broadcaster: broadcaster}
}

// Record validates and persists one nudge, then broadcasts the nudge and
// refreshed counters to the room.
func (s *NudgeService) Record(ctx context.Context, nudge *models.Nudge) error {
	if nudge.MeetingID == "" {
		return fmt.Errorf("missing meeting id")
	}
	if nudge.ParticipantID == "" {
		return fmt.Errorf("missing participant id")
	}
	if !nudge.Type.Valid() {
		return fmt.Errorf("invalid nudge type %q", nudge.Type)
	}
	if nudge.Timestamp.IsZero() {
		nudge.Timestamp = time.Now()
	}

	if err := s.db.SaveNudge(ctx, nudge); err != nil {
		return fmt.Errorf("failed to save nudge: %w", err)
	}

	s.broadcaster.BroadcastEvent(nudge.MeetingID, models.EventNudge, nudge)
	s.broadcastCounts(ctx, nudge.MeetingID)
	return nil
}

// Counts serves the aggregate poll endpoint.
func (s *NudgeService) Counts(ctx context.Context, meetingID string) (*models.NudgeCounts, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("missing meeting id")
	}
	return s.db.CountNudges(ctx, meetingID)
}

// Reset zeroes a meeting's counters (host action) and pushes the zeroed
// aggregate to the room.
func (s *NudgeService) Reset(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return fmt.Errorf("missing meeting id")
	}

	if err := s.db.ResetNudges(ctx, meetingID); err != nil {
		return fmt.Errorf("failed to reset nudges: %w", err)
	}

	s.broadcastCounts(ctx, meetingID)
	return nil
}

func (s *NudgeService) broadcastCounts(ctx context.Context, meetingID string) {
	counts, err := s.db.CountNudges(ctx, meetingID)
	if err != nil {
		logger.Error("Error aggregating nudge counts for meeting %s: %v", meetingID, err)
		return
	}
	s.broadcaster.BroadcastEvent(meetingID, models.EventNudgeCounts, counts)
}
