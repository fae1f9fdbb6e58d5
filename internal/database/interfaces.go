package database

import (
	"context"
	"errors"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
)

// ErrNotFound is returned when a row the caller named does not exist.
var ErrNotFound = errors.New("not found")

type AgendaRepository interface {
	// ListAgendaItems returns a meeting's items ordered by
	// order_index ASC NULLS LAST, created_at ASC NULLS LAST, id ASC.
	ListAgendaItems(ctx context.Context, meetingID string) ([]*models.AgendaItem, error)
	CreateAgendaItem(ctx context.Context, item *models.AgendaItem) (*models.AgendaItem, error)
	UpdateAgendaItem(ctx context.Context, item *models.UpdateAgendaItemRequest) error
	DeleteAgendaItem(ctx context.Context, meetingID, itemID string) error
	// SetItemsProcessed flips the status/processed_at columns for a batch of
	// item ids in one statement.
	SetItemsProcessed(ctx context.Context, meetingID string, itemIDs []string, processed bool, processedAt *time.Time) error
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error)
	GetMeetingByID(ctx context.Context, id string) (*models.Meeting, error)
}

type NudgeRepository interface {
	SaveNudge(ctx context.Context, nudge *models.Nudge) error
	// CountNudges aggregates per-type counts since the last reset watermark.
	CountNudges(ctx context.Context, meetingID string) (*models.NudgeCounts, error)
	ResetNudges(ctx context.Context, meetingID string) error
}

type Database interface {
	AgendaRepository
	MeetingRepository
	NudgeRepository
	Close() error
}
