package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"

	"github.com/google/uuid"
)

// MemoryDB is an in-memory Database used by tests and local development.
// It applies the same ordering rules as the Postgres implementation.
type MemoryDB struct {
	mu        sync.Mutex
	items     map[string][]*models.AgendaItem // keyed by meeting id
	meetings  map[string]*models.Meeting
	nudges    map[string][]*models.Nudge
	resets    map[string]time.Time
	nextOrder map[string]int

	// FailWrites makes every mutating call return this error, for
	// exercising persistence-failure paths.
	FailWrites error
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		items:     make(map[string][]*models.AgendaItem),
		meetings:  make(map[string]*models.Meeting),
		nudges:    make(map[string][]*models.Nudge),
		resets:    make(map[string]time.Time),
		nextOrder: make(map[string]int),
	}
}

func (db *MemoryDB) Close() error { return nil }

func (db *MemoryDB) ListAgendaItems(_ context.Context, meetingID string) ([]*models.AgendaItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	items := db.items[meetingID]
	out := make([]*models.AgendaItem, len(items))
	for i, item := range items {
		clone := *item
		out[i] = &clone
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (db *MemoryDB) CreateAgendaItem(_ context.Context, item *models.AgendaItem) (*models.AgendaItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	created := *item
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.OrderIndex = db.nextOrder[item.MeetingID]
	db.nextOrder[item.MeetingID]++
	created.CreatedAt = time.Now()
	created.IsProcessed = false
	created.ProcessedAt = nil

	db.items[item.MeetingID] = append(db.items[item.MeetingID], &created)
	result := created
	return &result, nil
}

func (db *MemoryDB) UpdateAgendaItem(_ context.Context, req *models.UpdateAgendaItemRequest) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return db.FailWrites
	}

	for _, items := range db.items {
		for _, item := range items {
			if item.ID == req.ID {
				item.Text = req.Text
				item.TimerValue = req.TimerValue
				return nil
			}
		}
	}
	return ErrNotFound
}

func (db *MemoryDB) DeleteAgendaItem(_ context.Context, meetingID, itemID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return db.FailWrites
	}

	items := db.items[meetingID]
	for i, item := range items {
		if item.ID == itemID {
			db.items[meetingID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (db *MemoryDB) SetItemsProcessed(_ context.Context, meetingID string, itemIDs []string, processed bool, processedAt *time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return db.FailWrites
	}

	wanted := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	for _, item := range db.items[meetingID] {
		if wanted[item.ID] {
			item.IsProcessed = processed
			item.ProcessedAt = processedAt
		}
	}
	return nil
}

func (db *MemoryDB) CreateMeeting(_ context.Context, meeting *models.Meeting) (*models.Meeting, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	created := *meeting
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.CreatedAt = time.Now()
	db.meetings[created.ID] = &created
	result := created
	return &result, nil
}

func (db *MemoryDB) GetMeetingByID(_ context.Context, id string) (*models.Meeting, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	meeting, ok := db.meetings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *meeting
	return &clone, nil
}

func (db *MemoryDB) SaveNudge(_ context.Context, nudge *models.Nudge) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return db.FailWrites
	}

	clone := *nudge
	db.nudges[nudge.MeetingID] = append(db.nudges[nudge.MeetingID], &clone)
	return nil
}

func (db *MemoryDB) CountNudges(_ context.Context, meetingID string) (*models.NudgeCounts, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	counts := &models.NudgeCounts{MeetingID: meetingID}
	watermark := db.resets[meetingID]
	for _, nudge := range db.nudges[meetingID] {
		if !nudge.Timestamp.After(watermark) {
			continue
		}
		switch nudge.Type {
		case models.NudgeMoveAlong:
			counts.MoveAlong++
		case models.NudgeInviteSpeak:
			counts.InviteSpeak++
		}
	}
	return counts, nil
}

func (db *MemoryDB) ResetNudges(_ context.Context, meetingID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.FailWrites != nil {
		return db.FailWrites
	}

	db.resets[meetingID] = time.Now()
	return nil
}
