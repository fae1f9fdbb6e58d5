package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

// Registry holds the authoritative in-memory state for every active
// meeting: agenda progression and the countdown timer. All mutation goes
// through Registry methods, which serialize per meeting, so an
// advance/persist pair can never interleave with another command for the
// same meeting.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*room
	db    database.AgendaRepository

	// Clock is swappable for tests.
	Clock func() time.Time
}

type room struct {
	mu sync.Mutex

	loaded       bool
	version      int64
	items        []*models.AgendaItem
	currentIndex int

	timer    models.TimerState
	settings models.TimerSettings
}

func NewRegistry(db database.AgendaRepository) *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		db:    db,
		Clock: time.Now,
	}
}

// room returns the state holder for a meeting, creating it unloaded on
// first access. Agenda state is loaded lazily by ensureLocked.
func (r *Registry) room(meetingID string) *room {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[meetingID]
	if !ok {
		rm = &room{
			timer:    models.TimerState{Status: models.TimerPending},
			settings: models.DefaultTimerSettings(),
		}
		r.rooms[meetingID] = rm
	}
	return rm
}

// Evict drops a meeting's cached state. The websocket manager calls this
// once a room has had no connected clients for the idle window; the next
// access reloads from the store.
func (r *Registry) Evict(meetingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[meetingID]; ok {
		delete(r.rooms, meetingID)
		logger.Debug("Evicted cached state for meeting %s", meetingID)
	}
}

// ensureLocked loads agenda state from the store if this room has not been
// loaded yet. Callers must hold rm.mu. Store errors propagate.
func (r *Registry) ensureLocked(ctx context.Context, meetingID string, rm *room) error {
	if rm.loaded {
		return nil
	}

	items, err := r.db.ListAgendaItems(ctx, meetingID)
	if err != nil {
		return err
	}

	rm.items = items
	rm.currentIndex = firstUnprocessed(items)
	rm.loaded = true
	return nil
}

// firstUnprocessed returns the position of the first item with
// IsProcessed == false, or len(items) when every item is processed.
func firstUnprocessed(items []*models.AgendaItem) int {
	for i, item := range items {
		if !item.IsProcessed {
			return i
		}
	}
	return len(items)
}

// snapshotLocked clones the room's agenda state so callers can marshal it
// after the lock is released.
func snapshotLocked(rm *room) *models.AgendaSnapshot {
	agenda := make([]*models.AgendaItem, len(rm.items))
	for i, item := range rm.items {
		clone := *item
		if item.ProcessedAt != nil {
			at := *item.ProcessedAt
			clone.ProcessedAt = &at
		}
		agenda[i] = &clone
	}
	return &models.AgendaSnapshot{
		Version:      rm.version,
		Agenda:       agenda,
		CurrentIndex: rm.currentIndex,
	}
}
