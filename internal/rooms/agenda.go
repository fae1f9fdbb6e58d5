package rooms

import (
	"context"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
)

// Snapshot returns a meeting's current agenda state, loading it from the
// store on first access.
func (r *Registry) Snapshot(ctx context.Context, meetingID string) (*models.AgendaSnapshot, error) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := r.ensureLocked(ctx, meetingID, rm); err != nil {
		return nil, err
	}
	return snapshotLocked(rm), nil
}

// Advance marks the current item processed, persists the flag, and bumps
// the version. Returns noop=true (state untouched, version unchanged) when
// no unprocessed item exists. A store failure is returned after the
// in-memory mutation; cache and store stay diverged until the next reload.
func (r *Registry) Advance(ctx context.Context, meetingID string) (*models.AgendaSnapshot, bool, error) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := r.ensureLocked(ctx, meetingID, rm); err != nil {
		return nil, false, err
	}

	if rm.currentIndex >= len(rm.items) {
		return snapshotLocked(rm), true, nil
	}

	item := rm.items[rm.currentIndex]
	now := r.Clock()
	item.IsProcessed = true
	item.ProcessedAt = &now
	rm.currentIndex = firstUnprocessed(rm.items)
	rm.version++

	if err := r.db.SetItemsProcessed(ctx, meetingID, []string{item.ID}, true, &now); err != nil {
		return nil, false, err
	}

	return snapshotLocked(rm), false, nil
}

// Rewind reverses the most recently processed item, scanning from the end
// of the agenda order. Returns noop=true when nothing is processed.
func (r *Registry) Rewind(ctx context.Context, meetingID string) (*models.AgendaSnapshot, bool, error) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := r.ensureLocked(ctx, meetingID, rm); err != nil {
		return nil, false, err
	}

	var target *models.AgendaItem
	for i := len(rm.items) - 1; i >= 0; i-- {
		if rm.items[i].IsProcessed {
			target = rm.items[i]
			break
		}
	}
	if target == nil {
		return snapshotLocked(rm), true, nil
	}

	target.IsProcessed = false
	target.ProcessedAt = nil
	rm.currentIndex = firstUnprocessed(rm.items)
	rm.version++

	if err := r.db.SetItemsProcessed(ctx, meetingID, []string{target.ID}, false, nil); err != nil {
		return nil, false, err
	}

	return snapshotLocked(rm), false, nil
}

// ForceReload discards the cached agenda and reloads it from the store.
// Used after out-of-band REST writes (create/update/delete/batch) so the
// next broadcast reflects what was actually persisted. The version keeps
// climbing across reloads so clients never mistake the fresh snapshot for
// a stale one.
func (r *Registry) ForceReload(ctx context.Context, meetingID string) (*models.AgendaSnapshot, error) {
	rm := r.room(meetingID)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	items, err := r.db.ListAgendaItems(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	rm.items = items
	rm.currentIndex = firstUnprocessed(items)
	rm.version++
	rm.loaded = true

	return snapshotLocked(rm), nil
}
