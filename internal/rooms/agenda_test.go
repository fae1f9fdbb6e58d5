package rooms_test

import (
	"context"
	"testing"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/rooms"
)

func seedAgenda(t *testing.T, db *database.MemoryDB, meetingID string, topics ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(topics))
	for _, topic := range topics {
		item, err := db.CreateAgendaItem(context.Background(), &models.AgendaItem{
			MeetingID:  meetingID,
			Text:       topic,
			TimerValue: 300,
		})
		if err != nil {
			t.Fatalf("seed item %q: %v", topic, err)
		}
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSnapshotDerivesCurrentIndex(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	ids := seedAgenda(t, db, "m1", "intro", "budget", "roadmap")

	reg := rooms.NewRegistry(db)

	// Mark the first item processed out-of-band, then load fresh.
	now := reg.Clock()
	if err := db.SetItemsProcessed(ctx, "m1", ids[:1], true, &now); err != nil {
		t.Fatalf("SetItemsProcessed: %v", err)
	}

	snap, err := reg.Snapshot(ctx, "m1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected currentIndex 1, got %d", snap.CurrentIndex)
	}
	if len(snap.Agenda) != 3 {
		t.Fatalf("expected 3 items, got %d", len(snap.Agenda))
	}
}

func TestAdvanceMarksCurrentProcessed(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "intro", "budget")

	reg := rooms.NewRegistry(db)

	snap, noop, err := reg.Advance(ctx, "m1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if noop {
		t.Fatalf("expected real advance, got noop")
	}
	if !snap.Agenda[0].IsProcessed || snap.Agenda[0].ProcessedAt == nil {
		t.Fatalf("first item should be processed with timestamp")
	}
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected currentIndex 1, got %d", snap.CurrentIndex)
	}
	if snap.Version != 1 {
		t.Fatalf("expected version 1, got %d", snap.Version)
	}

	// The processed flag must have reached the store.
	stored, err := db.ListAgendaItems(ctx, "m1")
	if err != nil {
		t.Fatalf("ListAgendaItems: %v", err)
	}
	if !stored[0].IsProcessed {
		t.Fatalf("processed flag not persisted")
	}
}

func TestRewindUndoesAdvance(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "intro", "budget", "roadmap")

	reg := rooms.NewRegistry(db)

	before, err := reg.Snapshot(ctx, "m1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if _, _, err := reg.Advance(ctx, "m1"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	after, noop, err := reg.Rewind(ctx, "m1")
	if err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if noop {
		t.Fatalf("expected real rewind, got noop")
	}

	if after.CurrentIndex != before.CurrentIndex {
		t.Fatalf("currentIndex not restored: want %d, got %d", before.CurrentIndex, after.CurrentIndex)
	}
	for i := range before.Agenda {
		if before.Agenda[i].IsProcessed != after.Agenda[i].IsProcessed {
			t.Fatalf("item %d processed flag not restored", i)
		}
		if after.Agenda[i].ProcessedAt != nil && !before.Agenda[i].IsProcessed {
			t.Fatalf("item %d processedAt should be cleared", i)
		}
	}
	if after.Version != before.Version+2 {
		t.Fatalf("version should move forward on both mutations, got %d", after.Version)
	}
}

func TestRewindTargetsLastProcessed(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "a", "b", "c")

	reg := rooms.NewRegistry(db)

	for i := 0; i < 3; i++ {
		if _, _, err := reg.Advance(ctx, "m1"); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}

	snap, _, err := reg.Rewind(ctx, "m1")
	if err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if snap.Agenda[2].IsProcessed {
		t.Fatalf("last item should be the one rewound")
	}
	if !snap.Agenda[0].IsProcessed || !snap.Agenda[1].IsProcessed {
		t.Fatalf("earlier items must stay processed")
	}
	if snap.CurrentIndex != 2 {
		t.Fatalf("expected currentIndex 2, got %d", snap.CurrentIndex)
	}
}

func TestAdvanceNoopWhenExhausted(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "only")

	reg := rooms.NewRegistry(db)

	if _, _, err := reg.Advance(ctx, "m1"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	snap, noop, err := reg.Advance(ctx, "m1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !noop {
		t.Fatalf("expected noop on exhausted agenda")
	}
	if snap.Version != 1 {
		t.Fatalf("noop must not bump version, got %d", snap.Version)
	}
	if snap.CurrentIndex != 1 {
		t.Fatalf("noop must not move currentIndex, got %d", snap.CurrentIndex)
	}
}

func TestRewindNoopWhenNothingProcessed(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "a", "b")

	reg := rooms.NewRegistry(db)

	snap, noop, err := reg.Rewind(ctx, "m1")
	if err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if !noop {
		t.Fatalf("expected noop with nothing processed")
	}
	if snap.Version != 0 {
		t.Fatalf("noop must not bump version, got %d", snap.Version)
	}
}

func TestForceReloadPicksUpOutOfBandWrites(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "a")

	reg := rooms.NewRegistry(db)
	if _, err := reg.Snapshot(ctx, "m1"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	// REST-style write that bypasses the cache.
	if _, err := db.CreateAgendaItem(ctx, &models.AgendaItem{MeetingID: "m1", Text: "b"}); err != nil {
		t.Fatalf("CreateAgendaItem: %v", err)
	}

	snap, err := reg.ForceReload(ctx, "m1")
	if err != nil {
		t.Fatalf("ForceReload: %v", err)
	}
	if len(snap.Agenda) != 2 {
		t.Fatalf("expected reload to see 2 items, got %d", len(snap.Agenda))
	}
	if snap.Version != 1 {
		t.Fatalf("reload must bump version, got %d", snap.Version)
	}
}

func TestEvictReloadsLazily(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "a", "b")

	reg := rooms.NewRegistry(db)
	if _, _, err := reg.Advance(ctx, "m1"); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	reg.Evict("m1")

	snap, err := reg.Snapshot(ctx, "m1")
	if err != nil {
		t.Fatalf("Snapshot after evict: %v", err)
	}
	// Processed flag survived via the store; version restarts for the
	// fresh room.
	if !snap.Agenda[0].IsProcessed {
		t.Fatalf("processed flag lost across eviction")
	}
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected currentIndex 1 after reload, got %d", snap.CurrentIndex)
	}
}

func TestAdvancePersistenceFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDB()
	seedAgenda(t, db, "m1", "a")

	reg := rooms.NewRegistry(db)
	if _, err := reg.Snapshot(ctx, "m1"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	db.FailWrites = context.DeadlineExceeded
	if _, _, err := reg.Advance(ctx, "m1"); err == nil {
		t.Fatalf("expected persistence error")
	}
	db.FailWrites = nil

	// The in-memory state advanced even though the write failed; a reload
	// re-syncs with the store.
	snap, err := reg.Snapshot(ctx, "m1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.Agenda[0].IsProcessed {
		t.Fatalf("in-memory mutation should survive persistence failure")
	}

	reloaded, err := reg.ForceReload(ctx, "m1")
	if err != nil {
		t.Fatalf("ForceReload: %v", err)
	}
	if reloaded.Agenda[0].IsProcessed {
		t.Fatalf("store should still have the item unprocessed")
	}
}
