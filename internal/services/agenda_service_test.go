package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/rooms"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/services"
)

type recordedEvent struct {
	MeetingID string
	Event     string
	Data      any
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *fakeBroadcaster) BroadcastEvent(meetingID, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{meetingID, event, data})
}

func (b *fakeBroadcaster) byEvent(event string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func newAgendaFixture(t *testing.T, topics ...string) (*services.AgendaService, *fakeBroadcaster, *database.MemoryDB) {
	t.Helper()
	db := database.NewMemoryDB()
	for _, topic := range topics {
		if _, err := db.CreateAgendaItem(context.Background(), &models.AgendaItem{
			MeetingID: "m1", Text: topic, TimerValue: 120,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	b := &fakeBroadcaster{}
	return services.NewAgendaService(rooms.NewRegistry(db), b), b, db
}

func TestAdvanceBroadcastsAndAcks(t *testing.T) {
	svc, b, _ := newAgendaFixture(t, "intro", "budget")

	ack := svc.Advance(context.Background(), "m1")
	if !ack.OK || ack.Noop {
		t.Fatalf("unexpected ack %+v", ack)
	}
	if ack.Version != 1 {
		t.Fatalf("ack version: want 1, got %d", ack.Version)
	}

	updates := b.byEvent(models.EventAgendaUpdate)
	if len(updates) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(updates))
	}
	snap := updates[0].Data.(*models.AgendaSnapshot)
	if snap.CurrentIndex != 1 || snap.Version != 1 {
		t.Fatalf("broadcast snapshot wrong: %+v", snap)
	}
}

func TestAdvanceNoopSkipsBroadcast(t *testing.T) {
	svc, b, _ := newAgendaFixture(t, "only")

	svc.Advance(context.Background(), "m1")
	ack := svc.Advance(context.Background(), "m1")
	if !ack.OK || !ack.Noop {
		t.Fatalf("expected noop ack, got %+v", ack)
	}
	if got := len(b.byEvent(models.EventAgendaUpdate)); got != 1 {
		t.Fatalf("noop must not broadcast, got %d broadcasts", got)
	}
}

func TestAdvanceRejectsMissingMeetingID(t *testing.T) {
	svc, b, _ := newAgendaFixture(t)

	ack := svc.Advance(context.Background(), "")
	if ack.OK || ack.Error == "" {
		t.Fatalf("expected validation failure, got %+v", ack)
	}
	if len(b.byEvent(models.EventAgendaUpdate)) != 0 {
		t.Fatalf("validation failure must not broadcast")
	}
}

func TestAdvancePersistenceFailureAcksGenericError(t *testing.T) {
	svc, b, db := newAgendaFixture(t, "intro")

	// Warm the cache so the failure hits the processed-flag write, not the
	// initial load.
	if _, err := svc.Snapshot(context.Background(), "m1"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	db.FailWrites = context.DeadlineExceeded
	ack := svc.Advance(context.Background(), "m1")
	if ack.OK {
		t.Fatalf("expected failure ack, got %+v", ack)
	}
	if ack.Error != "internal error" {
		t.Fatalf("store detail must not leak to the wire, got %q", ack.Error)
	}
	if len(b.byEvent(models.EventAgendaUpdate)) != 0 {
		t.Fatalf("failed advance must not broadcast")
	}
}

func TestRewindBroadcasts(t *testing.T) {
	svc, b, _ := newAgendaFixture(t, "a", "b")

	svc.Advance(context.Background(), "m1")
	ack := svc.Rewind(context.Background(), "m1")
	if !ack.OK || ack.Noop {
		t.Fatalf("unexpected ack %+v", ack)
	}

	updates := b.byEvent(models.EventAgendaUpdate)
	snap := updates[len(updates)-1].Data.(*models.AgendaSnapshot)
	if snap.CurrentIndex != 0 {
		t.Fatalf("rewind should restore currentIndex 0, got %d", snap.CurrentIndex)
	}
}

func TestReloadBroadcastsFreshSnapshot(t *testing.T) {
	svc, b, db := newAgendaFixture(t, "a")

	if _, err := svc.Snapshot(context.Background(), "m1"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := db.CreateAgendaItem(context.Background(), &models.AgendaItem{MeetingID: "m1", Text: "b"}); err != nil {
		t.Fatalf("CreateAgendaItem: %v", err)
	}

	if err := svc.Reload(context.Background(), "m1"); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	updates := b.byEvent(models.EventAgendaUpdate)
	if len(updates) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(updates))
	}
	snap := updates[0].Data.(*models.AgendaSnapshot)
	if len(snap.Agenda) != 2 {
		t.Fatalf("reload broadcast should carry 2 items, got %d", len(snap.Agenda))
	}
}
