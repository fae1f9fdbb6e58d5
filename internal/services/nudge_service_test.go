package services_test

import (
	"context"
	"testing"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/services"
)

func TestRecordNudgeBroadcastsCounters(t *testing.T) {
	db := database.NewMemoryDB()
	b := &fakeBroadcaster{}
	svc := services.NewNudgeService(db, b)

	err := svc.Record(context.Background(), &models.Nudge{
		MeetingID:     "m1",
		ParticipantID: "p1",
		Type:          models.NudgeMoveAlong,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(b.byEvent(models.EventNudge)) != 1 {
		t.Fatalf("nudge broadcast missing")
	}
	counts := b.byEvent(models.EventNudgeCounts)
	if len(counts) != 1 {
		t.Fatalf("counter broadcast missing")
	}
	if c := counts[0].Data.(*models.NudgeCounts); c.MoveAlong != 1 || c.InviteSpeak != 0 {
		t.Fatalf("unexpected counts %+v", c)
	}
}

func TestRecordRejectsInvalidType(t *testing.T) {
	svc := services.NewNudgeService(database.NewMemoryDB(), &fakeBroadcaster{})

	err := svc.Record(context.Background(), &models.Nudge{
		MeetingID:     "m1",
		ParticipantID: "p1",
		Type:          "applaud",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestResetZeroesCounters(t *testing.T) {
	db := database.NewMemoryDB()
	b := &fakeBroadcaster{}
	svc := services.NewNudgeService(db, b)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Record(ctx, &models.Nudge{
			MeetingID: "m1", ParticipantID: "p1", Type: models.NudgeInviteSpeak,
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := svc.Reset(ctx, "m1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	counts, err := svc.Counts(ctx, "m1")
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.InviteSpeak != 0 || counts.MoveAlong != 0 {
		t.Fatalf("expected zeroed counters, got %+v", counts)
	}

	events := b.byEvent(models.EventNudgeCounts)
	last := events[len(events)-1].Data.(*models.NudgeCounts)
	if last.InviteSpeak != 0 {
		t.Fatalf("reset broadcast should carry zeroed counters, got %+v", last)
	}
}
