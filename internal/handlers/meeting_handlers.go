package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/zoom"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

// Scheduler is the slice of the Zoom client the meeting handlers need.
type Scheduler interface {
	CreateMeeting(ctx context.Context, topic string, startTime time.Time, durationMin int) (*zoom.ScheduledMeeting, error)
}

type MeetingHandlers struct {
	db            database.MeetingRepository
	scheduler     Scheduler
	contextSecret []byte
}

func NewMeetingHandlers(db database.MeetingRepository, scheduler Scheduler, contextSecret []byte) *MeetingHandlers {
	return &MeetingHandlers{
		db:            db,
		scheduler:     scheduler,
		contextSecret: contextSecret,
	}
}

// ScheduleMeeting creates the Zoom meeting, then records it locally.
func (h *MeetingHandlers) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	appCtx, err := contextFromRequest(r, h.contextSecret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.ScheduleMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Topic == "" || req.Duration <= 0 {
		http.Error(w, "topic and positive duration are required", http.StatusBadRequest)
		return
	}

	scheduled, err := h.scheduler.CreateMeeting(r.Context(), req.Topic, req.StartTime, req.Duration)
	if err != nil {
		logger.Error("Schedule meeting error: %v", err)
		http.Error(w, "failed to schedule meeting", http.StatusBadGateway)
		return
	}

	meeting, err := h.db.CreateMeeting(r.Context(), &models.Meeting{
		ZoomID:    scheduled.ID,
		Topic:     req.Topic,
		StartTime: req.StartTime,
		Duration:  req.Duration,
		JoinURL:   scheduled.JoinURL,
		HostID:    appCtx.ParticipantID,
	})
	if err != nil {
		logger.Error("Save meeting error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(meeting)
}

func (h *MeetingHandlers) GetMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, err := meetingIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid meeting ID", http.StatusBadRequest)
		return
	}

	meeting, err := h.db.GetMeetingByID(r.Context(), meetingID)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "meeting not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Get meeting error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meeting)
}
