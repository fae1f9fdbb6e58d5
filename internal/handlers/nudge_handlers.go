package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/services"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

type NudgeHandlers struct {
	nudgeService  *services.NudgeService
	contextSecret []byte
}

func NewNudgeHandlers(nudgeService *services.NudgeService, contextSecret []byte) *NudgeHandlers {
	return &NudgeHandlers{
		nudgeService:  nudgeService,
		contextSecret: contextSecret,
	}
}

// RecordNudge accepts a participant nudge. Identity comes from the Zoom
// context, not the request body.
func (h *NudgeHandlers) RecordNudge(w http.ResponseWriter, r *http.Request) {
	meetingID, err := meetingIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid meeting ID", http.StatusBadRequest)
		return
	}

	appCtx, err := contextFromRequest(r, h.contextSecret)
	if err != nil || appCtx.MeetingID != meetingID {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Type    models.NudgeType `json:"nudge_type"`
		Message string           `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	nudge := &models.Nudge{
		MeetingID:     meetingID,
		ParticipantID: appCtx.ParticipantID,
		Type:          req.Type,
		Message:       req.Message,
	}
	if err := h.nudgeService.Record(r.Context(), nudge); err != nil {
		logger.Error("Record nudge error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("nudge recorded"))
}

// GetCounts serves the aggregate endpoint for clients that poll instead of
// listening on the websocket.
func (h *NudgeHandlers) GetCounts(w http.ResponseWriter, r *http.Request) {
	meetingID, err := meetingIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid meeting ID", http.StatusBadRequest)
		return
	}

	counts, err := h.nudgeService.Counts(r.Context(), meetingID)
	if err != nil {
		logger.Error("Nudge counts error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

// ResetCounts zeroes a meeting's nudge counters. Host action.
func (h *NudgeHandlers) ResetCounts(w http.ResponseWriter, r *http.Request) {
	meetingID, err := meetingIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid meeting ID", http.StatusBadRequest)
		return
	}

	appCtx, err := contextFromRequest(r, h.contextSecret)
	if err != nil || appCtx.MeetingID != meetingID {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !appCtx.IsHost {
		http.Error(w, "host only", http.StatusForbidden)
		return
	}

	if err := h.nudgeService.Reset(r.Context(), meetingID); err != nil {
		logger.Error("Reset nudges error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("nudge counters reset"))
}
