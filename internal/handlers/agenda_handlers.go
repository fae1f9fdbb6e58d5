package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/services"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/zoom"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

// AgendaHandlers serves the plain CRUD surface for agenda items. Writes
// bypass the room cache, so every successful mutation triggers a reload
// broadcast to converge connected clients.
type AgendaHandlers struct {
	db            database.AgendaRepository
	agendaService *services.AgendaService
	contextSecret []byte
}

func NewAgendaHandlers(db database.AgendaRepository, agendaService *services.AgendaService, contextSecret []byte) *AgendaHandlers {
	return &AgendaHandlers{
		db:            db,
		agendaService: agendaService,
		contextSecret: contextSecret,
	}
}

func (h *AgendaHandlers) ListItems(w http.ResponseWriter, r *http.Request) {
	meetingID, err := meetingIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid meeting ID", http.StatusBadRequest)
		return
	}

	items, err := h.db.ListAgendaItems(r.Context(), meetingID)
	if err != nil {
		logger.Error("List agenda error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *AgendaHandlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	meetingID, appCtx, ok := h.requireHost(w, r)
	if !ok {
		return
	}

	var req models.CreateAgendaItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "agenda item text is required", http.StatusBadRequest)
		return
	}

	item, err := h.db.CreateAgendaItem(r.Context(), &models.AgendaItem{
		MeetingID:  meetingID,
		Text:       req.Text,
		TimerValue: req.TimerValue,
	})
	if err != nil {
		logger.Error("Create agenda item error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.reload(r.Context(), meetingID, appCtx.ParticipantID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

// BatchUpdate applies a host save: each item's text/duration update is
// applied independently, so one failure does not block the rest. Items
// that vanished since the client loaded them report not_found rather than
// failing the batch.
func (h *AgendaHandlers) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	meetingID, appCtx, ok := h.requireHost(w, r)
	if !ok {
		return
	}

	var req models.BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	type itemResult struct {
		ID    string `json:"id"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	results := make([]itemResult, 0, len(req.Items))

	for i := range req.Items {
		item := req.Items[i]
		err := h.db.UpdateAgendaItem(r.Context(), &item)
		switch {
		case err == nil:
			results = append(results, itemResult{ID: item.ID, OK: true})
		case errors.Is(err, database.ErrNotFound):
			results = append(results, itemResult{ID: item.ID, OK: false, Error: "not_found"})
		default:
			logger.Error("Batch update error for item %s: %v", item.ID, err)
			results = append(results, itemResult{ID: item.ID, OK: false, Error: "internal error"})
		}
	}

	h.reload(r.Context(), meetingID, appCtx.ParticipantID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// UpdateStatus flips processed flags for a batch of item ids in one call.
// This is the landing point for the client's debounced advance/rewind
// batches.
func (h *AgendaHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	meetingID, appCtx, ok := h.requireHost(w, r)
	if !ok {
		return
	}

	var req struct {
		IDs       []string `json:"ids"`
		Processed bool     `json:"processed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "ids are required", http.StatusBadRequest)
		return
	}

	var processedAt *time.Time
	if req.Processed {
		now := time.Now()
		processedAt = &now
	}
	if err := h.db.SetItemsProcessed(r.Context(), meetingID, req.IDs, req.Processed, processedAt); err != nil {
		logger.Error("Update status error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.reload(r.Context(), meetingID, appCtx.ParticipantID)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("status updated"))
}

func (h *AgendaHandlers) DeleteItem(w http.ResponseWriter, r *http.Request, itemID string) {
	meetingID, appCtx, ok := h.requireHost(w, r)
	if !ok {
		return
	}

	err := h.db.DeleteAgendaItem(r.Context(), meetingID, itemID)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "agenda item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Delete agenda item error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.reload(r.Context(), meetingID, appCtx.ParticipantID)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("agenda item deleted"))
}

func (h *AgendaHandlers) reload(ctx context.Context, meetingID, participantID string) {
	if err := h.agendaService.Reload(ctx, meetingID); err != nil {
		logger.Error("Reload after REST write by %s failed: %v", participantID, err)
	}
}

// requireHost authenticates the Zoom context and checks it names the
// meeting in the path with host role.
func (h *AgendaHandlers) requireHost(w http.ResponseWriter, r *http.Request) (string, *zoom.AppContext, bool) {
	meetingID, err := meetingIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid meeting ID", http.StatusBadRequest)
		return "", nil, false
	}

	appCtx, err := contextFromRequest(r, h.contextSecret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", nil, false
	}
	if appCtx.MeetingID != meetingID {
		http.Error(w, "context is for a different meeting", http.StatusForbidden)
		return "", nil, false
	}
	if !appCtx.IsHost {
		http.Error(w, "host only", http.StatusForbidden)
		return "", nil, false
	}

	return meetingID, appCtx, true
}

func contextFromRequest(r *http.Request, secret []byte) (*zoom.AppContext, error) {
	tokenStr := r.Header.Get("X-Zoom-App-Context")
	if tokenStr == "" {
		tokenStr = r.URL.Query().Get("context")
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("missing context")
	}
	return zoom.ParseAppContext(tokenStr, secret)
}

// meetingIDFromPath extracts {id} from /meetings/{id}/...
func meetingIDFromPath(r *http.Request) (string, error) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("invalid path")
	}
	return parts[2], nil
}
