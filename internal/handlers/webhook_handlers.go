package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/zoom"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

type WebhookHandlers struct {
	webhookSecret string
}

func NewWebhookHandlers(webhookSecret string) *WebhookHandlers {
	return &WebhookHandlers{webhookSecret: webhookSecret}
}

// HandleWebhook answers Zoom's URL validation challenge and accepts event
// deliveries. Event bodies we don't consume are acknowledged and dropped.
func (h *WebhookHandlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var payload zoom.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if payload.Event == "endpoint.url_validation" {
		resp := map[string]string{
			"plainToken":     payload.Payload.PlainToken,
			"encryptedToken": zoom.EncryptValidationToken(h.webhookSecret, payload.Payload.PlainToken),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
		return
	}

	sig := r.Header.Get("x-zm-signature")
	ts := r.Header.Get("x-zm-request-timestamp")
	if !zoom.VerifyWebhookSignature(h.webhookSecret, ts, body, sig) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	logger.Debug("Zoom webhook event %s for meeting %s", payload.Event, payload.Payload.Object.UUID)
	w.WriteHeader(http.StatusOK)
}
