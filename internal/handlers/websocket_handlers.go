package handlers

import (
	"net/http"

	ws "github.com/evanlaw-dev/flowminder-app-sub000/internal/websocket"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/zoom"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	contextSecret []byte
	hubManager    *ws.Manager
	svc           ws.Services
	upgrader      websocket.Upgrader
}

func NewWebSocketHandlers(contextSecret []byte, hubManager *ws.Manager, svc ws.Services) *WebSocketHandlers {
	return &WebSocketHandlers{
		contextSecret: contextSecret,
		hubManager:    hubManager,
		svc:           svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// The embedded client passes its Zoom app context on the upgrade URL.
	tokenStr := r.URL.Query().Get("context")
	if tokenStr == "" {
		http.Error(w, "missing context", http.StatusUnauthorized)
		return
	}

	appCtx, err := zoom.ParseAppContext(tokenStr, h.contextSecret)
	if err != nil {
		http.Error(w, "invalid context", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	hub := h.hubManager.GetHubForMeeting(appCtx.MeetingID)
	client := ws.NewClient(hub, conn, appCtx.MeetingID, appCtx.ParticipantID, appCtx.IsHost, h.svc)

	hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
