package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/config"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/database"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/handlers"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/rooms"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/services"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/websocket"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/zoom"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	pg, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	var db database.Database = pg
	defer db.Close()

	// Room state registry; evicted when a room goes idle
	registry := rooms.NewRegistry(db)

	// Initialize WebSocket hub manager
	hubManager := websocket.NewManager(cfg.Rooms.IdleTimeout, registry.Evict)

	// Initialize services
	agendaService := services.NewAgendaService(registry, hubManager)
	timerService := services.NewTimerService(registry, hubManager)
	nudgeService := services.NewNudgeService(db, hubManager)

	// Zoom scheduling client (token exchange happens out of process)
	zoomClient := zoom.NewClient(cfg.Zoom.APIBaseURL, func(ctx context.Context) (string, error) {
		return cfg.Zoom.AccessToken, nil
	})

	// Initialize handlers
	agendaHandlers := handlers.NewAgendaHandlers(db, agendaService, cfg.Zoom.ContextSecret)
	nudgeHandlers := handlers.NewNudgeHandlers(nudgeService, cfg.Zoom.ContextSecret)
	meetingHandlers := handlers.NewMeetingHandlers(db, zoomClient, cfg.Zoom.ContextSecret)
	webhookHandlers := handlers.NewWebhookHandlers(cfg.Zoom.WebhookSecret)
	wsHandlers := handlers.NewWebSocketHandlers(cfg.Zoom.ContextSecret, hubManager, websocket.Services{
		Agenda: agendaService,
		Timer:  timerService,
	})

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, meetingHandlers, agendaHandlers, nudgeHandlers, webhookHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

func setupRoutes(
	mux *http.ServeMux,
	meetingHandlers *handlers.MeetingHandlers,
	agendaHandlers *handlers.AgendaHandlers,
	nudgeHandlers *handlers.NudgeHandlers,
	webhookHandlers *handlers.WebhookHandlers,
	wsHandlers *handlers.WebSocketHandlers,
) {
	// Meeting scheduling
	mux.HandleFunc("/meetings", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meetings" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodPost:
			meetingHandlers.ScheduleMeeting(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Meeting sub-routes
	mux.HandleFunc("/meetings/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		// /meetings/{id}
		if len(parts) == 3 && r.Method == http.MethodGet {
			meetingHandlers.GetMeeting(w, r)
			return
		}

		// /meetings/{id}/agenda
		if len(parts) == 4 && parts[3] == "agenda" {
			switch r.Method {
			case http.MethodGet:
				agendaHandlers.ListItems(w, r)
			case http.MethodPost:
				agendaHandlers.CreateItem(w, r)
			case http.MethodPut:
				agendaHandlers.BatchUpdate(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		// /meetings/{id}/agenda/status
		if len(parts) == 5 && parts[3] == "agenda" && parts[4] == "status" && r.Method == http.MethodPut {
			agendaHandlers.UpdateStatus(w, r)
			return
		}

		// /meetings/{id}/agenda/{itemID}
		if len(parts) == 5 && parts[3] == "agenda" && r.Method == http.MethodDelete {
			agendaHandlers.DeleteItem(w, r, parts[4])
			return
		}

		// /meetings/{id}/nudges
		if len(parts) == 4 && parts[3] == "nudges" {
			switch r.Method {
			case http.MethodPost:
				nudgeHandlers.RecordNudge(w, r)
			case http.MethodGet:
				nudgeHandlers.GetCounts(w, r)
			case http.MethodDelete:
				nudgeHandlers.ResetCounts(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		http.Error(w, "endpoint not found", http.StatusNotFound)
	})

	// Zoom webhook
	mux.HandleFunc("/zoom/webhook", webhookHandlers.HandleWebhook)

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Zoom-App-Context")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   POST /meetings")
	logger.Info("   GET  /meetings/{id}")
	logger.Info("   GET  /meetings/{id}/agenda")
	logger.Info("   POST /meetings/{id}/agenda")
	logger.Info("   PUT  /meetings/{id}/agenda")
	logger.Info("   PUT  /meetings/{id}/agenda/status")
	logger.Info("   DELETE /meetings/{id}/agenda/{itemID}")
	logger.Info("   POST /meetings/{id}/nudges")
	logger.Info("   GET  /meetings/{id}/nudges")
	logger.Info("   DELETE /meetings/{id}/nudges")
	logger.Info("   POST /zoom/webhook")
}
