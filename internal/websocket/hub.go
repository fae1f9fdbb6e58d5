package websocket

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"
)

// Hub fans messages out to every client connected to one meeting room.
type Hub struct {
	meetingID string

	clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	shutdown   chan struct{}
	done       chan struct{} // closed when Run exits

	clientCount atomic.Int64
	emptySince  atomic.Int64 // unix nanos; 0 while occupied
}

func NewHub(meetingID string) *Hub {
	h := &Hub{
		meetingID:  meetingID,
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		shutdown:   make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.emptySince.Store(time.Now().UnixNano())
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			for client := range h.clients {
				client.closeSend()
			}
			close(h.done)
			return

		case client := <-h.Register:
			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			h.emptySince.Store(0)
			logger.Info("Participant %s joined meeting room %s", client.participantID, h.meetingID)

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.clientCount.Store(int64(len(h.clients)))
				if len(h.clients) == 0 {
					h.emptySince.Store(time.Now().UnixNano())
				}
				logger.Info("Participant %s left meeting room %s", client.participantID, h.meetingID)
			}

		case message := <-h.Broadcast:
			h.broadcastToAll(message)
		}
	}
}

func (h *Hub) broadcastToAll(message []byte) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow client; drop it rather than stall the room. Only
			// closeSend may close the channel, so a command the client's
			// read pump is still dispatching lands on the closed flag
			// instead of a closed channel.
			client.closeSend()
			delete(h.clients, client)
		}
	}
	h.clientCount.Store(int64(len(h.clients)))
	if len(h.clients) == 0 {
		h.emptySince.Store(time.Now().UnixNano())
	}
}

func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// emptyFor reports how long the room has had zero clients; zero while
// occupied.
func (h *Hub) emptyFor(now time.Time) time.Duration {
	since := h.emptySince.Load()
	if since == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, since))
}

func (h *Hub) ShutdownHub() {
	select {
	case h.shutdown <- struct{}{}:
	default:
	}
}

// Manager owns one hub per meeting and the room lifecycle: a hub that has
// been empty past the idle window is shut down and the eviction callback
// releases the meeting's cached state.
type Manager struct {
	hubs        map[string]*Hub
	mutex       sync.Mutex
	idleTimeout time.Duration
	onIdle      func(meetingID string)
}

func NewManager(idleTimeout time.Duration, onIdle func(meetingID string)) *Manager {
	manager := &Manager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		onIdle:      onIdle,
	}

	go manager.cleanupIdleHubs()
	return manager
}

func (m *Manager) GetHubForMeeting(meetingID string) *Hub {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hub, exists := m.hubs[meetingID]
	if !exists {
		hub = NewHub(meetingID)
		m.hubs[meetingID] = hub
		go hub.Run()
	}
	return hub
}

// BroadcastEvent implements the services.Broadcaster contract: marshal the
// envelope once and hand it to the room's hub. Meetings with no hub have
// no listeners, so the event is dropped.
func (m *Manager) BroadcastEvent(meetingID, event string, data any) {
	m.mutex.Lock()
	hub, exists := m.hubs[meetingID]
	m.mutex.Unlock()
	if !exists {
		return
	}

	env, err := models.NewEnvelope(event, 0, data)
	if err != nil {
		logger.Error("Error marshaling %s broadcast: %v", event, err)
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		logger.Error("Error marshaling %s envelope: %v", event, err)
		return
	}

	// The hub may be shut down between the map lookup and this send;
	// its done channel keeps the broadcast from blocking forever.
	select {
	case hub.Broadcast <- raw:
	case <-hub.done:
	}
}

func (m *Manager) cleanupIdleHubs() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mutex.Lock()
		for meetingID, hub := range m.hubs {
			if hub.ClientCount() == 0 && hub.emptyFor(now) > m.idleTimeout {
				hub.ShutdownHub()
				delete(m.hubs, meetingID)
				if m.onIdle != nil {
					m.onIdle(meetingID)
				}
				logger.Debug("Cleaned up idle hub for meeting %s", meetingID)
			}
		}
		m.mutex.Unlock()
	}
}
