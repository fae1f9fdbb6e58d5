package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/internal/services"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"

	"github.com/gorilla/websocket"
)

// Services bundles the protocol handlers a client dispatches inbound
// commands to.
type Services struct {
	Agenda *services.AgendaService
	Timer  *services.TimerService
}

// Client is one websocket connection, bound to a meeting room and the
// participant identity taken from the Zoom context at upgrade time.
// Commands on one connection are processed in the order sent.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// sendMu guards sendClosed so the hub can drop a slow client while
	// its read pump is mid-dispatch without racing a send on a closed
	// channel.
	sendMu     sync.Mutex
	sendClosed bool

	meetingID     string
	participantID string
	isHost        bool

	svc Services
}

func NewClient(hub *Hub, conn *websocket.Conn, meetingID, participantID string, isHost bool, svc Services) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		meetingID:     meetingID,
		participantID: participantID,
		isHost:        isHost,
		svc:           svc,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Error("Error parsing command from %s: %v", c.participantID, err)
			continue
		}

		c.dispatch(&env)
	}
}

func (c *Client) dispatch(env *models.Envelope) {
	ctx := context.Background()

	var payload models.CommandPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			c.sendAck(env.Seq, &models.Ack{OK: false, Error: "invalid payload"})
			return
		}
	}

	// Connections are room-scoped at upgrade time; a command naming a
	// different meeting is rejected before touching any state.
	meetingID := payload.MeetingID
	if meetingID == "" {
		meetingID = c.meetingID
	}
	if meetingID != c.meetingID {
		c.sendAck(env.Seq, &models.Ack{OK: false, Error: "not joined to this meeting"})
		return
	}

	switch env.Event {
	case models.EventJoinMeeting, models.EventAgendaGet:
		snap, err := c.svc.Agenda.Snapshot(ctx, meetingID)
		if err != nil {
			logger.Error("Error loading agenda snapshot for %s: %v", meetingID, err)
			c.sendAck(env.Seq, &models.Ack{OK: false, Error: "internal error"})
			return
		}
		c.sendEvent(models.EventAgendaSnapshot, 0, snap)
		if env.Seq != 0 {
			c.sendAck(env.Seq, &models.Ack{OK: true, Version: snap.Version})
		}

	case models.EventAgendaNext:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Agenda.Advance(ctx, meetingID) })

	case models.EventAgendaPrev:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Agenda.Rewind(ctx, meetingID) })

	case models.EventTimerGet:
		state, err := c.svc.Timer.Get(meetingID)
		if err != nil {
			c.sendAck(env.Seq, &models.Ack{OK: false, Error: "internal error"})
			return
		}
		c.sendEvent(models.EventTimerState, 0, state)

	case models.EventTimerStart:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Timer.Start(meetingID, payload.DurationMs) })

	case models.EventTimerPause:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Timer.Pause(meetingID) })

	case models.EventTimerResume:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Timer.Resume(meetingID) })

	case models.EventTimerCancel:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Timer.Cancel(meetingID) })

	case models.EventTimerEditSave:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Timer.Edit(meetingID, payload.ProposedEndAt) })

	case models.EventSettingsUpdate:
		c.hostCommand(env.Seq, func() *models.Ack { return c.svc.Timer.UpdateSettings(meetingID, payload.Settings) })

	default:
		c.sendAck(env.Seq, &models.Ack{OK: false, Error: "unknown event"})
	}
}

// hostCommand gates agenda/timer mutation on the host role carried in the
// Zoom context.
func (c *Client) hostCommand(seq int64, run func() *models.Ack) {
	if !c.isHost {
		c.sendAck(seq, &models.Ack{OK: false, Error: "host only"})
		return
	}
	c.sendAck(seq, run())
}

// sendAck unicasts a command acknowledgment. Commands sent without a seq
// get no ack.
func (c *Client) sendAck(seq int64, ack *models.Ack) {
	if seq == 0 {
		return
	}
	c.sendEvent(models.EventAck, seq, ack)
}

func (c *Client) sendEvent(event string, seq int64, data any) {
	env, err := models.NewEnvelope(event, seq, data)
	if err != nil {
		logger.Error("Error marshaling %s unicast: %v", event, err)
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		logger.Error("Error marshaling %s envelope: %v", event, err)
		return
	}

	if !c.enqueue(raw) {
		logger.Error("Send buffer full for participant %s, dropping %s", c.participantID, event)
	}
}

// enqueue hands a frame to the write pump. Returns false when the buffer
// is full or the client has already been dropped.
func (c *Client) enqueue(raw []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. The hub is the only
// caller; after this, enqueue becomes a no-op.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
