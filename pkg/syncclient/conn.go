package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evanlaw-dev/flowminder-app-sub000/internal/models"
	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/logger"

	"github.com/gorilla/websocket"
)

// Handlers are the application callbacks a Conn dispatches inbound events
// to. Nil handlers are skipped.
type Handlers struct {
	OnAgenda     func(*models.AgendaSnapshot)
	OnTimerState func(*models.TimerStatePayload)
	OnSettings   func(*models.TimerSettingsPayload)
	OnNudge      func(*models.Nudge)
	OnCounts     func(*models.NudgeCounts)
}

// Conn wraps one websocket connection to the server: envelope codec,
// seq/ack correlation for commands, and version-gated application of
// agenda patches with automatic snapshot recovery on gaps.
type Conn struct {
	ws        *websocket.Conn
	meetingID string
	handlers  Handlers

	writeMu sync.Mutex
	seq     atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan *models.Ack

	gate   versionGate
	resync *resyncer
	done   chan struct{}
}

// Dial connects and joins the meeting room named in the Zoom context
// token. The server derives the room from the token, so meetingID here
// must match what the token was minted for.
func Dial(ctx context.Context, serverURL, contextToken, meetingID string, handlers Handlers) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	q.Set("context", contextToken)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &Conn{
		ws:        ws,
		meetingID: meetingID,
		handlers:  handlers,
		pending:   make(map[int64]chan *models.Ack),
		done:      make(chan struct{}),
	}
	c.resync = newResyncer(ResyncInterval, c.RequestTimerState)
	go c.readLoop()

	// Join triggers the initial snapshot unicast.
	if err := c.sendCommand(models.EventJoinMeeting, 0, models.CommandPayload{MeetingID: meetingID}); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Conn) Close() error {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.resync.shutdown()
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.failPending(fmt.Errorf("connection closed: %w", err))
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			logger.Error("Error parsing server message: %v", err)
			continue
		}

		c.handle(&env)
	}
}

func (c *Conn) handle(env *models.Envelope) {
	switch env.Event {
	case models.EventAck:
		var ack models.Ack
		if err := json.Unmarshal(env.Data, &ack); err != nil {
			return
		}
		c.resolve(env.Seq, &ack)

	case models.EventAgendaSnapshot, models.EventAgendaUpdate:
		var snap models.AgendaSnapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			logger.Error("Error parsing agenda payload: %v", err)
			return
		}
		apply, resync := c.gate.observe(snap.Version, env.Event == models.EventAgendaSnapshot)
		if resync {
			// Missed an intermediate patch; pull a full snapshot.
			c.RequestSnapshot()
		}
		if apply && c.handlers.OnAgenda != nil {
			c.handlers.OnAgenda(&snap)
		}

	case models.EventTimerState:
		var state models.TimerStatePayload
		if err := json.Unmarshal(env.Data, &state); err != nil {
			return
		}
		// Keep re-requesting state while the countdown runs so drift
		// gets corrected between broadcasts.
		c.resync.observe(state.Status)
		if c.handlers.OnTimerState != nil {
			c.handlers.OnTimerState(&state)
		}

	case models.EventSettingsUpdate:
		var settings models.TimerSettingsPayload
		if err := json.Unmarshal(env.Data, &settings); err != nil {
			return
		}
		if c.handlers.OnSettings != nil {
			c.handlers.OnSettings(&settings)
		}

	case models.EventNudge:
		var nudge models.Nudge
		if err := json.Unmarshal(env.Data, &nudge); err != nil {
			return
		}
		if c.handlers.OnNudge != nil {
			c.handlers.OnNudge(&nudge)
		}

	case models.EventNudgeCounts:
		var counts models.NudgeCounts
		if err := json.Unmarshal(env.Data, &counts); err != nil {
			return
		}
		if c.handlers.OnCounts != nil {
			c.handlers.OnCounts(&counts)
		}
	}
}

func (c *Conn) resolve(seq int64, ack *models.Ack) {
	c.pendingMu.Lock()
	ch, ok := c.pending[seq]
	if ok {
		delete(c.pending, seq)
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- ack
	}
}

func (c *Conn) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for seq, ch := range c.pending {
		delete(c.pending, seq)
		ch <- &models.Ack{OK: false, Error: err.Error()}
	}
}

func (c *Conn) sendCommand(event string, seq int64, payload models.CommandPayload) error {
	env, err := models.NewEnvelope(event, seq, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, raw)
}

// Command sends one command and waits for its ack. The server never times
// out a command on its own, so the caller's context bounds the wait.
func (c *Conn) Command(ctx context.Context, event string, payload models.CommandPayload) (*models.Ack, error) {
	if payload.MeetingID == "" {
		payload.MeetingID = c.meetingID
	}

	seq := c.seq.Add(1)
	ch := make(chan *models.Ack, 1)
	c.pendingMu.Lock()
	c.pending[seq] = ch
	c.pendingMu.Unlock()

	if err := c.sendCommand(event, seq, payload); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, err
	}

	select {
	case ack := <-ch:
		return ack, nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("connection closed")
	}
}

// RequestSnapshot asks for a full agenda snapshot, fire-and-forget. Used
// after reconnects and version gaps.
func (c *Conn) RequestSnapshot() {
	c.gate.reset()
	if err := c.sendCommand(models.EventAgendaGet, 0, models.CommandPayload{MeetingID: c.meetingID}); err != nil {
		logger.Error("Error requesting snapshot: %v", err)
	}
}

// RequestTimerState asks for the current timer state, fire-and-forget.
// The connection runs this itself on ResyncInterval while a countdown is
// running; manual calls are only needed after an out-of-band resume.
func (c *Conn) RequestTimerState() {
	if err := c.sendCommand(models.EventTimerGet, 0, models.CommandPayload{MeetingID: c.meetingID}); err != nil {
		logger.Error("Error requesting timer state: %v", err)
	}
}

func (c *Conn) Advance(ctx context.Context) (*models.Ack, error) {
	return c.Command(ctx, models.EventAgendaNext, models.CommandPayload{})
}

func (c *Conn) Rewind(ctx context.Context) (*models.Ack, error) {
	return c.Command(ctx, models.EventAgendaPrev, models.CommandPayload{})
}

func (c *Conn) StartTimer(ctx context.Context, durationMs int64) (*models.Ack, error) {
	return c.Command(ctx, models.EventTimerStart, models.CommandPayload{DurationMs: durationMs})
}

func (c *Conn) PauseTimer(ctx context.Context) (*models.Ack, error) {
	return c.Command(ctx, models.EventTimerPause, models.CommandPayload{})
}

func (c *Conn) ResumeTimer(ctx context.Context) (*models.Ack, error) {
	return c.Command(ctx, models.EventTimerResume, models.CommandPayload{})
}

func (c *Conn) CancelTimer(ctx context.Context) (*models.Ack, error) {
	return c.Command(ctx, models.EventTimerCancel, models.CommandPayload{})
}

func (c *Conn) EditTimer(ctx context.Context, proposedEndAt int64) (*models.Ack, error) {
	return c.Command(ctx, models.EventTimerEditSave, models.CommandPayload{ProposedEndAt: proposedEndAt})
}

func (c *Conn) UpdateSettings(ctx context.Context, settings models.TimerSettings) (*models.Ack, error) {
	return c.Command(ctx, models.EventSettingsUpdate, models.CommandPayload{Settings: &settings})
}
