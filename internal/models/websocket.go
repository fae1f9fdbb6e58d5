package models

import "encoding/json"

// Event names on the realtime channel. Client-to-server commands carry a
// seq for ack correlation; server-to-client patches carry the room version.
const (
	EventJoinMeeting    = "joinMeeting"
	EventAgendaGet      = "agenda:get"
	EventAgendaSnapshot = "agenda:snapshot"
	EventAgendaUpdate   = "agenda:update"
	EventAgendaNext     = "agenda:next"
	EventAgendaPrev     = "agenda:prev"
	EventTimerGet       = "timer:get"
	EventTimerStart     = "timer:start"
	EventTimerPause     = "timer:pause"
	EventTimerResume    = "timer:resume"
	EventTimerCancel    = "timer:cancel"
	EventTimerEditSave  = "timer:edit:save"
	EventTimerState     = "timer:state"
	EventNudge          = "nudge"
	EventNudgeCounts    = "nudge:counts"
	EventSettingsUpdate = "settings:update"
	EventAck            = "ack"
)

// Envelope frames every message on the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Seq   int64           `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CommandPayload is the common client command body.
type CommandPayload struct {
	MeetingID     string         `json:"meetingId"`
	DurationMs    int64          `json:"durationMs,omitempty"`
	ProposedEndAt int64          `json:"proposedEndAt,omitempty"`
	Settings      *TimerSettings `json:"settings,omitempty"`
}

// Ack acknowledges one client command. Noop marks "nothing to do"
// outcomes, which are distinct from failures.
type Ack struct {
	OK      bool   `json:"ok"`
	Noop    bool   `json:"noop,omitempty"`
	Version int64  `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewEnvelope(event string, seq int64, data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Seq: seq, Data: raw}, nil
}
