package models

type TimerStatus string

const (
	TimerPending TimerStatus = "pending"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
)

// TimerState is the per-meeting countdown state. It lives only in memory;
// a restart resets every meeting's timer to pending.
//
// Invariants: running implies EndAt is an absolute epoch-ms deadline (a past
// deadline means time ran out and clients render zero); paused implies
// RemainingMs >= 0 and EndAt is stale; pending implies EndAt == 0.
type TimerState struct {
	Status      TimerStatus `json:"status"`
	EndAt       int64       `json:"endAt"`
	RemainingMs int64       `json:"remainingMs"`
}

// TimerStatePayload is TimerState plus the server clock at send time, so
// each receiver can compute its own skew correction.
type TimerStatePayload struct {
	TimerState
	ServerTime int64 `json:"serverTime"`
}

// TimerSettings are the host's meeting-wide timer preferences. Like the
// countdown itself they live only in memory and reset on eviction.
type TimerSettings struct {
	// Enabled toggles the countdown UI for the whole meeting.
	Enabled bool `json:"enabled"`
	// AutoStart starts the countdown automatically on each advance,
	// using the new current item's allotted duration.
	AutoStart bool `json:"auto_start"`
}

// DefaultTimerSettings applies until the host changes anything.
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{Enabled: true}
}

// TimerSettingsPayload is broadcast as settings:update.
type TimerSettingsPayload struct {
	TimerSettings TimerSettings `json:"timer_settings"`
	ServerTime    int64         `json:"serverTime"`
}
