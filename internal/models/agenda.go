package models

import "time"

// AgendaItem is one topic on a meeting's agenda. Items are totally ordered
// within a meeting by OrderIndex, ties broken by CreatedAt, then ID.
type AgendaItem struct {
	ID           string     `json:"id"`
	MeetingID    string     `json:"meeting_id"`
	Text         string     `json:"agenda_item"`
	TimerValue   int        `json:"duration_seconds"`
	OrderIndex   int        `json:"order_index"`
	IsProcessed  bool       `json:"is_processed"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AgendaSnapshot is the full agenda state for one meeting as sent to
// clients, either as a join/get unicast or an update broadcast.
type AgendaSnapshot struct {
	Version      int64         `json:"version"`
	Agenda       []*AgendaItem `json:"agenda"`
	CurrentIndex int           `json:"currentIndex"`
}

type CreateAgendaItemRequest struct {
	Text       string `json:"agenda_item"`
	TimerValue int    `json:"duration_seconds"`
}

type UpdateAgendaItemRequest struct {
	ID         string `json:"id"`
	Text       string `json:"agenda_item"`
	TimerValue int    `json:"duration_seconds"`
}

// BatchUpdateRequest carries the explicit-save updates from a host client.
type BatchUpdateRequest struct {
	Items []UpdateAgendaItemRequest `json:"items"`
}
