package models

import "time"

// Meeting mirrors the Zoom meeting we scheduled plus our own row.
type Meeting struct {
	ID        string    `json:"id"`
	ZoomID    int64     `json:"zoom_meeting_id"`
	Topic     string    `json:"topic"`
	StartTime time.Time `json:"start_time"`
	Duration  int       `json:"duration"`
	JoinURL   string    `json:"join_url,omitempty"`
	HostID    string    `json:"host_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ScheduleMeetingRequest struct {
	Topic     string    `json:"topic"`
	StartTime time.Time `json:"start_time"`
	Duration  int       `json:"duration"`
}
