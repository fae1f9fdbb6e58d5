package models

import "time"

type NudgeType string

const (
	NudgeMoveAlong   NudgeType = "move_along"
	NudgeInviteSpeak NudgeType = "invite_speak"
)

func (t NudgeType) Valid() bool {
	return t == NudgeMoveAlong || t == NudgeInviteSpeak
}

// Nudge is one participant signal to the host, stored append-only.
type Nudge struct {
	ID            int       `json:"id,omitempty"`
	MeetingID     string    `json:"meeting_id"`
	ParticipantID string    `json:"participant_id"`
	Type          NudgeType `json:"nudge_type"`
	Message       string    `json:"message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NudgeCounts aggregates nudges since the meeting's last counter reset.
type NudgeCounts struct {
	MeetingID   string `json:"meeting_id"`
	MoveAlong   int    `json:"move_along"`
	InviteSpeak int    `json:"invite_speak"`
}
