package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// RenderState tracks a bot message through the reveal. User messages leave it empty.
type RenderState string

const (
	StatePending  RenderState = "pending"
	StateTyping   RenderState = "typing"
	StateComplete RenderState = "complete"
	StateErrored  RenderState = "errored"
)

// Message is one chat turn. Text is the raw content; Rendered is what the surface
// shows once the message is final (escaped for bot replies).
type Message struct {
	ID          string      `json:"id"`
	Role        Role        `json:"role"`
	Text        string      `json:"text"`
	Rendered    string      `json:"rendered,omitempty"`
	State       RenderState `json:"state,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	CompletedAt time.Time   `json:"completed_at,omitzero"`
}

func NewMessage(role Role, text string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: now,
	}
}

// Final reports whether the message can no longer change.
func (m Message) Final() bool {
	return m.Role == RoleUser || m.State == StateComplete || m.State == StateErrored
}

// FormatTime renders a clock time the way the chat meta line shows it.
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}
