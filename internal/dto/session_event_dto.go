package dto

import (
	"time"

	"github.com/google/uuid"
)

// SessionEventMessage travels over the in-process pub/sub from the
// assistant service to the websocket forwarder. Exactly one of Message
// or Change is set, matching Event.
type SessionEventMessage struct {
	SessionId uuid.UUID       `json:"session_id"`
	Event     string          `json:"event"` // events.TypeMessageAppended | events.TypeChangeAdded
	Message   *ChatMessageDTO `json:"message,omitempty"`
	Change    *ChangeDTO      `json:"change,omitempty"`
	At        time.Time       `json:"at"`
}
