package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message kinds. Every consumer switches over these exhaustively, so a
// new kind fails loudly at every site instead of rendering as garbage.
const (
	MessageKindText        = "text"
	MessageKindGenreSlider = "genre_slider"
	MessageKindAnnotation  = "annotation"
)

const (
	MessageSenderUser = "user"
	MessageSenderAI   = "ai"
)

// ChatMessage is one transcript entry. Kind discriminates the variant:
// "text" and "annotation" carry Text, "genre_slider" carries Items.
type ChatMessage struct {
	Id        uuid.UUID
	Kind      string
	Sender    string
	Text      string
	Items     []string
	CreatedAt time.Time
}
