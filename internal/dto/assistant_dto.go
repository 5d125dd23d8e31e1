package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadManuscriptRequest struct {
	FileName string `json:"file_name" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type ChatMessageDTO struct {
	Id        uuid.UUID `json:"id"`
	Type      string    `json:"type"` // "text" | "genre_slider" | "annotation"
	Sender    string    `json:"sender"`
	Text      string    `json:"text,omitempty"`
	Items     []string  `json:"items,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	Id           uuid.UUID        `json:"id"`
	FileName     string           `json:"file_name"`
	Mode         string           `json:"mode"`
	InFlight     bool             `json:"in_flight"`
	Transcript   []ChatMessageDTO `json:"transcript"`
	Changes      []ChangeDTO      `json:"changes"`
	LastChangeAt *time.Time       `json:"last_change_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type SendChatRequest struct {
	Chat string `json:"chat" validate:"required"`
}

type SendChatResponse struct {
	Mode        string          `json:"mode"`
	Sent        *ChatMessageDTO `json:"sent"`
	Reply       *ChatMessageDTO `json:"reply,omitempty"`
	ChangeAdded *ChangeDTO      `json:"change_added,omitempty"`
}

type SelectModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=default genre_picker summary_picker annotation_picker"`
}

type SelectModeResponse struct {
	Mode     string           `json:"mode"`
	Appended []ChatMessageDTO `json:"appended"`
}

type ApplyGenresRequest struct {
	// Empty selection is a valid apply, it just records nothing.
	Items []string `json:"items"`
}

type ApplyAnnotationRequest struct {
	Annotation string `json:"annotation" validate:"required"`
}

type ApplyResponse struct {
	Mode        string          `json:"mode"`
	Reply       *ChatMessageDTO `json:"reply"`
	ChangeAdded *ChangeDTO      `json:"change_added,omitempty"`
}
