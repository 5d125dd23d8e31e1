package message

import (
	"time"

	"ai-manuscript-be/internal/entity"

	"github.com/google/uuid"
)

// Factory builds transcript entries. Ids only exist to give the client a
// stable rendering identity; no business logic reads them.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateUserMessage creates a plain text entry from user input.
func (f *Factory) CreateUserMessage(text string, now time.Time) entity.ChatMessage {
	return entity.ChatMessage{
		Id:        uuid.New(),
		Kind:      entity.MessageKindText,
		Sender:    entity.MessageSenderUser,
		Text:      text,
		CreatedAt: now,
	}
}

// CreateAIMessage creates a plain text entry from the model side.
func (f *Factory) CreateAIMessage(text string, now time.Time) entity.ChatMessage {
	return entity.ChatMessage{
		Id:        uuid.New(),
		Kind:      entity.MessageKindText,
		Sender:    entity.MessageSenderAI,
		Text:      text,
		CreatedAt: now,
	}
}

// CreateGenreSliderMessage carries the generated genre/tag candidates the
// client renders as a selectable slider.
func (f *Factory) CreateGenreSliderMessage(items []string, now time.Time) entity.ChatMessage {
	return entity.ChatMessage{
		Id:        uuid.New(),
		Kind:      entity.MessageKindGenreSlider,
		Sender:    entity.MessageSenderAI,
		Items:     items,
		CreatedAt: now,
	}
}

// CreateAnnotationMessage carries a generated annotation the client
// renders with an apply affordance.
func (f *Factory) CreateAnnotationMessage(text string, now time.Time) entity.ChatMessage {
	return entity.ChatMessage{
		Id:        uuid.New(),
		Kind:      entity.MessageKindAnnotation,
		Sender:    entity.MessageSenderAI,
		Text:      text,
		CreatedAt: now,
	}
}
