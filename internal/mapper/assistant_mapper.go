package mapper

import (
	"fmt"
	"strings"

	"ai-manuscript-be/internal/dto"
	"ai-manuscript-be/internal/entity"
	"ai-manuscript-be/pkg/store"
)

type AssistantMapper struct{}

func NewAssistantMapper() *AssistantMapper {
	return &AssistantMapper{}
}

// Message Mappers

func (m *AssistantMapper) MessageToDTO(msg *entity.ChatMessage) *dto.ChatMessageDTO {
	if msg == nil {
		return nil
	}

	out := &dto.ChatMessageDTO{
		Id:        msg.Id,
		Sender:    msg.Sender,
		CreatedAt: msg.CreatedAt,
	}

	switch msg.Kind {
	case entity.MessageKindText:
		out.Type = entity.MessageKindText
		out.Text = msg.Text
	case entity.MessageKindGenreSlider:
		out.Type = entity.MessageKindGenreSlider
		out.Items = msg.Items
	case entity.MessageKindAnnotation:
		out.Type = entity.MessageKindAnnotation
		out.Text = msg.Text
	default:
		panic(fmt.Sprintf("unhandled message kind %q", msg.Kind))
	}

	return out
}

func (m *AssistantMapper) MessagesToDTO(msgs []entity.ChatMessage) []dto.ChatMessageDTO {
	out := make([]dto.ChatMessageDTO, 0, len(msgs))
	for i := range msgs {
		out = append(out, *m.MessageToDTO(&msgs[i]))
	}
	return out
}

// Change Mappers

func (m *AssistantMapper) ChangeToDTO(c *entity.Change) *dto.ChangeDTO {
	if c == nil {
		return nil
	}

	out := &dto.ChangeDTO{
		Id:        c.Id,
		Type:      c.Type,
		Timestamp: c.Timestamp,
	}

	switch c.Type {
	case entity.ChangeTypeGenresAndTags:
		out.Data = c.Genres
	case entity.ChangeTypeChapterSummary:
		out.Data = dto.SummaryDataDTO{Title: c.Summary.Title, Summary: c.Summary.Summary}
	case entity.ChangeTypeAnnotation:
		out.Data = dto.AnnotationDataDTO{Title: c.Annotation.Title, Annotation: c.Annotation.Annotation}
	default:
		panic(fmt.Sprintf("unhandled change type %q", c.Type))
	}

	return out
}

func (m *AssistantMapper) ChangesToDTO(changes []entity.Change) []dto.ChangeDTO {
	out := make([]dto.ChangeDTO, 0, len(changes))
	for i := range changes {
		out = append(out, *m.ChangeToDTO(&changes[i]))
	}
	return out
}

// ChangeToExportFile renders a ledger entry as downloadable text. The
// filename derives from the entry's title; the content is the payload a
// user would paste into their publishing tooling.
func (m *AssistantMapper) ChangeToExportFile(c *entity.Change) *dto.ExportFileDTO {
	var title, content string

	switch c.Type {
	case entity.ChangeTypeGenresAndTags:
		title = "Жанры и теги"
		content = strings.Join(c.Genres, "\n")
	case entity.ChangeTypeChapterSummary:
		title = c.Summary.Title
		content = c.Summary.Summary
	case entity.ChangeTypeAnnotation:
		title = c.Annotation.Title
		content = c.Annotation.Annotation
	default:
		panic(fmt.Sprintf("unhandled change type %q", c.Type))
	}

	return &dto.ExportFileDTO{
		FileName: SanitizeFileName(title) + ".txt",
		Content:  content,
	}
}

func (m *AssistantMapper) SessionToDTO(s *store.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:           s.Id,
		FileName:     s.FileName,
		Mode:         s.Mode,
		InFlight:     s.InFlight,
		Transcript:   m.MessagesToDTO(s.Transcript),
		Changes:      m.ChangesToDTO(s.Changes),
		LastChangeAt: s.LastChangeAt,
		CreatedAt:    s.CreatedAt,
	}
}

// SanitizeFileName keeps the title readable while staying safe in a
// Content-Disposition header and on any filesystem.
func SanitizeFileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "export"
	}
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "", "\"", "'", "<", "(", ">", ")", "|", "-", "\n", " ", "\r", " ",
	)
	return replacer.Replace(title)
}
