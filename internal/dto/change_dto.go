package dto

import (
	"github.com/google/uuid"
)

// ChangeDTO mirrors what the sidebar renders. Data depends on Type:
// GENRES_AND_TAGS carries []string, CHAPTER_SUMMARY carries
// SummaryDataDTO, ANNOTATION carries AnnotationDataDTO.
type ChangeDTO struct {
	Id        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type SummaryDataDTO struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type AnnotationDataDTO struct {
	Title      string `json:"title"`
	Annotation string `json:"annotation"`
}

// ExportFileDTO is a ledger entry rendered for download.
type ExportFileDTO struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}
