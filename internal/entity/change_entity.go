package entity

import (
	"github.com/google/uuid"
)

// Change types recorded in the ledger.
const (
	ChangeTypeGenresAndTags  = "GENRES_AND_TAGS"
	ChangeTypeChapterSummary = "CHAPTER_SUMMARY"
	ChangeTypeAnnotation     = "ANNOTATION"
)

// Change is one accepted artifact in the changes history. Created only
// when the user explicitly applies a generated result, never recorded
// automatically, never edited or removed within a session.
//
// Type discriminates the payload: GENRES_AND_TAGS fills Genres,
// CHAPTER_SUMMARY fills Summary, ANNOTATION fills Annotation.
type Change struct {
	Id        uuid.UUID
	Type      string
	Timestamp string // wall-clock HH:MM, what the sidebar shows

	Genres     []string
	Summary    *SummaryPayload
	Annotation *AnnotationPayload
}

type SummaryPayload struct {
	Title   string
	Summary string
}

type AnnotationPayload struct {
	Title      string
	Annotation string
}
