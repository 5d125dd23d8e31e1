package store

import (
	"time"

	"ai-manuscript-be/internal/entity"

	"github.com/google/uuid"
)

// Session represents the active assistant session state in memory.
// The assistant service is the only writer. Everything here is discarded
// on reset; nothing survives a process restart.
type Session struct {
	Id       uuid.UUID
	FileName string

	// The uploaded book text. Immutable once set, shared read-only by
	// every gateway call.
	Manuscript string

	// Active interaction mode, gates free-text routing.
	Mode string

	// True exactly while a gateway call is pending. Gates further input.
	InFlight bool

	// Bumped on reset. A gateway result captured under an older epoch
	// must be discarded instead of applied.
	Epoch uint64

	// THE CONVERSATION (append-only, chronological)
	Transcript []entity.ChatMessage

	// THE LEDGER (append-only, user-accepted artifacts)
	Changes []entity.Change

	// Last annotation shown to the user; threaded into refinement calls
	// so the gateway never depends on server-side chat memory.
	LastAnnotation string

	// When the last ledger entry was recorded (drives the sidebar nudge).
	LastChangeAt *time.Time

	CreatedAt time.Time
}

const (
	ModeDefault          = "default"
	ModeGenrePicker      = "genre_picker"
	ModeSummaryPicker    = "summary_picker"
	ModeAnnotationPicker = "annotation_picker"
)

// ValidMode reports whether m is one of the four interaction modes.
func ValidMode(m string) bool {
	switch m {
	case ModeDefault, ModeGenrePicker, ModeSummaryPicker, ModeAnnotationPicker:
		return true
	}
	return false
}

// AppendMessage appends to the transcript. The transcript is never
// reordered or edited, only appended to and wholly cleared on reset.
func (s *Session) AppendMessage(msg entity.ChatMessage) {
	s.Transcript = append(s.Transcript, msg)
}

// RecordChange appends to the ledger and stamps LastChangeAt. Repeated
// applies of the same artifact intentionally create duplicate entries.
func (s *Session) RecordChange(change entity.Change, now time.Time) {
	s.Changes = append(s.Changes, change)
	s.LastChangeAt = &now
}

// FindChange returns the ledger entry with the given id, or nil.
func (s *Session) FindChange(id uuid.UUID) *entity.Change {
	for i := range s.Changes {
		if s.Changes[i].Id == id {
			return &s.Changes[i]
		}
	}
	return nil
}
