package state

import (
	"ai-manuscript-be/internal/pkg/logger"
	"ai-manuscript-be/pkg/store"
)

// Manager handles interaction-mode transitions. It is the only place a
// session's Mode is written.
type Manager struct {
	logger logger.ILogger
}

func NewManager(log logger.ILogger) *Manager {
	return &Manager{logger: log}
}

// EnterGenrePicker moves the session into genre selection. The mode is
// entered even when the generation call later fails; the user leaves it
// by applying a selection.
func (m *Manager) EnterGenrePicker(session *store.Session) {
	session.Mode = store.ModeGenrePicker
	m.logger.Info("State", "Transitioned to genre_picker", map[string]interface{}{"session_id": session.Id})
}

// EnterSummaryPicker moves the session into scene-summary mode. The
// session stays here across any number of found=false rounds until a
// scene is matched or the user picks another mode.
func (m *Manager) EnterSummaryPicker(session *store.Session) {
	session.Mode = store.ModeSummaryPicker
	m.logger.Info("State", "Transitioned to summary_picker", map[string]interface{}{"session_id": session.Id})
}

// EnterAnnotationPicker moves the session into annotation refinement.
func (m *Manager) EnterAnnotationPicker(session *store.Session) {
	session.Mode = store.ModeAnnotationPicker
	m.logger.Info("State", "Transitioned to annotation_picker", map[string]interface{}{"session_id": session.Id})
}

// ReturnToDefault leaves whatever picker mode was active.
func (m *Manager) ReturnToDefault(session *store.Session, reason string) {
	session.Mode = store.ModeDefault
	m.logger.Info("State", "Transitioned to default", map[string]interface{}{
		"session_id": session.Id,
		"reason":     reason,
	})
}
