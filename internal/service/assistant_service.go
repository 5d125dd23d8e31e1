package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-manuscript-be/internal/constant"
	"ai-manuscript-be/internal/dto"
	"ai-manuscript-be/internal/entity"
	"ai-manuscript-be/internal/mapper"
	"ai-manuscript-be/internal/pkg/logger"
	"ai-manuscript-be/internal/repository/memory"
	"ai-manuscript-be/pkg/assistant/message"
	"ai-manuscript-be/pkg/assistant/state"
	"ai-manuscript-be/pkg/events"
	"ai-manuscript-be/pkg/gateway"
	"ai-manuscript-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	wmessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrChangeNotFound  = errors.New("change not found")

	// ErrCallInFlight rejects input while a gateway call is pending.
	// Submitting during in-flight never mutates the session.
	ErrCallInFlight = errors.New("a backend call is already in flight")
)

// IAssistantService is the session controller: it owns all session state,
// routes user intents to the gateway according to the active mode and
// interprets results into transcript and ledger mutations.
type IAssistantService interface {
	UploadManuscript(ctx context.Context, request *dto.UploadManuscriptRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error)
	SelectMode(ctx context.Context, sessionId uuid.UUID, request *dto.SelectModeRequest) (*dto.SelectModeResponse, error)
	SendChat(ctx context.Context, sessionId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	ApplyGenres(ctx context.Context, sessionId uuid.UUID, request *dto.ApplyGenresRequest) (*dto.ApplyResponse, error)
	ApplyAnnotation(ctx context.Context, sessionId uuid.UUID, request *dto.ApplyAnnotationRequest) (*dto.ApplyResponse, error)
	ListChanges(ctx context.Context, sessionId uuid.UUID) ([]dto.ChangeDTO, error)
	ExportChange(ctx context.Context, sessionId uuid.UUID, changeId uuid.UUID) (*dto.ExportFileDTO, error)
	Reset(ctx context.Context, sessionId uuid.UUID) error
}

// callInputs is what a gateway call needs from the session, captured
// under the lock before the call starts. Manuscript and prior annotation
// are value copies, safe to read after the lock is released.
type callInputs struct {
	manuscript string
	prior      string
	mode       string
	epoch      uint64
}

type assistantService struct {
	sessionRepo *memory.SessionRepository
	gw          gateway.Gateway
	logger      logger.ILogger

	stateManager   *state.Manager
	messageFactory *message.Factory
	mapper         *mapper.AssistantMapper

	pubSub *gochannel.GoChannel
	topic  string

	// Serializes session mutation and the in-flight check-and-set.
	// Gateway calls themselves run outside the lock.
	mu sync.Mutex
}

func NewAssistantService(
	sessionRepo *memory.SessionRepository,
	gw gateway.Gateway,
	pubSub *gochannel.GoChannel,
	topic string,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		sessionRepo:    sessionRepo,
		gw:             gw,
		logger:         log,
		stateManager:   state.NewManager(log),
		messageFactory: message.NewFactory(),
		mapper:         mapper.NewAssistantMapper(),
		pubSub:         pubSub,
		topic:          topic,
	}
}

// UploadManuscript creates a fresh session around the decoded text and
// seeds the transcript with the intro message naming the file.
func (as *assistantService) UploadManuscript(ctx context.Context, request *dto.UploadManuscriptRequest) (*dto.SessionResponse, error) {
	now := time.Now()

	sess := &store.Session{
		Id:         uuid.New(),
		FileName:   request.FileName,
		Manuscript: request.Content,
		Mode:       store.ModeDefault,
		CreatedAt:  now,
	}

	intro := as.messageFactory.CreateAIMessage(
		fmt.Sprintf(constant.MessageManuscriptLoaded, request.FileName), now)
	sess.AppendMessage(intro)

	as.mu.Lock()
	as.sessionRepo.Save(sess)
	as.mu.Unlock()

	as.logger.Info("Assistant", "Manuscript uploaded", map[string]interface{}{
		"session_id": sess.Id,
		"file_name":  request.FileName,
		"size":       len(request.Content),
	})

	return as.mapper.SessionToDTO(sess), nil
}

func (as *assistantService) GetSession(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}
	return as.mapper.SessionToDTO(sess), nil
}

// SelectMode handles the option-menu intents. Genre and annotation modes
// fire a generation call immediately; summary mode only asks the user to
// describe the scene. Selecting default leaves whatever picker was
// active, which is the only way out of a summary search that keeps
// coming back empty.
func (as *assistantService) SelectMode(ctx context.Context, sessionId uuid.UUID, request *dto.SelectModeRequest) (*dto.SelectModeResponse, error) {
	switch request.Mode {
	case store.ModeDefault:
		return as.selectDefault(sessionId)
	case store.ModeSummaryPicker:
		return as.selectSummaryPicker(sessionId)
	case store.ModeGenrePicker:
		return as.selectGenrePicker(ctx, sessionId)
	case store.ModeAnnotationPicker:
		return as.selectAnnotationPicker(ctx, sessionId)
	default:
		return nil, fmt.Errorf("unknown mode %q", request.Mode)
	}
}

func (as *assistantService) selectDefault(sessionId uuid.UUID) (*dto.SelectModeResponse, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}
	if sess.InFlight {
		return nil, ErrCallInFlight
	}

	as.stateManager.ReturnToDefault(sess, "mode selected")
	as.sessionRepo.Save(sess)

	return &dto.SelectModeResponse{Mode: sess.Mode, Appended: []dto.ChatMessageDTO{}}, nil
}

func (as *assistantService) selectSummaryPicker(sessionId uuid.UUID) (*dto.SelectModeResponse, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}
	if sess.InFlight {
		return nil, ErrCallInFlight
	}

	now := time.Now()
	intent := as.messageFactory.CreateUserMessage(constant.MessageIntentSummary, now)
	prompt := as.messageFactory.CreateAIMessage(constant.MessageSummaryDescribeScene, now)
	sess.AppendMessage(intent)
	sess.AppendMessage(prompt)
	as.stateManager.EnterSummaryPicker(sess)
	as.sessionRepo.Save(sess)

	as.publishMessage(sess.Id, intent)
	as.publishMessage(sess.Id, prompt)

	return &dto.SelectModeResponse{
		Mode:     sess.Mode,
		Appended: as.mapper.MessagesToDTO([]entity.ChatMessage{intent, prompt}),
	}, nil
}

func (as *assistantService) selectGenrePicker(ctx context.Context, sessionId uuid.UUID) (*dto.SelectModeResponse, error) {
	intent := as.messageFactory.CreateUserMessage(constant.MessageIntentGenres, time.Now())

	in, err := as.begin(sessionId, func(sess *store.Session) {
		sess.AppendMessage(intent)
		as.stateManager.EnterGenrePicker(sess)
	})
	if err != nil {
		return nil, err
	}
	as.publishMessage(sessionId, intent)

	genres, callErr := as.gw.GenerateGenresAndTags(ctx, in.manuscript)

	return finish(as, sessionId, in.epoch, func(cur *store.Session) *dto.SelectModeResponse {
		appended := []entity.ChatMessage{intent}
		if callErr != nil {
			as.logger.Error("Assistant", "Genre generation failed", map[string]interface{}{
				"session_id": cur.Id, "error": callErr.Error(),
			})
			errMsg := as.messageFactory.CreateAIMessage(constant.MessageGenericError, time.Now())
			cur.AppendMessage(errMsg)
			as.publishMessage(cur.Id, errMsg)
			appended = append(appended, errMsg)
		} else {
			slider := as.messageFactory.CreateGenreSliderMessage(genres, time.Now())
			cur.AppendMessage(slider)
			as.publishMessage(cur.Id, slider)
			appended = append(appended, slider)
		}
		return &dto.SelectModeResponse{
			Mode:     cur.Mode,
			Appended: as.mapper.MessagesToDTO(appended),
		}
	})
}

func (as *assistantService) selectAnnotationPicker(ctx context.Context, sessionId uuid.UUID) (*dto.SelectModeResponse, error) {
	intent := as.messageFactory.CreateUserMessage(constant.MessageIntentAnnotation, time.Now())

	in, err := as.begin(sessionId, func(sess *store.Session) {
		sess.AppendMessage(intent)
		as.stateManager.EnterAnnotationPicker(sess)
	})
	if err != nil {
		return nil, err
	}
	as.publishMessage(sessionId, intent)

	annotation, callErr := as.gw.GenerateAnnotation(ctx, in.manuscript, "", "")

	return finish(as, sessionId, in.epoch, func(cur *store.Session) *dto.SelectModeResponse {
		appended := []entity.ChatMessage{intent}
		if callErr != nil {
			// The first annotation pass fails silently: the user stays in
			// annotation mode and can type feedback to retry.
			as.logger.Warn("Assistant", "Initial annotation generation failed", map[string]interface{}{
				"session_id": cur.Id, "error": callErr.Error(),
			})
		} else {
			msg := as.messageFactory.CreateAnnotationMessage(annotation, time.Now())
			cur.AppendMessage(msg)
			cur.LastAnnotation = annotation
			as.publishMessage(cur.Id, msg)
			appended = append(appended, msg)
		}
		return &dto.SelectModeResponse{
			Mode:     cur.Mode,
			Appended: as.mapper.MessagesToDTO(appended),
		}
	})
}

// SendChat routes free text by the active mode: annotation mode refines
// the annotation with the text as feedback, summary mode treats it as a
// scene description, everything else is free Q&A over the manuscript.
func (as *assistantService) SendChat(ctx context.Context, sessionId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	userMsg := as.messageFactory.CreateUserMessage(request.Chat, time.Now())

	in, err := as.begin(sessionId, func(sess *store.Session) {
		sess.AppendMessage(userMsg)
	})
	if err != nil {
		return nil, err
	}
	as.publishMessage(sessionId, userMsg)

	sent := as.mapper.MessageToDTO(&userMsg)

	switch in.mode {
	case store.ModeAnnotationPicker:
		annotation, callErr := as.gw.GenerateAnnotation(ctx, in.manuscript, in.prior, request.Chat)
		return finish(as, sessionId, in.epoch, func(cur *store.Session) *dto.SendChatResponse {
			var reply entity.ChatMessage
			if callErr != nil {
				as.logger.Error("Assistant", "Annotation refinement failed", map[string]interface{}{
					"session_id": cur.Id, "error": callErr.Error(),
				})
				reply = as.messageFactory.CreateAIMessage(constant.MessageGenericError, time.Now())
			} else {
				reply = as.messageFactory.CreateAnnotationMessage(annotation, time.Now())
				cur.LastAnnotation = annotation
			}
			cur.AppendMessage(reply)
			as.publishMessage(cur.Id, reply)
			return &dto.SendChatResponse{Mode: cur.Mode, Sent: sent, Reply: as.mapper.MessageToDTO(&reply)}
		})

	case store.ModeSummaryPicker:
		result, callErr := as.gw.GenerateChapterSummary(ctx, in.manuscript, request.Chat)
		return finish(as, sessionId, in.epoch, func(cur *store.Session) *dto.SendChatResponse {
			if callErr != nil {
				as.logger.Error("Assistant", "Chapter summary failed", map[string]interface{}{
					"session_id": cur.Id, "error": callErr.Error(),
				})
				reply := as.messageFactory.CreateAIMessage(constant.MessageSummaryError, time.Now())
				cur.AppendMessage(reply)
				as.publishMessage(cur.Id, reply)
				return &dto.SendChatResponse{Mode: cur.Mode, Sent: sent, Reply: as.mapper.MessageToDTO(&reply)}
			}

			if !result.Found {
				text := result.ClarificationNeeded
				if text == "" {
					text = constant.MessageSummaryNotFound
				}
				reply := as.messageFactory.CreateAIMessage(text, time.Now())
				cur.AppendMessage(reply)
				as.publishMessage(cur.Id, reply)
				// Stay in summary mode until a scene is matched or the
				// user leaves it manually.
				return &dto.SendChatResponse{Mode: cur.Mode, Sent: sent, Reply: as.mapper.MessageToDTO(&reply)}
			}

			recordedAt := time.Now()
			change := entity.Change{
				Id:        uuid.New(),
				Type:      entity.ChangeTypeChapterSummary,
				Timestamp: recordedAt.Format(constant.ChangeTimestampLayout),
				Summary:   &entity.SummaryPayload{Title: result.Title, Summary: result.Summary},
			}
			cur.RecordChange(change, recordedAt)
			as.publishChange(cur.Id, change)

			reply := as.messageFactory.CreateAIMessage(
				fmt.Sprintf(constant.MessageSummaryRecorded, result.Title), recordedAt)
			cur.AppendMessage(reply)
			as.publishMessage(cur.Id, reply)
			as.stateManager.ReturnToDefault(cur, "summary recorded")

			return &dto.SendChatResponse{
				Mode:        cur.Mode,
				Sent:        sent,
				Reply:       as.mapper.MessageToDTO(&reply),
				ChangeAdded: as.mapper.ChangeToDTO(&change),
			}
		})

	default:
		// default and genre_picker: free Q&A over the manuscript.
		answer, callErr := as.gw.Analyze(ctx, in.manuscript, request.Chat)
		return finish(as, sessionId, in.epoch, func(cur *store.Session) *dto.SendChatResponse {
			var reply entity.ChatMessage
			if callErr != nil {
				as.logger.Error("Assistant", "Analyze failed", map[string]interface{}{
					"session_id": cur.Id, "error": callErr.Error(),
				})
				reply = as.messageFactory.CreateAIMessage(constant.MessageGenericError, time.Now())
			} else {
				reply = as.messageFactory.CreateAIMessage(answer, time.Now())
			}
			cur.AppendMessage(reply)
			as.publishMessage(cur.Id, reply)
			return &dto.SendChatResponse{Mode: cur.Mode, Sent: sent, Reply: as.mapper.MessageToDTO(&reply)}
		})
	}
}

// ApplyGenres records the user's selection. An empty selection is a
// valid apply: it records nothing and confirms with a distinct message.
func (as *assistantService) ApplyGenres(ctx context.Context, sessionId uuid.UUID, request *dto.ApplyGenresRequest) (*dto.ApplyResponse, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	now := time.Now()
	response := &dto.ApplyResponse{}

	if len(request.Items) > 0 {
		change := entity.Change{
			Id:        uuid.New(),
			Type:      entity.ChangeTypeGenresAndTags,
			Timestamp: now.Format(constant.ChangeTimestampLayout),
			Genres:    request.Items,
		}
		sess.RecordChange(change, now)
		as.publishChange(sess.Id, change)
		response.ChangeAdded = as.mapper.ChangeToDTO(&change)

		reply := as.messageFactory.CreateAIMessage(constant.MessageGenresRecorded, now)
		sess.AppendMessage(reply)
		as.publishMessage(sess.Id, reply)
		response.Reply = as.mapper.MessageToDTO(&reply)
	} else {
		reply := as.messageFactory.CreateAIMessage(constant.MessageGenresEmptySelected, now)
		sess.AppendMessage(reply)
		as.publishMessage(sess.Id, reply)
		response.Reply = as.mapper.MessageToDTO(&reply)
	}

	as.stateManager.ReturnToDefault(sess, "genres applied")
	as.sessionRepo.Save(sess)
	response.Mode = sess.Mode

	return response, nil
}

// ApplyAnnotation records the shown annotation under the fixed ledger
// title and leaves annotation mode.
func (as *assistantService) ApplyAnnotation(ctx context.Context, sessionId uuid.UUID, request *dto.ApplyAnnotationRequest) (*dto.ApplyResponse, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	now := time.Now()
	change := entity.Change{
		Id:        uuid.New(),
		Type:      entity.ChangeTypeAnnotation,
		Timestamp: now.Format(constant.ChangeTimestampLayout),
		Annotation: &entity.AnnotationPayload{
			Title:      constant.AnnotationChangeTitle,
			Annotation: request.Annotation,
		},
	}
	sess.RecordChange(change, now)
	as.publishChange(sess.Id, change)

	reply := as.messageFactory.CreateAIMessage(constant.MessageAnnotationRecorded, now)
	sess.AppendMessage(reply)
	as.publishMessage(sess.Id, reply)

	as.stateManager.ReturnToDefault(sess, "annotation applied")
	as.sessionRepo.Save(sess)

	return &dto.ApplyResponse{
		Mode:        sess.Mode,
		Reply:       as.mapper.MessageToDTO(&reply),
		ChangeAdded: as.mapper.ChangeToDTO(&change),
	}, nil
}

func (as *assistantService) ListChanges(ctx context.Context, sessionId uuid.UUID) ([]dto.ChangeDTO, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}
	return as.mapper.ChangesToDTO(sess.Changes), nil
}

func (as *assistantService) ExportChange(ctx context.Context, sessionId uuid.UUID, changeId uuid.UUID) (*dto.ExportFileDTO, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return nil, ErrSessionNotFound
	}

	change := sess.FindChange(changeId)
	if change == nil {
		return nil, ErrChangeNotFound
	}
	return as.mapper.ChangeToExportFile(change), nil
}

// Reset discards the session entirely. The epoch bump makes any still
// in-flight gateway result land on the floor instead of resurrecting
// cleared state.
func (as *assistantService) Reset(ctx context.Context, sessionId uuid.UUID) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return ErrSessionNotFound
	}

	sess.Epoch++
	as.sessionRepo.Delete(sessionId)

	as.logger.Info("Assistant", "Session reset", map[string]interface{}{"session_id": sessionId})
	return nil
}

// begin gates a gateway call. Under one lock acquisition it verifies the
// session, raises the in-flight flag, applies prep (the pre-call
// transcript/mode mutation) and captures the call inputs.
func (as *assistantService) begin(sessionId uuid.UUID, prep func(sess *store.Session)) (callInputs, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	sess, found := as.sessionRepo.Get(sessionId)
	if !found {
		return callInputs{}, ErrSessionNotFound
	}
	if sess.InFlight {
		return callInputs{}, ErrCallInFlight
	}

	sess.InFlight = true
	prep(sess)
	as.sessionRepo.Save(sess)

	return callInputs{
		manuscript: sess.Manuscript,
		prior:      sess.LastAnnotation,
		mode:       sess.Mode,
		epoch:      sess.Epoch,
	}, nil
}

// finish re-validates the session after a gateway call returns and, if
// it is still the same live session, applies fn under the lock and
// clears the in-flight flag. A reset-while-pending result is discarded.
func finish[T any](as *assistantService, sessionId uuid.UUID, epoch uint64, fn func(cur *store.Session) T) (T, error) {
	var zero T

	as.mu.Lock()
	defer as.mu.Unlock()

	cur, found := as.sessionRepo.Get(sessionId)
	if !found || cur.Epoch != epoch {
		as.logger.Warn("Assistant", "Discarding stale gateway result", map[string]interface{}{
			"session_id": sessionId,
		})
		return zero, ErrSessionNotFound
	}

	cur.InFlight = false
	out := fn(cur)
	as.sessionRepo.Save(cur)
	return out, nil
}

func (as *assistantService) publishMessage(sessionId uuid.UUID, msg entity.ChatMessage) {
	as.publish(dto.SessionEventMessage{
		SessionId: sessionId,
		Event:     events.TypeMessageAppended,
		Message:   as.mapper.MessageToDTO(&msg),
		At:        time.Now(),
	})
}

func (as *assistantService) publishChange(sessionId uuid.UUID, change entity.Change) {
	as.publish(dto.SessionEventMessage{
		SessionId: sessionId,
		Event:     events.TypeChangeAdded,
		Change:    as.mapper.ChangeToDTO(&change),
		At:        time.Now(),
	})
}

func (as *assistantService) publish(payload dto.SessionEventMessage) {
	if as.pubSub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		as.logger.Error("Assistant", "Failed to marshal session event", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := as.pubSub.Publish(as.topic, wmessage.NewMessage(watermill.NewUUID(), data)); err != nil {
		as.logger.Error("Assistant", "Failed to publish session event", map[string]interface{}{"error": err.Error()})
	}
}
