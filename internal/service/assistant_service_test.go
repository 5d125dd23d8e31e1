package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"ai-manuscript-be/internal/constant"
	"ai-manuscript-be/internal/dto"
	"ai-manuscript-be/internal/entity"
	"ai-manuscript-be/internal/pkg/logger"
	"ai-manuscript-be/internal/repository/memory"
	"ai-manuscript-be/pkg/gateway"
	"ai-manuscript-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway lets each test script the AI backend per call.
type fakeGateway struct {
	analyzeFn    func(ctx context.Context, manuscript, question string) (string, error)
	genresFn     func(ctx context.Context, manuscript string) ([]string, error)
	summaryFn    func(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error)
	annotationFn func(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error)
}

func (f *fakeGateway) Analyze(ctx context.Context, manuscript, question string) (string, error) {
	if f.analyzeFn == nil {
		return "answer", nil
	}
	return f.analyzeFn(ctx, manuscript, question)
}

func (f *fakeGateway) GenerateGenresAndTags(ctx context.Context, manuscript string) ([]string, error) {
	if f.genresFn == nil {
		return []string{"детектив", "нуар"}, nil
	}
	return f.genresFn(ctx, manuscript)
}

func (f *fakeGateway) GenerateChapterSummary(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error) {
	if f.summaryFn == nil {
		return &gateway.SummaryResult{Found: true, Title: "Глава 1", Summary: "Краткое содержание."}, nil
	}
	return f.summaryFn(ctx, manuscript, description)
}

func (f *fakeGateway) GenerateAnnotation(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error) {
	if f.annotationFn == nil {
		return "Сгенерированная аннотация.", nil
	}
	return f.annotationFn(ctx, manuscript, priorAnnotation, feedback)
}

func newTestService(t *testing.T, gw gateway.Gateway) (IAssistantService, *memory.SessionRepository) {
	t.Helper()
	repo := memory.NewSessionRepository()
	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	svc := NewAssistantService(repo, gw, nil, "SESSION_EVENT", log)
	return svc, repo
}

func uploadSession(t *testing.T, svc IAssistantService) uuid.UUID {
	t.Helper()
	res, err := svc.UploadManuscript(context.Background(), &dto.UploadManuscriptRequest{
		FileName: "roman.txt",
		Content:  "Глава 1. Ночь над городом.",
	})
	require.NoError(t, err)
	return res.Id
}

func TestUploadManuscript(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})

	res, err := svc.UploadManuscript(context.Background(), &dto.UploadManuscriptRequest{
		FileName: "roman.txt",
		Content:  "text",
	})
	require.NoError(t, err)

	assert.Equal(t, store.ModeDefault, res.Mode)
	assert.False(t, res.InFlight)
	require.Len(t, res.Transcript, 1)
	assert.Equal(t, "ai", res.Transcript[0].Sender)
	assert.Contains(t, res.Transcript[0].Text, `"roman.txt"`)
	assert.Empty(t, res.Changes)
}

func TestSendChatDefaultMode(t *testing.T) {
	t.Run("answers free questions over the manuscript", func(t *testing.T) {
		gw := &fakeGateway{
			analyzeFn: func(ctx context.Context, manuscript, question string) (string, error) {
				assert.Equal(t, "Глава 1. Ночь над городом.", manuscript)
				assert.Equal(t, "О чём книга?", question)
				return "Это нуарный детектив.", nil
			},
		}
		svc, _ := newTestService(t, gw)
		id := uploadSession(t, svc)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "О чём книга?"})
		require.NoError(t, err)

		assert.Equal(t, store.ModeDefault, res.Mode)
		assert.Equal(t, "О чём книга?", res.Sent.Text)
		assert.Equal(t, "Это нуарный детектив.", res.Reply.Text)
		assert.Nil(t, res.ChangeAdded)
	})

	t.Run("gateway failure yields apology, user message kept", func(t *testing.T) {
		gw := &fakeGateway{
			analyzeFn: func(ctx context.Context, manuscript, question string) (string, error) {
				return "", errors.New("quota exceeded")
			},
		}
		svc, _ := newTestService(t, gw)
		id := uploadSession(t, svc)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "вопрос"})
		require.NoError(t, err)
		assert.Equal(t, constant.MessageGenericError, res.Reply.Text)

		sess, err := svc.GetSession(context.Background(), id)
		require.NoError(t, err)
		// intro + user + apology
		require.Len(t, sess.Transcript, 3)
		assert.Equal(t, "вопрос", sess.Transcript[1].Text)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		_, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Chat: "x"})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSelectGenrePicker(t *testing.T) {
	t.Run("appends intent and genre slider", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			genresFn: func(ctx context.Context, manuscript string) ([]string, error) {
				return []string{"детектив", "нуар", "триллер"}, nil
			},
		})
		id := uploadSession(t, svc)

		res, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeGenrePicker})
		require.NoError(t, err)

		assert.Equal(t, store.ModeGenrePicker, res.Mode)
		require.Len(t, res.Appended, 2)
		assert.Equal(t, "user", res.Appended[0].Sender)
		assert.Equal(t, constant.MessageIntentGenres, res.Appended[0].Text)
		assert.Equal(t, "genre_slider", res.Appended[1].Type)
		assert.Equal(t, []string{"детектив", "нуар", "триллер"}, res.Appended[1].Items)
	})

	t.Run("generation failure keeps genre mode with apology", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			genresFn: func(ctx context.Context, manuscript string) ([]string, error) {
				return nil, errors.New("backend down")
			},
		})
		id := uploadSession(t, svc)

		res, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeGenrePicker})
		require.NoError(t, err)

		assert.Equal(t, store.ModeGenrePicker, res.Mode)
		require.Len(t, res.Appended, 2)
		assert.Equal(t, constant.MessageGenericError, res.Appended[1].Text)
	})
}

func TestApplyGenres(t *testing.T) {
	t.Run("records selection and returns to default", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)
		_, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeGenrePicker})
		require.NoError(t, err)

		res, err := svc.ApplyGenres(context.Background(), id, &dto.ApplyGenresRequest{Items: []string{"нуар"}})
		require.NoError(t, err)

		assert.Equal(t, store.ModeDefault, res.Mode)
		assert.Equal(t, constant.MessageGenresRecorded, res.Reply.Text)
		require.NotNil(t, res.ChangeAdded)
		assert.Equal(t, entity.ChangeTypeGenresAndTags, res.ChangeAdded.Type)
		assert.Equal(t, []string{"нуар"}, res.ChangeAdded.Data)
	})

	t.Run("empty selection records nothing but still confirms", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)
		_, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeGenrePicker})
		require.NoError(t, err)

		res, err := svc.ApplyGenres(context.Background(), id, &dto.ApplyGenresRequest{Items: nil})
		require.NoError(t, err)

		assert.Equal(t, store.ModeDefault, res.Mode)
		assert.Equal(t, constant.MessageGenresEmptySelected, res.Reply.Text)
		assert.Nil(t, res.ChangeAdded)

		changes, err := svc.ListChanges(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("repeated apply duplicates the ledger entry", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)

		for i := 0; i < 2; i++ {
			_, err := svc.ApplyGenres(context.Background(), id, &dto.ApplyGenresRequest{Items: []string{"нуар"}})
			require.NoError(t, err)
		}

		changes, err := svc.ListChanges(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, changes, 2)
	})
}

func TestSelectSummaryPicker(t *testing.T) {
	gw := &fakeGateway{
		summaryFn: func(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error) {
			t.Fatal("entering summary mode must not call the gateway")
			return nil, nil
		},
	}
	svc, _ := newTestService(t, gw)
	id := uploadSession(t, svc)

	res, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeSummaryPicker})
	require.NoError(t, err)

	assert.Equal(t, store.ModeSummaryPicker, res.Mode)
	require.Len(t, res.Appended, 2)
	assert.Equal(t, constant.MessageIntentSummary, res.Appended[0].Text)
	assert.Equal(t, constant.MessageSummaryDescribeScene, res.Appended[1].Text)
}

func TestSendChatSummaryMode(t *testing.T) {
	enterSummary := func(t *testing.T, svc IAssistantService, id uuid.UUID) {
		t.Helper()
		_, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeSummaryPicker})
		require.NoError(t, err)
	}

	t.Run("found records change and returns to default", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			summaryFn: func(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error) {
				assert.Equal(t, "сцена с дождём", description)
				return &gateway.SummaryResult{Found: true, Title: "Ночь над городом", Summary: "Орлов у окна."}, nil
			},
		})
		id := uploadSession(t, svc)
		enterSummary(t, svc, id)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "сцена с дождём"})
		require.NoError(t, err)

		assert.Equal(t, store.ModeDefault, res.Mode)
		assert.Equal(t, fmt.Sprintf(constant.MessageSummaryRecorded, "Ночь над городом"), res.Reply.Text)
		require.NotNil(t, res.ChangeAdded)
		assert.Equal(t, entity.ChangeTypeChapterSummary, res.ChangeAdded.Type)
		assert.Equal(t, dto.SummaryDataDTO{Title: "Ночь над городом", Summary: "Орлов у окна."}, res.ChangeAdded.Data)
	})

	t.Run("not found keeps summary mode and relays clarification", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			summaryFn: func(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error) {
				return &gateway.SummaryResult{Found: false, ClarificationNeeded: "В какой главе происходит сцена?"}, nil
			},
		})
		id := uploadSession(t, svc)
		enterSummary(t, svc, id)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "какая-то сцена"})
		require.NoError(t, err)

		assert.Equal(t, store.ModeSummaryPicker, res.Mode)
		assert.Equal(t, "В какой главе происходит сцена?", res.Reply.Text)
		assert.Nil(t, res.ChangeAdded)
	})

	t.Run("not found without clarification uses fallback text", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			summaryFn: func(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error) {
				return &gateway.SummaryResult{Found: false}, nil
			},
		})
		id := uploadSession(t, svc)
		enterSummary(t, svc, id)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "x"})
		require.NoError(t, err)
		assert.Equal(t, constant.MessageSummaryNotFound, res.Reply.Text)
		assert.Equal(t, store.ModeSummaryPicker, res.Mode)
	})

	t.Run("gateway failure keeps summary mode with summary apology", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			summaryFn: func(ctx context.Context, manuscript, description string) (*gateway.SummaryResult, error) {
				return nil, errors.New("timeout")
			},
		})
		id := uploadSession(t, svc)
		enterSummary(t, svc, id)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "x"})
		require.NoError(t, err)
		assert.Equal(t, constant.MessageSummaryError, res.Reply.Text)
		assert.Equal(t, store.ModeSummaryPicker, res.Mode)
	})
}

func TestAnnotationFlow(t *testing.T) {
	t.Run("entering annotation mode generates a first draft", func(t *testing.T) {
		svc, repo := newTestService(t, &fakeGateway{
			annotationFn: func(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error) {
				assert.Empty(t, priorAnnotation)
				assert.Empty(t, feedback)
				return "Черновик аннотации.", nil
			},
		})
		id := uploadSession(t, svc)

		res, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeAnnotationPicker})
		require.NoError(t, err)

		assert.Equal(t, store.ModeAnnotationPicker, res.Mode)
		require.Len(t, res.Appended, 2)
		assert.Equal(t, "annotation", res.Appended[1].Type)
		assert.Equal(t, "Черновик аннотации.", res.Appended[1].Text)

		sess, found := repo.Get(id)
		require.True(t, found)
		assert.Equal(t, "Черновик аннотации.", sess.LastAnnotation)
	})

	t.Run("failed first draft stays in annotation mode silently", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{
			annotationFn: func(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error) {
				return "", errors.New("backend down")
			},
		})
		id := uploadSession(t, svc)

		res, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeAnnotationPicker})
		require.NoError(t, err)

		assert.Equal(t, store.ModeAnnotationPicker, res.Mode)
		// Only the user intent, no error message: the user retries by typing.
		require.Len(t, res.Appended, 1)
		assert.Equal(t, constant.MessageIntentAnnotation, res.Appended[0].Text)
	})

	t.Run("chat refines with prior annotation threaded through", func(t *testing.T) {
		var gotPrior, gotFeedback string
		svc, _ := newTestService(t, &fakeGateway{
			annotationFn: func(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error) {
				gotPrior, gotFeedback = priorAnnotation, feedback
				if feedback == "" {
					return "Первый вариант.", nil
				}
				return "Второй вариант, короче.", nil
			},
		})
		id := uploadSession(t, svc)

		_, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeAnnotationPicker})
		require.NoError(t, err)

		res, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "Сделай короче"})
		require.NoError(t, err)

		assert.Equal(t, "Первый вариант.", gotPrior)
		assert.Equal(t, "Сделай короче", gotFeedback)
		assert.Equal(t, "Второй вариант, короче.", res.Reply.Text)
		assert.Equal(t, store.ModeAnnotationPicker, res.Mode)
	})

	t.Run("apply records under the fixed title and leaves the mode", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)
		_, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeAnnotationPicker})
		require.NoError(t, err)

		res, err := svc.ApplyAnnotation(context.Background(), id, &dto.ApplyAnnotationRequest{Annotation: "Финальный текст."})
		require.NoError(t, err)

		assert.Equal(t, store.ModeDefault, res.Mode)
		assert.Equal(t, constant.MessageAnnotationRecorded, res.Reply.Text)
		require.NotNil(t, res.ChangeAdded)
		assert.Equal(t, entity.ChangeTypeAnnotation, res.ChangeAdded.Type)
		assert.Equal(t, dto.AnnotationDataDTO{
			Title:      constant.AnnotationChangeTitle,
			Annotation: "Финальный текст.",
		}, res.ChangeAdded.Data)
	})
}

func TestSelectDefaultLeavesPicker(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	id := uploadSession(t, svc)

	_, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeSummaryPicker})
	require.NoError(t, err)

	res, err := svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeDefault})
	require.NoError(t, err)
	assert.Equal(t, store.ModeDefault, res.Mode)
	assert.Empty(t, res.Appended)
}

func TestSingleFlightGate(t *testing.T) {
	svc, repo := newTestService(t, &fakeGateway{})
	id := uploadSession(t, svc)

	sess, found := repo.Get(id)
	require.True(t, found)
	sess.InFlight = true
	repo.Save(sess)

	before, err := svc.GetSession(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "x"})
	assert.ErrorIs(t, err, ErrCallInFlight)

	_, err = svc.SelectMode(context.Background(), id, &dto.SelectModeRequest{Mode: store.ModeGenrePicker})
	assert.ErrorIs(t, err, ErrCallInFlight)

	// Rejected input must leave the session untouched.
	after, err := svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, len(before.Transcript), len(after.Transcript))

	// Applies never call the gateway, so they are not gated.
	_, err = svc.ApplyGenres(context.Background(), id, &dto.ApplyGenresRequest{Items: []string{"нуар"}})
	assert.NoError(t, err)
}

func TestReset(t *testing.T) {
	t.Run("discards everything", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)

		_, err := svc.ApplyGenres(context.Background(), id, &dto.ApplyGenresRequest{Items: []string{"нуар"}})
		require.NoError(t, err)

		require.NoError(t, svc.Reset(context.Background(), id))

		_, err = svc.GetSession(context.Background(), id)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = svc.ListChanges(context.Background(), id)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("discards a gateway result that was in flight", func(t *testing.T) {
		gw := &fakeGateway{}
		svc, repo := newTestService(t, gw)
		id := uploadSession(t, svc)

		// The session dies while the call is pending.
		gw.analyzeFn = func(ctx context.Context, manuscript, question string) (string, error) {
			require.NoError(t, svc.Reset(context.Background(), id))
			return "поздний ответ", nil
		}

		_, err := svc.SendChat(context.Background(), id, &dto.SendChatRequest{Chat: "вопрос"})
		assert.ErrorIs(t, err, ErrSessionNotFound)

		// The late result must not resurrect the session.
		_, found := repo.Get(id)
		assert.False(t, found)
	})
}

func TestExportChange(t *testing.T) {
	t.Run("genres export joins items line by line", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)

		res, err := svc.ApplyGenres(context.Background(), id, &dto.ApplyGenresRequest{Items: []string{"детектив", "нуар"}})
		require.NoError(t, err)

		file, err := svc.ExportChange(context.Background(), id, res.ChangeAdded.Id)
		require.NoError(t, err)
		assert.Equal(t, "Жанры и теги.txt", file.FileName)
		assert.Equal(t, "детектив\nнуар", file.Content)
	})

	t.Run("unknown change id", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeGateway{})
		id := uploadSession(t, svc)

		_, err := svc.ExportChange(context.Background(), id, uuid.New())
		assert.ErrorIs(t, err, ErrChangeNotFound)
	})
}
