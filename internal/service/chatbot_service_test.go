package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/constant"
	"alrah-ai-be/internal/dto"
	"alrah-ai-be/internal/entity"
	"alrah-ai-be/internal/repository/contract"
	"alrah-ai-be/internal/repository/unitofwork"
	"alrah-ai-be/pkg/dispatch"
	"alrah-ai-be/pkg/llm"
	"alrah-ai-be/pkg/rag"
	"alrah-ai-be/pkg/rag/history"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeSessionService struct {
	mu       sync.Mutex
	appended []history.Entry
	history  []history.Entry
	missing  bool
}

func (f *fakeSessionService) CreateSession(ctx context.Context, userId string) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{SessionId: "abcd1234"}, nil
}

func (f *fakeSessionService) AppendMessage(ctx context.Context, userId, sessionId, role, content string, meta map[string]interface{}) error {
	if f.missing {
		return apperrors.Wrapf(apperrors.ErrNotFound, "session %s not found", sessionId)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, history.Entry{Role: role, Content: content})
	f.history = append(f.history, history.Entry{Role: role, Content: content})
	return nil
}

func (f *fakeSessionService) GetHistory(ctx context.Context, userId, sessionId string) ([]history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]history.Entry, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeSessionService) GetHistoryDetailed(ctx context.Context, userId, sessionId string) ([]*dto.GetChatHistoryResponse, error) {
	return nil, nil
}

func (f *fakeSessionService) ListSessions(ctx context.Context, userId string) ([]*dto.GetAllSessionsResponse, error) {
	return nil, nil
}

func (f *fakeSessionService) DeleteSession(ctx context.Context, userId, sessionId string) (bool, error) {
	return false, nil
}

func (f *fakeSessionService) SessionExists(ctx context.Context, userId, sessionId string) (bool, error) {
	return !f.missing, nil
}

func (f *fakeSessionService) SetTitle(ctx context.Context, userId, sessionId, title string) error {
	return nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeLLM struct {
	mu         sync.Mutex
	lastSystem string
	lastUser   string
	reply      string
	err        error
}

func (f *fakeLLM) Chat(ctx context.Context, hist []llm.Message, options ...llm.Option) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.reply, f.err
}

func (f *fakeLLM) promptSeen() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSystem, f.lastUser
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

type fakePassageRepo struct {
	passages []*contract.ScoredPassage
	err      error
}

func (f *fakePassageRepo) Create(ctx context.Context, p *entity.PassageEmbedding, embedding []float32) error {
	return nil
}

func (f *fakePassageRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredPassage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.passages) {
		return f.passages[:limit], nil
	}
	return f.passages, nil
}

func (f *fakePassageRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.passages)), nil
}

type fakeUow struct {
	passages contract.PassageEmbeddingRepository
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return nil
}
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return nil
}
func (f *fakeUow) PassageEmbeddingRepository() contract.PassageEmbeddingRepository {
	return f.passages
}

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type capturingPublisher struct {
	mu       sync.Mutex
	messages []*dto.ExchangeCompletedMessage
}

func (p *capturingPublisher) PublishExchangeCompleted(ctx context.Context, payload *dto.ExchangeCompletedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, payload)
	return nil
}

// --- Helpers ---

func scoredPassages(scores []float64, texts []string) []*contract.ScoredPassage {
	out := make([]*contract.ScoredPassage, len(scores))
	for i := range scores {
		out[i] = &contract.ScoredPassage{
			Passage:    &entity.PassageEmbedding{Id: uuid.New(), Content: texts[i]},
			Similarity: scores[i],
		}
	}
	return out
}

func testProfile() rag.Profile {
	return rag.Profile{
		ScoreThreshold:     0.3,
		TopK:               5,
		FallbackCount:      2,
		MaxContextChars:    2000,
		MaxHistoryMessages: 6,
		PerMessageChars:    200,
		MaxTokens:          300,
	}
}

// --- Tests ---

func newTestService(t *testing.T, deps ...func(*chatbotService)) (*chatbotService, *fakeSessionService, *capturingPublisher) {
	t.Helper()

	pool := dispatch.NewPool(4)
	t.Cleanup(pool.Close)

	sessions := &fakeSessionService{}
	publisher := &capturingPublisher{}
	repo := &fakePassageRepo{passages: scoredPassages(
		[]float64{0.5, 0.4, 0.1},
		[]string{"نص الولاية الأول", "نص الولاية الثاني", "نص بعيد الصلة"},
	)}

	svc := &chatbotService{
		uowFactory:        &fakeUowFactory{uow: &fakeUow{passages: repo}},
		sessionService:    sessions,
		embeddingProvider: &fakeEmbedder{},
		llmProvider:       &fakeLLM{reply: "الدليل على الولاية هو حديث الغدير"},
		transcriber:       &fakeTranscriber{text: "ما هو الدليل على الولاية؟"},
		synthesizer:       &fakeSynthesizer{audio: []byte("mp3-bytes")},
		pool:              pool,
		publisherService:  publisher,
		logger:            nopLogger{},
		queryLanguage:     "ar",
	}
	for _, d := range deps {
		d(svc)
	}
	return svc, sessions, publisher
}

func TestAnswerEndToEnd(t *testing.T) {
	svc, sessions, publisher := newTestService(t)
	model := svc.llmProvider.(*fakeLLM)

	result, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "ما هو الدليل على الولاية؟",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "الدليل على الولاية هو حديث الغدير", result.Answer)

	// Prompt carries the two qualifying passages, not the weak one.
	_, lastUser := model.promptSeen()
	assert.Contains(t, lastUser, "نص الولاية الأول")
	assert.Contains(t, lastUser, "نص الولاية الثاني")
	assert.NotContains(t, lastUser, "نص بعيد الصلة")
	assert.Contains(t, lastUser, "السؤال: ما هو الدليل على الولاية؟")

	// Both turns recorded in order.
	require.Len(t, sessions.appended, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, sessions.appended[0].Role)
	assert.Equal(t, "ما هو الدليل على الولاية؟", sessions.appended[0].Content)
	assert.Equal(t, constant.ChatMessageRoleAssistant, sessions.appended[1].Role)

	// Exchange event published.
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "abcd1234", publisher.messages[0].SessionId)
}

func TestAnswerCompletionFailureKeepsUserTurn(t *testing.T) {
	svc, sessions, _ := newTestService(t, func(s *chatbotService) {
		s.llmProvider = &fakeLLM{err: errors.New("model timeout")}
	})

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "سؤال",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCompletion))

	// The user turn stays recorded even though the exchange failed.
	require.Len(t, sessions.appended, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, sessions.appended[0].Role)
}

func TestAnswerEmbeddingFailure(t *testing.T) {
	svc, _, _ := newTestService(t, func(s *chatbotService) {
		s.embeddingProvider = &fakeEmbedder{err: errors.New("quota exceeded")}
	})

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "سؤال",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmbedding))
}

func TestAnswerTranscribesVoiceInput(t *testing.T) {
	svc, sessions, _ := newTestService(t)

	result, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Audio:     []byte("ogg-audio"),
		Channel:   ChannelVoice,
		WantAudio: true,
		Profile:   testProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ما هو الدليل على الولاية؟", result.Transcription)
	assert.Equal(t, []byte("mp3-bytes"), result.Audio)

	// The transcribed text, not the raw audio, is the recorded question.
	require.NotEmpty(t, sessions.appended)
	assert.Equal(t, "ما هو الدليل على الولاية؟", sessions.appended[0].Content)
}

func TestAnswerTranscriptionFailure(t *testing.T) {
	svc, sessions, _ := newTestService(t, func(s *chatbotService) {
		s.transcriber = &fakeTranscriber{err: errors.New("bad audio")}
	})

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Audio:     []byte("ogg-audio"),
		Channel:   ChannelVoice,
		Profile:   testProfile(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTranscription))

	// Nothing was appended: the question never materialized.
	assert.Empty(t, sessions.appended)
}

func TestAnswerMissingSession(t *testing.T) {
	svc, _, _ := newTestService(t, func(s *chatbotService) {
		s.sessionService = &fakeSessionService{missing: true}
	})

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "nope",
		Query:     "سؤال",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAnswerEmptyIndexUsesSentinel(t *testing.T) {
	svc, _, _ := newTestService(t, func(s *chatbotService) {
		s.uowFactory = &fakeUowFactory{uow: &fakeUow{passages: &fakePassageRepo{}}}
	})
	model := svc.llmProvider.(*fakeLLM)

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "سؤال غريب",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.NoError(t, err)

	// An empty index is not an error; the sentinel goes into the prompt.
	_, lastUser := model.promptSeen()
	assert.Contains(t, lastUser, constant.NoContextSentinel)
}

func TestAnswerBotChannelUsesFullPrompt(t *testing.T) {
	svc, _, _ := newTestService(t)
	model := svc.llmProvider.(*fakeLLM)

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "سؤال",
		Channel:   ChannelBot,
		Profile:   testProfile(),
	})
	require.NoError(t, err)
	lastSystem, _ := model.promptSeen()
	assert.Equal(t, constant.SystemPromptFullV1, lastSystem)

	_, err = svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "سؤال",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.NoError(t, err)
	lastSystem, _ = model.promptSeen()
	assert.Equal(t, constant.SystemPromptShortV1, lastSystem)
}

func TestAnswerHistoryInPrompt(t *testing.T) {
	svc, sessions, _ := newTestService(t)
	model := svc.llmProvider.(*fakeLLM)

	sessions.history = []history.Entry{
		{Role: "user", Content: "من هو المؤلف؟"},
		{Role: "assistant", Content: "الشيخ محمد اليعقوبي"},
	}

	_, err := svc.Answer(context.Background(), &AnswerRequest{
		UserId:    "u1",
		SessionId: "abcd1234",
		Query:     "وما أشهر كتبه؟",
		Channel:   ChannelAPI,
		Profile:   testProfile(),
	})
	require.NoError(t, err)

	_, lastUser := model.promptSeen()
	assert.Contains(t, lastUser, constant.HistorySummaryHeader)
	assert.Contains(t, lastUser, "من هو المؤلف؟")
	// The current question appears once, as the question, not in the summary.
	assert.Equal(t, 1, strings.Count(lastUser, "وما أشهر كتبه؟"))
}
