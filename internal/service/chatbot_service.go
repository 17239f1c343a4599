package service

import (
	"context"
	"time"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/constant"
	"alrah-ai-be/internal/dto"
	"alrah-ai-be/internal/repository/contract"
	"alrah-ai-be/internal/repository/unitofwork"
	"alrah-ai-be/pkg/dispatch"
	"alrah-ai-be/pkg/embedding"
	"alrah-ai-be/pkg/llm"
	"alrah-ai-be/pkg/rag"
	"alrah-ai-be/pkg/rag/contextbuilder"
	"alrah-ai-be/pkg/rag/history"
	"alrah-ai-be/pkg/rag/prompt"
	"alrah-ai-be/pkg/speech"

	appLogger "alrah-ai-be/internal/pkg/logger"
)

const (
	ChannelAPI   = "api"
	ChannelBot   = "bot"
	ChannelVoice = "voice"
)

// AnswerRequest is one question heading into the pipeline. Exactly one of
// Query and Audio is set; Audio is transcribed first.
type AnswerRequest struct {
	UserId    string
	SessionId string
	Query     string
	Audio     []byte
	Channel   string
	WantAudio bool
	Profile   rag.Profile
}

type AnswerResult struct {
	Answer        string
	Transcription string
	Audio         []byte
}

// IChatbotService runs the full retrieval-augmented answer pipeline.
type IChatbotService interface {
	Answer(ctx context.Context, req *AnswerRequest) (*AnswerResult, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type chatbotService struct {
	uowFactory        unitofwork.RepositoryFactory
	sessionService    ISessionService
	embeddingProvider embedding.Provider
	llmProvider       llm.Provider
	transcriber       speech.Transcriber
	synthesizer       speech.Synthesizer
	pool              *dispatch.Pool
	publisherService  IPublisherService
	logger            appLogger.ILogger
	queryLanguage     string
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	sessionService ISessionService,
	embeddingProvider embedding.Provider,
	llmProvider llm.Provider,
	transcriber speech.Transcriber,
	synthesizer speech.Synthesizer,
	pool *dispatch.Pool,
	publisherService IPublisherService,
	logger appLogger.ILogger,
	queryLanguage string,
) IChatbotService {
	return &chatbotService{
		uowFactory:        uowFactory,
		sessionService:    sessionService,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		transcriber:       transcriber,
		synthesizer:       synthesizer,
		pool:              pool,
		publisherService:  publisherService,
		logger:            logger,
		queryLanguage:     queryLanguage,
	}
}

// Answer runs one exchange: transcribe if needed, record the question, embed
// and load history in parallel, retrieve, build the prompt, complete, record
// the answer, optionally synthesize speech. The user turn is written before
// any provider call can fail and is never rolled back; a failed exchange
// stays visible in the history.
func (cs *chatbotService) Answer(ctx context.Context, req *AnswerRequest) (*AnswerResult, error) {
	query := req.Query
	transcription := ""

	if len(req.Audio) > 0 {
		text, err := cs.pool.Run(ctx, func(ctx context.Context) (interface{}, error) {
			return cs.transcriber.Transcribe(ctx, req.Audio, cs.queryLanguage)
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrTranscription, err)
		}
		transcription = text.(string)
		query = transcription
	}

	meta := map[string]interface{}{"channel": req.Channel}
	if transcription != "" {
		meta["transcribed"] = true
	}
	if err := cs.sessionService.AppendMessage(ctx, req.UserId, req.SessionId,
		constant.ChatMessageRoleUser, query, meta); err != nil {
		return nil, err
	}

	// Embedding and history read have no data dependency; overlap them.
	embedTask := cs.pool.Submit(ctx, func(ctx context.Context) (interface{}, error) {
		return cs.embeddingProvider.Generate(ctx, query)
	})
	entries, err := cs.sessionService.GetHistory(ctx, req.UserId, req.SessionId)
	if err != nil {
		return nil, err
	}

	vecValue, err := embedTask.Wait(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrEmbedding, err)
	}
	queryVector := vecValue.([]float32)

	matches, err := cs.searchPassages(ctx, queryVector, req.Profile.TopK)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRetrieval, err)
	}

	contextBlock := contextbuilder.Build(matches,
		req.Profile.ScoreThreshold,
		req.Profile.MaxContextChars,
		req.Profile.FallbackCount,
		constant.NoContextSentinel,
	)

	summary := history.Summarize(entries,
		req.Profile.MaxHistoryMessages,
		req.Profile.PerMessageChars,
		constant.HistorySummaryHeader,
	)

	userPrompt := prompt.NewBuilder(contextBlock, summary, query).Build()
	systemPrompt := constant.SystemPromptShortV1
	if req.Channel == ChannelBot {
		systemPrompt = constant.SystemPromptFullV1
	}

	answerValue, err := cs.pool.Run(ctx, func(ctx context.Context) (interface{}, error) {
		return cs.llmProvider.Complete(ctx, systemPrompt, userPrompt,
			llm.WithMaxTokens(req.Profile.MaxTokens))
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCompletion, err)
	}
	answer := answerValue.(string)

	if err := cs.sessionService.AppendMessage(ctx, req.UserId, req.SessionId,
		constant.ChatMessageRoleAssistant, answer, map[string]interface{}{"channel": req.Channel}); err != nil {
		return nil, err
	}

	cs.publishExchange(ctx, req, query, answer)

	result := &AnswerResult{
		Answer:        answer,
		Transcription: transcription,
	}

	if req.WantAudio {
		audioValue, err := cs.pool.Run(ctx, func(ctx context.Context) (interface{}, error) {
			return cs.synthesizer.Synthesize(ctx, answer)
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrSynthesis, err)
		}
		result.Audio = audioValue.([]byte)
	}

	return result, nil
}

func (cs *chatbotService) searchPassages(ctx context.Context, queryVector []float32, topK int) ([]rag.Match, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	value, err := cs.pool.Run(ctx, func(ctx context.Context) (interface{}, error) {
		return uow.PassageEmbeddingRepository().SearchSimilarWithScore(ctx, queryVector, topK)
	})
	if err != nil {
		return nil, err
	}

	scored := value.([]*contract.ScoredPassage)
	matches := make([]rag.Match, 0, len(scored))
	for _, s := range scored {
		matches = append(matches, rag.Match{
			Score: s.Similarity,
			Text:  s.Passage.Content,
		})
	}
	return matches, nil
}

func (cs *chatbotService) publishExchange(ctx context.Context, req *AnswerRequest, question, answer string) {
	payload := &dto.ExchangeCompletedMessage{
		UserId:     req.UserId,
		SessionId:  req.SessionId,
		Channel:    req.Channel,
		Question:   question,
		Answer:     answer,
		AnsweredAt: time.Now(),
	}
	if err := cs.publisherService.PublishExchangeCompleted(ctx, payload); err != nil {
		cs.logger.Warn("chatbot", "failed to publish exchange event", map[string]interface{}{
			"error":      err.Error(),
			"session_id": req.SessionId,
		})
	}
}

func (cs *chatbotService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	value, err := cs.pool.Run(ctx, func(ctx context.Context) (interface{}, error) {
		return cs.synthesizer.Synthesize(ctx, text)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSynthesis, err)
	}
	return value.([]byte), nil
}
