package controller

import (
	"io"

	"alrah-ai-be/internal/dto"
	"alrah-ai-be/internal/pkg/serverutils"
	"alrah-ai-be/internal/service"
	"alrah-ai-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

// IQueryController exposes the question-answering pipeline over HTTP: text
// and voice input, text and synthesized-audio output.
type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	TextQuery(ctx *fiber.Ctx) error
	TextQueryAudio(ctx *fiber.Ctx) error
	VoiceQuery(ctx *fiber.Ctx) error
	VoiceQueryAudio(ctx *fiber.Ctx) error
	Synthesize(ctx *fiber.Ctx) error
}

type queryController struct {
	chatbotService service.IChatbotService
	sessionService service.ISessionService
	profile        rag.Profile
}

func NewQueryController(
	chatbotService service.IChatbotService,
	sessionService service.ISessionService,
	profile rag.Profile,
) IQueryController {
	return &queryController{
		chatbotService: chatbotService,
		sessionService: sessionService,
		profile:        profile,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("text", c.TextQuery)
	h.Post("text/audio", c.TextQueryAudio)
	h.Post("voice", c.VoiceQuery)
	h.Post("voice/audio", c.VoiceQueryAudio)
	h.Post("tts", c.Synthesize)
}

// resolveSession creates a session when the request carries none, so a bare
// first question works without a prior create call.
func (c *queryController) resolveSession(ctx *fiber.Ctx, userId, sessionId string) (string, error) {
	if sessionId != "" {
		return sessionId, nil
	}
	created, err := c.sessionService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return "", err
	}
	return created.SessionId, nil
}

func (c *queryController) answerText(ctx *fiber.Ctx, wantAudio bool) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.TextQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query is required")
	}

	sessionId, err := c.resolveSession(ctx, userId, req.SessionId)
	if err != nil {
		return err
	}

	result, err := c.chatbotService.Answer(ctx.Context(), &service.AnswerRequest{
		UserId:    userId,
		SessionId: sessionId,
		Query:     req.Query,
		Channel:   service.ChannelAPI,
		WantAudio: wantAudio,
		Profile:   c.profile,
	})
	if err != nil {
		return err
	}

	if wantAudio {
		ctx.Set(fiber.HeaderContentType, "audio/mpeg")
		return ctx.Send(result.Audio)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer query", dto.QueryResponse{
		SessionId: sessionId,
		Answer:    result.Answer,
	}))
}

func (c *queryController) TextQuery(ctx *fiber.Ctx) error {
	return c.answerText(ctx, false)
}

func (c *queryController) TextQueryAudio(ctx *fiber.Ctx) error {
	return c.answerText(ctx, true)
}

func (c *queryController) answerVoice(ctx *fiber.Ctx, wantAudio bool) error {
	userId := ctx.Locals("user_id").(string)

	fileHeader, err := ctx.FormFile("audio")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "audio file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read audio file")
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not read audio file")
	}

	sessionId, err := c.resolveSession(ctx, userId, ctx.FormValue("session_id"))
	if err != nil {
		return err
	}

	result, err := c.chatbotService.Answer(ctx.Context(), &service.AnswerRequest{
		UserId:    userId,
		SessionId: sessionId,
		Audio:     audio,
		Channel:   service.ChannelAPI,
		WantAudio: wantAudio,
		Profile:   c.profile,
	})
	if err != nil {
		return err
	}

	if wantAudio {
		ctx.Set(fiber.HeaderContentType, "audio/mpeg")
		return ctx.Send(result.Audio)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer voice query", dto.QueryResponse{
		SessionId:     sessionId,
		Answer:        result.Answer,
		Transcription: result.Transcription,
	}))
}

func (c *queryController) VoiceQuery(ctx *fiber.Ctx) error {
	return c.answerVoice(ctx, false)
}

func (c *queryController) VoiceQueryAudio(ctx *fiber.Ctx) error {
	return c.answerVoice(ctx, true)
}

func (c *queryController) Synthesize(ctx *fiber.Ctx) error {
	var req dto.SynthesizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	audio, err := c.chatbotService.Synthesize(ctx.Context(), req.Text)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "audio/mpeg")
	return ctx.Send(audio)
}
