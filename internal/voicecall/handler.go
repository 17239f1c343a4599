package voicecall

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/constant"
	"alrah-ai-be/internal/pkg/logger"
	"alrah-ai-be/internal/repository/memory"
	"alrah-ai-be/internal/service"
	"alrah-ai-be/pkg/rag"

	"github.com/gofiber/websocket/v2"
)

const utteranceTimeout = 120 * time.Second

// Handler owns the voice-call conversation flow: each inbound utterance runs
// the answer pipeline with the voice profile and streams transcripts plus
// synthesized audio back to the caller.
type Handler struct {
	hub            *Hub
	chatbotService service.IChatbotService
	sessionService service.ISessionService
	registry       *memory.ActiveSessionRegistry
	profile        rag.Profile
	logger         logger.ILogger
}

func NewHandler(
	hub *Hub,
	chatbotService service.IChatbotService,
	sessionService service.ISessionService,
	registry *memory.ActiveSessionRegistry,
	profile rag.Profile,
	log logger.ILogger,
) *Handler {
	return &Handler{
		hub:            hub,
		chatbotService: chatbotService,
		sessionService: sessionService,
		registry:       registry,
		profile:        profile,
		logger:         log,
	}
}

// ServeWs attaches one websocket connection to the hub and greets the caller.
// Runs read in the calling goroutine, matching the fiber websocket contract.
func (h *Handler) ServeWs(c *websocket.Conn, userID string) {
	client := &Client{
		Hub:       h.hub,
		Conn:      c,
		UserID:    userID,
		Send:      make(chan []byte, 64),
		SendAudio: make(chan []byte, 8),
	}
	client.onUtterance = func(audio []byte) {
		h.handleUtterance(client, audio)
	}
	client.Hub.register <- client

	go client.writePump()
	h.greet(client)
	client.readPump()
}

// greet sends the welcome transcript plus, best effort, its synthesized audio.
func (h *Handler) greet(client *Client) {
	h.sendJSON(client, map[string]interface{}{
		"type": "transcript",
		"role": constant.ChatMessageRoleAssistant,
		"text": constant.WelcomeUtteranceAr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), utteranceTimeout)
	defer cancel()

	audio, err := h.chatbotService.Synthesize(ctx, constant.WelcomeUtteranceAr)
	if err != nil {
		h.logger.Warn("VoiceCall", "Welcome synthesis failed", map[string]interface{}{"error": err.Error()})
		return
	}
	h.sendAudio(client, audio)
}

func (h *Handler) handleUtterance(client *Client, audio []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), utteranceTimeout)
	defer cancel()

	sessionId, err := h.resolveSession(ctx, client.UserID)
	if err != nil {
		h.logger.Error("VoiceCall", "Session resolution failed", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		h.sendError(client, constant.ErrGenericVoiceAr)
		return
	}

	h.sendJSON(client, map[string]interface{}{
		"type": "processing",
		"text": constant.ProcessingIndicatorAr,
	})

	result, err := h.chatbotService.Answer(ctx, &service.AnswerRequest{
		UserId:    client.UserID,
		SessionId: sessionId,
		Audio:     audio,
		Channel:   service.ChannelVoice,
		WantAudio: true,
		Profile:   h.profile,
	})
	if err != nil {
		h.logger.Error("VoiceCall", "Utterance pipeline failed", map[string]interface{}{
			"user_id":    client.UserID,
			"session_id": sessionId,
			"error":      err.Error(),
		})
		message := constant.ErrGenericVoiceAr
		if errors.Is(err, apperrors.ErrSynthesis) {
			message = constant.ErrGenericTTSAr
		}
		h.sendError(client, message)
		return
	}

	h.sendJSON(client, map[string]interface{}{
		"type": "transcript",
		"role": constant.ChatMessageRoleUser,
		"text": result.Transcription,
	})
	h.sendJSON(client, map[string]interface{}{
		"type": "transcript",
		"role": constant.ChatMessageRoleAssistant,
		"text": result.Answer,
	})
	h.sendAudio(client, result.Audio)
}

// resolveSession reuses the caller's active session or opens a new one. The
// registry is volatile; after expiry or restart the next utterance simply
// starts a fresh session.
func (h *Handler) resolveSession(ctx context.Context, userID string) (string, error) {
	if sessionId, ok := h.registry.Get(userID); ok {
		exists, err := h.sessionService.SessionExists(ctx, userID, sessionId)
		if err != nil {
			return "", err
		}
		if exists {
			return sessionId, nil
		}
		h.registry.Clear(userID)
	}

	created, err := h.sessionService.CreateSession(ctx, userID)
	if err != nil {
		return "", err
	}
	h.registry.Set(userID, created.SessionId)
	return created.SessionId, nil
}

func (h *Handler) sendJSON(client *Client, frame map[string]interface{}) {
	data, _ := json.Marshal(frame)
	select {
	case client.Send <- data:
	default:
	}
}

func (h *Handler) sendAudio(client *Client, audio []byte) {
	if len(audio) == 0 {
		return
	}
	select {
	case client.SendAudio <- audio:
	default:
	}
}

func (h *Handler) sendError(client *Client, message string) {
	h.sendJSON(client, map[string]interface{}{
		"type": "error",
		"text": message,
	})
}
