package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/constant"
	"alrah-ai-be/internal/pkg/logger"
	"alrah-ai-be/internal/repository/memory"
	"alrah-ai-be/internal/service"
	"alrah-ai-be/pkg/rag"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const answerTimeout = 120 * time.Second

// Bot is the Telegram front end. Each chat maps to one user; the active
// session registry decides which stored session a message lands in.
type Bot struct {
	api            *tgbotapi.BotAPI
	chatbotService service.IChatbotService
	sessionService service.ISessionService
	registry       *memory.ActiveSessionRegistry
	profile        rag.Profile
	logger         logger.ILogger
	httpClient     *http.Client
}

func New(
	token string,
	chatbotService service.IChatbotService,
	sessionService service.ISessionService,
	registry *memory.ActiveSessionRegistry,
	profile rag.Profile,
	log logger.ILogger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Bot{
		api:            api,
		chatbotService: chatbotService,
		sessionService: sessionService,
		registry:       registry,
		profile:        profile,
		logger:         log,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bot", "Telegram bot started", map[string]interface{}{"username": b.api.Self.UserName})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	userId := strconv.FormatInt(msg.Chat.ID, 10)

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg, userId)
	case msg.Voice != nil:
		b.handleVoice(ctx, msg, userId)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, msg, userId)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userId string) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, constant.WelcomeUtteranceAr)

	case "new":
		created, err := b.sessionService.CreateSession(ctx, userId)
		if err != nil {
			b.logger.Error("Bot", "Failed to create session", map[string]interface{}{"error": err.Error()})
			b.reply(msg.Chat.ID, constant.ErrGenericQueryAr)
			return
		}
		b.registry.Set(userId, created.SessionId)
		b.reply(msg.Chat.ID, "تم إنشاء محادثة جديدة: "+created.SessionId)

	case "sessions":
		sessions, err := b.sessionService.ListSessions(ctx, userId)
		if err != nil {
			b.logger.Error("Bot", "Failed to list sessions", map[string]interface{}{"error": err.Error()})
			b.reply(msg.Chat.ID, constant.ErrGenericQueryAr)
			return
		}
		if len(sessions) == 0 {
			b.reply(msg.Chat.ID, "لا توجد محادثات محفوظة")
			return
		}
		var sb strings.Builder
		sb.WriteString("المحادثات المحفوظة:\n")
		for _, s := range sessions {
			title := s.Title
			if title == "" {
				title = "بدون عنوان"
			}
			sb.WriteString(fmt.Sprintf("- %s: %s (%d)\n", s.SessionId, title, s.MessageCount))
		}
		b.reply(msg.Chat.ID, sb.String())

	case "delete":
		sessionId, ok := b.registry.Get(userId)
		if !ok {
			b.reply(msg.Chat.ID, "لا توجد محادثة نشطة")
			return
		}
		if _, err := b.sessionService.DeleteSession(ctx, userId, sessionId); err != nil {
			b.logger.Error("Bot", "Failed to delete session", map[string]interface{}{"error": err.Error()})
			b.reply(msg.Chat.ID, constant.ErrGenericQueryAr)
			return
		}
		b.registry.Clear(userId)
		b.reply(msg.Chat.ID, "تم حذف المحادثة")

	default:
		b.reply(msg.Chat.ID, "أمر غير معروف")
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, userId string) {
	release := b.showIndicator(msg.Chat.ID)
	defer release()

	sessionId, err := b.resolveSession(ctx, userId)
	if err != nil {
		b.logger.Error("Bot", "Session resolution failed", map[string]interface{}{"error": err.Error()})
		b.reply(msg.Chat.ID, constant.ErrGenericQueryAr)
		return
	}

	result, err := b.chatbotService.Answer(ctx, &service.AnswerRequest{
		UserId:    userId,
		SessionId: sessionId,
		Query:     msg.Text,
		Channel:   service.ChannelBot,
		Profile:   b.profile,
	})
	if err != nil {
		b.logger.Error("Bot", "Text query failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		b.reply(msg.Chat.ID, constant.ErrGenericQueryAr)
		return
	}

	b.reply(msg.Chat.ID, result.Answer)
}

func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message, userId string) {
	release := b.showIndicator(msg.Chat.ID)
	defer release()

	audio, err := b.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		b.logger.Error("Bot", "Voice download failed", map[string]interface{}{"error": err.Error()})
		b.reply(msg.Chat.ID, constant.ErrGenericVoiceAr)
		return
	}

	sessionId, err := b.resolveSession(ctx, userId)
	if err != nil {
		b.logger.Error("Bot", "Session resolution failed", map[string]interface{}{"error": err.Error()})
		b.reply(msg.Chat.ID, constant.ErrGenericVoiceAr)
		return
	}

	result, err := b.chatbotService.Answer(ctx, &service.AnswerRequest{
		UserId:    userId,
		SessionId: sessionId,
		Audio:     audio,
		Channel:   service.ChannelBot,
		WantAudio: true,
		Profile:   b.profile,
	})
	if err != nil {
		b.logger.Error("Bot", "Voice query failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		message := constant.ErrGenericVoiceAr
		if errors.Is(err, apperrors.ErrSynthesis) {
			message = constant.ErrGenericTTSAr
		}
		b.reply(msg.Chat.ID, message)
		return
	}

	b.reply(msg.Chat.ID, "سؤالك: "+result.Transcription)
	b.reply(msg.Chat.ID, result.Answer)

	if len(result.Audio) > 0 {
		voice := tgbotapi.NewAudio(msg.Chat.ID, tgbotapi.FileBytes{
			Name:  "answer.mp3",
			Bytes: result.Audio,
		})
		if _, err := b.api.Send(voice); err != nil {
			b.logger.Warn("Bot", "Failed to send answer audio", map[string]interface{}{"error": err.Error()})
		}
	}
}

// showIndicator posts the analyzing notice and returns a release that deletes
// it. Callers defer the release so the indicator disappears on every path,
// success or failure.
func (b *Bot) showIndicator(chatID int64) func() {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, constant.ProcessingIndicatorAr))
	if err != nil {
		return func() {}
	}
	return func() {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, sent.MessageID)); err != nil {
			b.logger.Warn("Bot", "Failed to remove indicator", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (b *Bot) resolveSession(ctx context.Context, userId string) (string, error) {
	if sessionId, ok := b.registry.Get(userId); ok {
		exists, err := b.sessionService.SessionExists(ctx, userId, sessionId)
		if err != nil {
			return "", err
		}
		if exists {
			return sessionId, nil
		}
		b.registry.Clear(userId)
	}

	created, err := b.sessionService.CreateSession(ctx, userId)
	if err != nil {
		return "", err
	}
	b.registry.Set(userId, created.SessionId)
	return created.SessionId, nil
}

func (b *Bot) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve voice file: %w", err)
	}

	url := file.Link(b.api.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice download returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Bot", "Failed to send message", map[string]interface{}{"error": err.Error()})
	}
}
