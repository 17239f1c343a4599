package service

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"alrah-ai-be/internal/apperrors"
	"alrah-ai-be/internal/dto"
	"alrah-ai-be/internal/entity"
	"alrah-ai-be/internal/repository/specification"
	"alrah-ai-be/internal/repository/unitofwork"
	"alrah-ai-be/pkg/rag/history"

	"github.com/google/uuid"
)

// ISessionService owns the chat session lifecycle: sessions are keyed by a
// short per-user id, messages are append-only.
type ISessionService interface {
	CreateSession(ctx context.Context, userId string) (*dto.CreateSessionResponse, error)
	AppendMessage(ctx context.Context, userId, sessionId, role, content string, meta map[string]interface{}) error
	GetHistory(ctx context.Context, userId, sessionId string) ([]history.Entry, error)
	GetHistoryDetailed(ctx context.Context, userId, sessionId string) ([]*dto.GetChatHistoryResponse, error)
	ListSessions(ctx context.Context, userId string) ([]*dto.GetAllSessionsResponse, error)
	DeleteSession(ctx context.Context, userId, sessionId string) (bool, error)
	SessionExists(ctx context.Context, userId, sessionId string) (bool, error)
	SetTitle(ctx context.Context, userId, sessionId, title string) error
}

// appendStripes bounds the lock table; one session always hashes to the same
// stripe, so its appends stay serialized without a per-session mutex map
// growing for the lifetime of the process.
const appendStripes = 64

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory

	// Serializes appends per (user, session) so interleaved writers cannot
	// reorder a request/reply pair.
	appendLocks [appendStripes]sync.Mutex
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
	}
}

func (ss *sessionService) lockFor(userId, sessionId string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userId))
	h.Write([]byte{'/'})
	h.Write([]byte(sessionId))
	return &ss.appendLocks[h.Sum32()%appendStripes]
}

// newSessionId derives a short id from a uuid. Uniqueness is per user and
// enforced by the composite index; collisions are retried by the caller.
func newSessionId() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func (ss *sessionService) CreateSession(ctx context.Context, userId string) (*dto.CreateSessionResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	var sessionId string
	for attempt := 0; attempt < 3; attempt++ {
		candidate := newSessionId()
		existing, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.BySessionKey{UserID: userId, SessionID: candidate},
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, err)
		}
		if existing == nil {
			sessionId = candidate
			break
		}
	}
	if sessionId == "" {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "could not allocate session id for user %s", userId)
	}

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		SessionId: sessionId,
		UserId:    userId,
		Title:     "",
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	return &dto.CreateSessionResponse{SessionId: sessionId}, nil
}

func (ss *sessionService) findSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId string) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.BySessionKey{UserID: userId, SessionID: sessionId},
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return sess, nil
}

func (ss *sessionService) AppendMessage(ctx context.Context, userId, sessionId, role, content string, meta map[string]interface{}) error {
	mu := ss.lockFor(userId, sessionId)
	mu.Lock()
	defer mu.Unlock()

	uow := ss.uowFactory.NewUnitOfWork(ctx)

	sess, err := ss.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}
	if sess == nil {
		return apperrors.Wrapf(apperrors.ErrNotFound, "session %s not found for user %s", sessionId, userId)
	}

	msg := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sess.Id,
		Role:          role,
		Content:       content,
		Meta:          meta,
		CreatedAt:     time.Now(),
	}

	if err := uow.ChatMessageRepository().Create(ctx, &msg); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// GetHistory returns the ordered conversation for the summarizer and prompt
// builders. A missing session yields an empty history, not an error.
func (ss *sessionService) GetHistory(ctx context.Context, userId, sessionId string) ([]history.Entry, error) {
	messages, err := ss.loadMessages(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	entries := make([]history.Entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, history.Entry{Role: m.Role, Content: m.Content})
	}
	return entries, nil
}

func (ss *sessionService) GetHistoryDetailed(ctx context.Context, userId, sessionId string) ([]*dto.GetChatHistoryResponse, error) {
	messages, err := ss.loadMessages(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Role:      m.Role,
			Content:   m.Content,
			Meta:      m.Meta,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp, nil
}

func (ss *sessionService) loadMessages(ctx context.Context, userId, sessionId string) ([]*entity.ChatMessage, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	sess, err := ss.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return []*entity.ChatMessage{}, nil
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sess.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return messages, nil
}

func (ss *sessionService) ListSessions(ctx context.Context, userId string) ([]*dto.GetAllSessionsResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.Id)
	}

	counts, err := uow.ChatMessageRepository().CountBySessionIds(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	resp := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, &dto.GetAllSessionsResponse{
			SessionId:    s.SessionId,
			Title:        s.Title,
			MessageCount: counts[s.Id],
			CreatedAt:    s.CreatedAt,
		})
	}
	return resp, nil
}

// DeleteSession removes the session and its messages. Deleting a session that
// does not exist reports false without error.
func (ss *sessionService) DeleteSession(ctx context.Context, userId, sessionId string) (bool, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	sess, err := ss.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sess.Id); err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sess.Id); err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	if err := uow.Commit(); err != nil {
		return false, apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return true, nil
}

func (ss *sessionService) SessionExists(ctx context.Context, userId, sessionId string) (bool, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)
	sess, err := ss.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

func (ss *sessionService) SetTitle(ctx context.Context, userId, sessionId, title string) error {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	sess, err := ss.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}
	if sess == nil {
		return apperrors.Wrapf(apperrors.ErrNotFound, "session %s not found for user %s", sessionId, userId)
	}

	sess.Title = title
	if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}
