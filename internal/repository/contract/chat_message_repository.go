package contract

import (
	"context"

	"alrah-ai-be/internal/entity"
	"alrah-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	// CountBySessionIds returns message counts keyed by session row id, for
	// session listings.
	CountBySessionIds(ctx context.Context, sessionIds []uuid.UUID) (map[uuid.UUID]int64, error)
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
}
