package unitofwork

import (
	"context"

	"alrah-ai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	PassageEmbeddingRepository() contract.PassageEmbeddingRepository
}
