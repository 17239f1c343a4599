package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserOwnedBy scopes queries to one user's rows.
type UserOwnedBy struct {
	UserID string
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// BySessionKey selects a session by its per-user short identifier.
type BySessionKey struct {
	UserID    string
	SessionID string
}

func (s BySessionKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ? AND session_id = ?", s.UserID, s.SessionID)
}

// ByChatSessionID filters messages belonging to one session row.
type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}
