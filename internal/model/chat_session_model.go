package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession is one persisted conversation thread. SessionId is the short
// identifier exposed to clients; it is unique per user, not globally, so the
// composite unique index covers (user_id, session_id).
type ChatSession struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string         `gorm:"type:varchar(16);not null;uniqueIndex:idx_user_session"`
	UserId    string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_user_session;index"`
	Title     string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
