package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	Meta          map[string]interface{}
	CreatedAt     time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
