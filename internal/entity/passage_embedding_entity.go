package entity

import (
	"time"

	"github.com/google/uuid"
)

type PassageEmbedding struct {
	Id        uuid.UUID
	Source    string
	Content   string
	CreatedAt time.Time
}
