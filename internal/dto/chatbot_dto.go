package dto

import "time"

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type GetAllSessionsResponse struct {
	SessionId    string    `json:"session_id"`
	Title        string    `json:"title"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type GetChatHistoryResponse struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type DeleteSessionResponse struct {
	SessionId string `json:"session_id"`
	Deleted   bool   `json:"deleted"`
}
