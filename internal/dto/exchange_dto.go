package dto

import "time"

// ExchangeCompletedMessage is the payload published after every answered
// exchange. Consumers use it for session titling and usage accounting.
type ExchangeCompletedMessage struct {
	UserId     string    `json:"user_id"`
	SessionId  string    `json:"session_id"`
	Channel    string    `json:"channel"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}
