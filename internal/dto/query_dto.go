package dto

type TextQueryRequest struct {
	// SessionId may be empty; the query endpoints create a session on the fly.
	SessionId string `json:"session_id"`
	Query     string `json:"query" validate:"required"`
}

type QueryResponse struct {
	SessionId     string `json:"session_id"`
	Answer        string `json:"answer"`
	Transcription string `json:"transcription,omitempty"`
}

type SynthesizeRequest struct {
	Text string `json:"text" validate:"required"`
}
