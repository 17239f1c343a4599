package rag

// Match is one passage returned by the vector index, ordered by descending
// similarity as the index returned it. Transient, never persisted.
type Match struct {
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// Profile bundles the retrieval and budgeting knobs for one front end. The
// three transports legitimately differ (a voice answer has a far smaller
// prompt budget than a bot reply), so the orchestrator receives a Profile per
// request instead of reading global constants.
type Profile struct {
	ScoreThreshold     float64
	TopK               int
	FallbackCount      int
	MaxContextChars    int
	MaxHistoryMessages int
	PerMessageChars    int
	MaxTokens          int
}
