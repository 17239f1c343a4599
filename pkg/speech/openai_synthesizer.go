package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type OpenAISynthesizer struct {
	ApiKey string
	Model  string
	Voice  string
	Client *http.Client
}

var _ Synthesizer = &OpenAISynthesizer{}

func NewOpenAISynthesizer(apiKey, model, voice string) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		ApiKey: apiKey,
		Model:  model,
		Voice:  voice,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type synthesisRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Synthesize returns MP3-encoded speech for text.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		Model: s.Model,
		Voice: s.Voice,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://api.openai.com/v1/audio/speech", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error: status %d, body: %s", res.StatusCode, string(body))
	}

	return body, nil
}
