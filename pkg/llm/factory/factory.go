package factory

import (
	"fmt"

	"alrah-ai-be/pkg/llm"
	"alrah-ai-be/pkg/llm/ollama"
	"alrah-ai-be/pkg/llm/openai"
)

func NewProvider(providerType, modelName, apiKey, ollamaBaseURL string) (llm.Provider, error) {
	switch providerType {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(apiKey, modelName), nil
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
