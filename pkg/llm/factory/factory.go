package factory

import (
	"context"
	"fmt"
	"strings"

	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/llm/gemini"
	"ai-discovery-be/pkg/llm/huggingface"
	"ai-discovery-be/pkg/llm/ollama"
)

const (
	ProviderOllama      = "ollama"
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
)

type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
}

func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama, "":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Temperature), nil
	case ProviderGemini:
		return gemini.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case ProviderHuggingFace:
		return huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
