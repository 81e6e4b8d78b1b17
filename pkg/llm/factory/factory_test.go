package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-discovery-be/pkg/llm/huggingface"
	"ai-discovery-be/pkg/llm/ollama"
)

func TestNewLLMProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewLLMProvider(ctx, Config{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)

	p, err = NewLLMProvider(ctx, Config{Provider: "HuggingFace", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &huggingface.HuggingFaceProvider{}, p)

	_, err = NewLLMProvider(ctx, Config{Provider: "gemini"})
	assert.Error(t, err, "gemini needs an API key")

	_, err = NewLLMProvider(ctx, Config{Provider: "bard"})
	assert.Error(t, err)
}
