package main

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/memory"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/pkg/agent"
	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/technique"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct{}

func (echoProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return "Tell me more.", nil
}

func (echoProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return "Tell me more.", nil
}

func newTestService() service.IDiscoveryService {
	resolver := facilitation.NewResolver(technique.Default(), rand.New(rand.NewSource(3)))
	return service.NewDiscoveryService(memory.NewStore(), memory.NewRunnerRegistry(0),
		agent.NewLLMBuilder(echoProvider{}, resolver), technique.Default(), nil, nil, logger.NewNopLogger())
}

func TestPrintTechniques(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printTechniques(&out, technique.Default()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, technique.Default().Len()+1)
	assert.Contains(t, out.String(), "six_hats")
}

func TestChatLoop_HelpExitsImmediately(t *testing.T) {
	var out bytes.Buffer
	err := chatLoop(context.Background(), newTestService(), strings.NewReader(""), &out, "/help", "")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "/brainstorm")
	assert.NotContains(t, out.String(), "> ")
}

func TestChatLoop_EndClosesSession(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("1\n\n/end\n")

	err := chatLoop(context.Background(), newTestService(), in, &out, "/brainstorm", "a better commute")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "completed after")
}

func TestChatLoop_EOFStops(t *testing.T) {
	var out bytes.Buffer
	err := chatLoop(context.Background(), newTestService(), strings.NewReader("hello\n"), &out, "/analyst", "")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Tell me more.")
}
