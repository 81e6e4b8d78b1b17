package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/pkg/serverutils"
	"ai-discovery-be/internal/repository/memory"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/pkg/agent"
	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/technique"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubProvider struct {
	err error
}

func (p *stubProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "Noted.", nil
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app      *fiber.App
	provider *stubProvider
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	provider := &stubProvider{}
	resolver := facilitation.NewResolver(technique.Default(), rand.New(rand.NewSource(7)))
	svc := service.NewDiscoveryService(memory.NewStore(), memory.NewRunnerRegistry(0),
		agent.NewLLMBuilder(provider, resolver), technique.Default(), nil, nil, logger.NewNopLogger())

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(MapDomainError, nil))
	api := app.Group("/api")
	NewHealthController("memory", nil).RegisterRoutes(api)
	NewDiscoveryController(svc, testSecret).RegisterRoutes(api)

	token, err := serverutils.SignToken(testSecret, uuid.New())
	require.NoError(t, err)

	return &testServer{app: app, provider: provider, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) start(t *testing.T, command, args string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/discovery/v1/sessions/start", map[string]string{
		"command": command,
		"args":    args,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var data struct {
		SessionId string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.SessionId)
	return data.SessionId
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	status, env := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestDiscovery_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	status, env := s.do(t, http.MethodGet, "/api/discovery/v1/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestDiscovery_SessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.start(t, "/brainstorm", "a pricing page for freelancers")
	base := "/api/discovery/v1/sessions/" + id

	status, env := s.do(t, http.MethodPost, base+"/messages", map[string]string{"message": "1"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var turn struct {
		Response  string   `json:"response"`
		Phase     string   `json:"phase"`
		NextSteps []string `json:"next_steps"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &turn))
	assert.NotEmpty(t, turn.Response)
	assert.NotEmpty(t, turn.NextSteps)

	status, env = s.do(t, http.MethodGet, base+"/messages", nil)
	require.Equal(t, http.StatusOK, status)
	var transcript []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &transcript))
	assert.Len(t, transcript, 4)

	status, _ = s.do(t, http.MethodGet, "/api/discovery/v1/sessions", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, base+"/end", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodPost, base+"/messages", map[string]string{"message": "more"})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	status, _ = s.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDiscovery_BadRequests(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/discovery/v1/sessions/start", map[string]string{"command": "dance"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/discovery/v1/sessions/start", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/discovery/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	id := s.start(t, "/pm", "")
	status, _ = s.do(t, http.MethodPut, "/api/discovery/v1/sessions/"+id+"/phase", map[string]string{"phase": "dreaming"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDiscovery_HelpCreatesNoSession(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/discovery/v1/sessions/start", map[string]string{"command": "/help"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "/brainstorm")

	status, env = s.do(t, http.MethodGet, "/api/discovery/v1/sessions", nil)
	require.Equal(t, http.StatusOK, status)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	assert.Empty(t, sessions)
}

func TestDiscovery_UpstreamFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.provider.err = errors.New("connection refused")

	status, env := s.do(t, http.MethodPost, "/api/discovery/v1/sessions/start", map[string]string{"command": "/analyst"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, env.Message, "try again")
}

func TestDiscovery_Techniques(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/discovery/v1/techniques", nil)
	require.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 20)
}
