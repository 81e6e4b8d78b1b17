package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/memory"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/pkg/agent"
	"ai-discovery-be/pkg/events"
	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/technique"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error

	// one-shot: the next Chat signals entered and blocks until gate closes
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeProvider) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.gate, f.entered = nil, nil
	reply, err := f.reply, f.err
	f.mu.Unlock()

	if gate != nil {
		close(entered)
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// hold makes the next Chat call block. entered closes once the call is in
// flight; release lets it finish.
func (f *fakeProvider) hold() (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	f.entered = make(chan struct{})
	return f.entered, func() { close(gate) }
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (f *fakeProvider) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// countingRunner counts Ask calls and keeps the wrapped runner observable.
type countingRunner struct {
	inner agent.Runner
	asks  int32
}

func (r *countingRunner) Ask(ctx context.Context, message string) (string, error) {
	atomic.AddInt32(&r.asks, 1)
	return r.inner.Ask(ctx, message)
}

func (r *countingRunner) Snapshot() agent.Snapshot {
	return r.inner.(agent.Observer).Snapshot()
}

type countingBuilder struct {
	inner   agent.Builder
	mu      sync.Mutex
	builds  int
	runners []*countingRunner
}

func (b *countingBuilder) Build(ctx context.Context, spec agent.Spec) (*agent.Handle, error) {
	h, err := b.inner.Build(ctx, spec)
	if err != nil {
		return nil, err
	}
	runner := &countingRunner{inner: h.Runner}
	h.Runner = runner

	b.mu.Lock()
	defer b.mu.Unlock()
	b.builds++
	b.runners = append(b.runners, runner)
	return h, nil
}

func (b *countingBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

func (b *countingBuilder) totalAsks() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int32
	for _, r := range b.runners {
		n += atomic.LoadInt32(&r.asks)
	}
	return n
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, event.EventType())
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type fixture struct {
	store     *memory.Store
	registry  *memory.RunnerRegistry
	provider  *fakeProvider
	builder   *countingBuilder
	publisher *recordingPublisher
	svc       IDiscoveryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, memory.NewStore())
}

// newFixtureOn builds a service over an existing store, as after a restart.
func newFixtureOn(t *testing.T, store *memory.Store) *fixture {
	t.Helper()
	provider := &fakeProvider{reply: "Sounds good."}
	resolver := facilitation.NewResolver(technique.Default(), rand.New(rand.NewSource(1)))
	builder := &countingBuilder{inner: agent.NewLLMBuilder(provider, resolver)}
	registry := memory.NewRunnerRegistry(0)
	publisher := &recordingPublisher{}

	return &fixture{
		store:     store,
		registry:  registry,
		provider:  provider,
		builder:   builder,
		publisher: publisher,
		svc: NewDiscoveryService(store, registry, builder, technique.Default(),
			publisher, nil, logger.NewNopLogger()),
	}
}

func (f *fixture) start(t *testing.T, userID uuid.UUID, command, args string) uuid.UUID {
	t.Helper()
	res, err := f.svc.StartSession(context.Background(), userID, &dto.StartSessionRequest{Command: command, Args: args})
	require.NoError(t, err)
	require.NotNil(t, res.SessionId)
	return *res.SessionId
}

func (f *fixture) send(t *testing.T, userID, sessionID uuid.UUID, message string) *dto.ContinueSessionResponse {
	t.Helper()
	res, err := f.svc.ContinueSession(context.Background(), userID, sessionID, &dto.ContinueSessionRequest{Message: message})
	require.NoError(t, err)
	return res
}

// sendHeld starts a ContinueSession whose model call is parked. It returns once
// the call is in flight; finish releases it and returns the outcome.
func (f *fixture) sendHeld(t *testing.T, userID, sessionID uuid.UUID, message string) (finish func() (*dto.ContinueSessionResponse, error)) {
	t.Helper()
	entered, release := f.provider.hold()

	type result struct {
		res *dto.ContinueSessionResponse
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := f.svc.ContinueSession(context.Background(), userID, sessionID, &dto.ContinueSessionRequest{Message: message})
		done <- result{res, err}
	}()

	select {
	case <-entered:
	case r := <-done:
		t.Fatalf("turn finished before reaching the model: %v", r.err)
	}
	return func() (*dto.ContinueSessionResponse, error) {
		release()
		r := <-done
		return r.res, r.err
	}
}

func TestStartSession_Help(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	res, err := f.svc.StartSession(context.Background(), userID, &dto.StartSessionRequest{Command: "/help"})
	require.NoError(t, err)
	assert.Nil(t, res.SessionId)
	assert.Contains(t, res.Response, "/brainstorm")
	assert.Equal(t, f.svc.Help(), res.Response)

	sessions, err := f.svc.ListSessions(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Zero(t, f.builder.count())
}

func TestStartSession_UnknownCommand(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartSession(context.Background(), uuid.New(), &dto.StartSessionRequest{Command: "dance"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Zero(t, f.builder.count())
}

func TestStartSession_InitialPhasePerRole(t *testing.T) {
	tests := []struct {
		command string
		phase   entity.Phase
	}{
		{"brainstorm", entity.PhaseBrainstorming},
		{"analyst", entity.PhaseSetup},
		{"pm", entity.PhasePrioritization},
		{"architect", entity.PhaseArchitecture},
		{"validator", entity.PhaseValidation},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := newFixture(t)
			res, err := f.svc.StartSession(context.Background(), uuid.New(), &dto.StartSessionRequest{Command: tt.command})
			require.NoError(t, err)
			assert.Equal(t, string(tt.phase), res.Phase)
			assert.NotEmpty(t, res.NextSteps)
			assert.Equal(t, 1, f.registry.Len())
		})
	}
}

func TestBrainstormSession_ManualSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	res, err := f.svc.StartSession(ctx, userID, &dto.StartSessionRequest{Command: "brainstorm"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.PhaseBrainstorming), res.Phase)
	assert.Contains(t, res.Response, "How would you like to choose techniques?")
	sessionID := *res.SessionId

	reply := f.send(t, userID, sessionID, "6,8,10")
	assert.Contains(t, reply.Response, "Let's start with Six Thinking Hats")
	assert.Equal(t, []string{"six_hats", "yes_and_building", "random_stimulation"}, reply.TechniquesUsed)
	assert.Equal(t, string(entity.PhaseBrainstorming), reply.Phase)

	session, err := f.svc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"six_hats", "yes_and_building", "random_stimulation"}, session.TechniquesUsed)
	assert.Equal(t, 3, session.MessageCount)

	transcript, err := f.svc.GetTranscript(ctx, userID, sessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 3)
	assert.Equal(t, "agent", transcript[0].Type)
	assert.Equal(t, "user", transcript[1].Type)
	assert.Equal(t, "6,8,10", transcript[1].Content)
	assert.Equal(t, string(entity.PhaseBrainstorming), transcript[2].Phase)

	assert.Equal(t, []string{events.SessionStarted}, f.publisher.published())
}

func TestContinueSession_ReusesRegisteredRunner(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	sessionID := f.start(t, userID, "brainstorm", "a tool library")

	f.send(t, userID, sessionID, "6,8,10")
	f.send(t, userID, sessionID, "Wear a hat for safety")

	assert.Equal(t, 1, f.builder.count())
	assert.EqualValues(t, 3, f.builder.totalAsks())
}

func TestContinueSession_RestoresAfterRestart(t *testing.T) {
	before := newFixture(t)
	userID := uuid.New()
	sessionID := before.start(t, userID, "brainstorm", "")
	before.send(t, userID, sessionID, "6,8,10")

	after := newFixtureOn(t, before.store)
	first := after.send(t, userID, sessionID, "/next")
	assert.Contains(t, first.Response, "Moving on to technique 2 of 3")
	after.send(t, userID, sessionID, "/ideas")

	assert.Equal(t, 1, after.builder.count())
	assert.EqualValues(t, 2, after.builder.totalAsks())
}

func TestContinueSession_ClosedSessionRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "analyst", "")

	closed, err := f.svc.CloseSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusCompleted), closed.Status)
	assert.NotNil(t, closed.CompletedAt)

	asks := f.builder.totalAsks()
	_, err = f.svc.ContinueSession(ctx, userID, sessionID, &dto.ContinueSessionRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrSessionAlreadyCompleted)
	assert.Equal(t, asks, f.builder.totalAsks())
	assert.Equal(t, 1, f.builder.count())

	again, err := f.svc.CloseSession(ctx, userID, sessionID)
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, closed.CompletedAt.Equal(*again.CompletedAt))
	assert.Equal(t, []string{events.SessionStarted, events.SessionCompleted}, f.publisher.published())
}

func TestContinueSession_NotOwned(t *testing.T) {
	f := newFixture(t)
	sessionID := f.start(t, uuid.New(), "pm", "")

	_, err := f.svc.ContinueSession(context.Background(), uuid.New(), sessionID, &dto.ContinueSessionRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.ContinueSession(context.Background(), uuid.New(), uuid.New(), &dto.ContinueSessionRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestContinueSession_UpstreamFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "brainstorm", "")

	f.provider.fail(errors.New("connection reset"))
	_, err := f.svc.ContinueSession(ctx, userID, sessionID, &dto.ContinueSessionRequest{Message: "6,8,10"})
	assert.ErrorIs(t, err, agent.ErrUpstreamAgent)

	session, err := f.svc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Empty(t, session.TechniquesUsed)

	transcript, err := f.svc.GetTranscript(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Len(t, transcript, 1)

	f.provider.fail(nil)
	reply := f.send(t, userID, sessionID, "6,8,10")
	assert.Len(t, reply.TechniquesUsed, 3)
}

func TestContinueSession_CloseDuringTurnIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "brainstorm", "")

	finish := f.sendHeld(t, userID, sessionID, "6,8,10")
	_, err := f.svc.CloseSession(ctx, userID, sessionID)
	require.NoError(t, err)

	_, err = finish()
	assert.ErrorIs(t, err, ErrSessionAlreadyCompleted)

	session, err := f.svc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusCompleted), session.Status)
	assert.NotNil(t, session.CompletedAt)
	assert.Empty(t, session.TechniquesUsed)
	assert.Equal(t, 1, session.MessageCount)

	transcript, err := f.svc.GetTranscript(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Len(t, transcript, 1)
	assert.Equal(t, 0, f.registry.Len())

	_, err = f.svc.ContinueSession(ctx, userID, sessionID, &dto.ContinueSessionRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrSessionAlreadyCompleted)
}

func TestContinueSession_DeleteDuringTurnIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "pm", "offline field notes")

	finish := f.sendHeld(t, userID, sessionID, "/idea Sync later: queue edits offline")
	require.NoError(t, f.svc.DeleteSession(ctx, userID, sessionID))

	_, err := finish()
	assert.ErrorIs(t, err, ErrSessionNotFound)

	list, err := f.svc.ListSessions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, f.registry.Len())

	uow := f.store.NewUnitOfWork(ctx)
	messages, err := uow.DiscoveryMessageRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionID})
	require.NoError(t, err)
	assert.Empty(t, messages)
	stored, err := uow.DiscoveryIdeaRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionID})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestContinueSession_PhaseChangeDuringTurnIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "brainstorm", "")

	finish := f.sendHeld(t, userID, sessionID, "6,8,10")
	_, err := f.svc.UpdatePhase(ctx, userID, sessionID, &dto.UpdatePhaseRequest{Phase: "architecture"})
	require.NoError(t, err)

	res, err := finish()
	require.NoError(t, err)
	assert.Equal(t, "architecture", res.Phase)
	assert.Equal(t, NextSteps(entity.PhaseArchitecture), res.NextSteps)
	assert.Len(t, res.TechniquesUsed, 3)

	session, err := f.svc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "architecture", session.CurrentPhase)
	assert.Equal(t, string(entity.SessionStatusActive), session.Status)
	assert.Len(t, session.TechniquesUsed, 3)
	assert.Equal(t, 3, session.MessageCount)

	transcript, err := f.svc.GetTranscript(ctx, userID, sessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 3)
	assert.Equal(t, string(entity.PhaseBrainstorming), transcript[0].Phase)
	assert.Equal(t, "architecture", transcript[1].Phase)
	assert.Equal(t, "architecture", transcript[2].Phase)
}

func TestGetSession_MessageCountFollowsTranscript(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "analyst", "late deliveries")

	f.send(t, userID, sessionID, "Mostly small shops")
	f.send(t, userID, sessionID, "They lose repeat customers")

	session, err := f.svc.GetSession(ctx, userID, sessionID)
	require.NoError(t, err)
	transcript, err := f.svc.GetTranscript(ctx, userID, sessionID)
	require.NoError(t, err)
	assert.Len(t, transcript, 6)
	assert.Equal(t, len(transcript), session.MessageCount)
}

func TestUpdatePhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "brainstorm", "")

	_, err := f.svc.UpdatePhase(ctx, userID, sessionID, &dto.UpdatePhaseRequest{Phase: "lunch"})
	assert.ErrorIs(t, err, ErrInvalidPhase)

	res, err := f.svc.UpdatePhase(ctx, userID, sessionID, &dto.UpdatePhaseRequest{Phase: "validation"})
	require.NoError(t, err)
	assert.Equal(t, "validation", res.CurrentPhase)
	assert.Equal(t, NextSteps(entity.PhaseValidation), res.NextSteps)

	// any phase may follow any other
	res, err = f.svc.UpdatePhase(ctx, userID, sessionID, &dto.UpdatePhaseRequest{Phase: "setup"})
	require.NoError(t, err)
	assert.Equal(t, "setup", res.CurrentPhase)

	reply := f.send(t, userID, sessionID, "hello")
	assert.Equal(t, "setup", reply.Phase)

	assert.Equal(t, []string{events.SessionStarted, events.PhaseChanged, events.PhaseChanged}, f.publisher.published())

	_, err = f.svc.CloseSession(ctx, userID, sessionID)
	require.NoError(t, err)
	_, err = f.svc.UpdatePhase(ctx, userID, sessionID, &dto.UpdatePhaseRequest{Phase: "architecture"})
	assert.ErrorIs(t, err, ErrSessionAlreadyCompleted)
}

func TestListIdeas_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "pm", "")

	f.send(t, userID, sessionID, "/idea Mobile app: reach users on the go")
	reply := f.send(t, userID, sessionID, "/idea Web portal: desktop access")
	assert.Equal(t, 2, reply.IdeaCount)

	all, err := f.svc.ListIdeas(ctx, userID, sessionID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Mobile app", all[0].Title)
	assert.Equal(t, "General", all[0].Category)

	manual, err := f.svc.ListIdeas(ctx, userID, sessionID, &dto.IdeaFilterRequest{Source: "manual"})
	require.NoError(t, err)
	assert.Len(t, manual, 2)

	none, err := f.svc.ListIdeas(ctx, userID, sessionID, &dto.IdeaFilterRequest{Category: "Hardware"})
	require.NoError(t, err)
	assert.Empty(t, none)

	f.send(t, userID, sessionID, "/score")
	scored, err := f.svc.ListIdeas(ctx, userID, sessionID, nil)
	require.NoError(t, err)
	for _, idea := range scored {
		require.NotNil(t, idea.Score)
		assert.GreaterOrEqual(t, idea.Score.Priority, 1.0)
		assert.LessOrEqual(t, idea.Score.Priority, 10.0)
	}
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	sessionID := f.start(t, userID, "architect", "")

	assert.ErrorIs(t, f.svc.DeleteSession(ctx, uuid.New(), sessionID), ErrSessionNotFound)

	require.NoError(t, f.svc.DeleteSession(ctx, userID, sessionID))
	assert.Equal(t, 0, f.registry.Len())

	_, err := f.svc.GetTranscript(ctx, userID, sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Contains(t, f.publisher.published(), events.SessionDeleted)
}

func TestListSessions_OwnedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	f.start(t, userID, "brainstorm", "Community garden planner")
	f.start(t, userID, "validator", "")
	f.start(t, uuid.New(), "pm", "")

	sessions, err := f.svc.ListSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	titles := []string{sessions[0].Title, sessions[1].Title}
	assert.ElementsMatch(t, []string{"Community garden planner", "Validation session"}, titles)
}

func TestTechniques(t *testing.T) {
	f := newFixture(t)
	list := f.svc.Techniques()
	require.Len(t, list, 20)
	assert.Equal(t, 1, list[0].Number)
	assert.Equal(t, "what_if_scenarios", list[0].Key)
}
