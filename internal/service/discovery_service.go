package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/mapper"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/memory"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/pkg/agent"
	"ai-discovery-be/pkg/artifact"
	"ai-discovery-be/pkg/events"
	"ai-discovery-be/pkg/ideas"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/technique"

	"github.com/google/uuid"
)

const logModule = "DISCOVERY"

// IDiscoveryService is the discovery session lifecycle manager.
type IDiscoveryService interface {
	StartSession(ctx context.Context, userId uuid.UUID, request *dto.StartSessionRequest) (*dto.StartSessionResponse, error)
	ContinueSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.ContinueSessionRequest) (*dto.ContinueSessionResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error)
	GetTranscript(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	ListIdeas(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, filter *dto.IdeaFilterRequest) ([]*dto.IdeaResponse, error)
	UpdatePhase(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.UpdatePhaseRequest) (*dto.SessionResponse, error)
	CloseSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	Techniques() []*dto.TechniqueResponse
	Help() string
}

var initialPhases = map[agent.Role]entity.Phase{
	agent.RoleBrainstorm: entity.PhaseBrainstorming,
	agent.RoleAnalyst:    entity.PhaseSetup,
	agent.RolePM:         entity.PhasePrioritization,
	agent.RoleArchitect:  entity.PhaseArchitecture,
	agent.RoleValidator:  entity.PhaseValidation,
}

var roleTitles = map[agent.Role]string{
	agent.RoleBrainstorm: "Brainstorming session",
	agent.RoleAnalyst:    "Analysis session",
	agent.RolePM:         "Product planning session",
	agent.RoleArchitect:  "Architecture session",
	agent.RoleValidator:  "Validation session",
}

const (
	openingMessage = "Let's begin."
	maxTitleLength = 60
)

type discoveryService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *memory.RunnerRegistry
	builder    agent.Builder
	catalog    *technique.Catalog
	events     events.Publisher
	artifacts  *artifact.Recorder
	logger     logger.ILogger
	mapper     *mapper.DiscoveryMapper
	now        func() time.Time
}

// NewDiscoveryService wires the lifecycle manager. eventPublisher and recorder may be nil.
func NewDiscoveryService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.RunnerRegistry,
	builder agent.Builder,
	catalog *technique.Catalog,
	eventPublisher events.Publisher,
	recorder *artifact.Recorder,
	log logger.ILogger,
) IDiscoveryService {
	return &discoveryService{
		uowFactory: uowFactory,
		registry:   registry,
		builder:    builder,
		catalog:    catalog,
		events:     eventPublisher,
		artifacts:  recorder,
		logger:     log,
		mapper:     mapper.NewDiscoveryMapper(),
		now:        time.Now,
	}
}

func (s *discoveryService) Help() string {
	return helpText
}

func (s *discoveryService) Techniques() []*dto.TechniqueResponse {
	all := s.catalog.All()
	res := make([]*dto.TechniqueResponse, len(all))
	for i, t := range all {
		res[i] = &dto.TechniqueResponse{
			Number:      t.Ordinal,
			Key:         string(t.Key),
			Name:        t.Name,
			Description: t.Description,
			Aliases:     append([]string(nil), t.Aliases...),
		}
	}
	return res
}

func (s *discoveryService) StartSession(ctx context.Context, userId uuid.UUID, request *dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	command := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(request.Command)), "/")
	if command == "help" {
		return &dto.StartSessionResponse{Response: helpText}, nil
	}
	role, ok := agent.ParseRole(command)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, request.Command)
	}

	args := strings.TrimSpace(request.Args)
	sessionId := uuid.New()
	phase := initialPhases[role]

	handle, _, err := s.registry.GetOrCreate(ctx, sessionId.String(), func(ctx context.Context) (*agent.Handle, error) {
		return s.builder.Build(ctx, agent.Spec{
			SessionID:        sessionId.String(),
			Role:             role,
			ProblemStatement: args,
		})
	})
	if err != nil {
		return nil, err
	}

	opening := openingMessage
	if args != "" {
		opening = args
	}
	reply, err := handle.Ask(ctx, opening)
	if err != nil {
		s.registry.Delete(sessionId.String())
		s.logger.Error(logModule, "Opening turn failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"role":       string(role),
			"error":      err.Error(),
		})
		return nil, err
	}
	reply = FormatResponse(reply)

	now := s.now()
	session := &entity.DiscoverySession{
		Id:               sessionId,
		UserId:           userId,
		Title:            sessionTitle(request.Title, args, role),
		ProblemStatement: args,
		Role:             string(role),
		Status:           entity.SessionStatusActive,
		CurrentPhase:     phase,
		AgentSessionId:   sessionId.String(),
		TechniquesUsed:   []string{},
		Metadata: entity.SessionMetadata{
			PhaseHistory: []entity.PhaseChange{{To: phase, At: now}},
		},
		CreatedAt: now,
	}

	turn := []*entity.DiscoveryMessage{}
	if args != "" {
		turn = append(turn, &entity.DiscoveryMessage{Type: entity.MessageTypeUser, Content: args})
	}
	turn = append(turn, &entity.DiscoveryMessage{Type: entity.MessageTypeAgent, Content: reply})

	snap, _ := handle.Snapshot()
	if _, err := s.persistTurn(ctx, session, turn, snap, now, true); err != nil {
		s.registry.Delete(sessionId.String())
		return nil, err
	}

	s.publish(ctx, events.SessionStarted, session, map[string]interface{}{
		"role":  session.Role,
		"phase": string(phase),
		"title": session.Title,
	})
	s.logger.Info(logModule, "Session started", map[string]interface{}{
		"session_id": sessionId.String(),
		"user_id":    userId.String(),
		"role":       string(role),
	})

	return &dto.StartSessionResponse{
		SessionId: &sessionId,
		Response:  reply,
		Phase:     string(phase),
		NextSteps: NextSteps(phase),
	}, nil
}

func (s *discoveryService) ContinueSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.ContinueSessionRequest) (*dto.ContinueSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, ErrSessionAlreadyCompleted
	}

	handle, created, err := s.registry.GetOrCreate(ctx, sessionId.String(), func(ctx context.Context) (*agent.Handle, error) {
		return s.restore(ctx, uow, session)
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Debug("REGISTRY", "Runner restored", map[string]interface{}{
			"session_id": sessionId.String(),
		})
	}

	reply, err := handle.Ask(ctx, request.Message)
	if err != nil {
		s.logger.Error(logModule, "Agent turn failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil, err
	}
	reply = FormatResponse(reply)

	snap, _ := handle.Snapshot()
	turn := []*entity.DiscoveryMessage{
		{Type: entity.MessageTypeUser, Content: request.Message},
		{Type: entity.MessageTypeAgent, Content: reply},
	}
	session, err = s.persistTurn(ctx, session, turn, snap, s.now(), false)
	if err != nil {
		// the runner is ahead of storage now
		s.registry.Delete(sessionId.String())
		s.logger.Warn(logModule, "Turn discarded", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil, err
	}

	s.artifacts.Record(ctx, sessionId.String(), artifact.KindTurn, map[string]interface{}{
		"message": request.Message,
		"reply":   reply,
		"phase":   string(session.CurrentPhase),
	})

	return &dto.ContinueSessionResponse{
		SessionId:      sessionId,
		Response:       reply,
		Phase:          string(session.CurrentPhase),
		NextSteps:      NextSteps(session.CurrentPhase),
		TechniquesUsed: append([]string{}, session.TechniquesUsed...),
		IdeaCount:      len(snap.Ideas),
	}, nil
}

// restore rebuilds a session's runner from its persisted transcript, ideas and
// facilitation state.
func (s *discoveryService) restore(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.DiscoverySession) (*agent.Handle, error) {
	role, ok := agent.ParseRole(session.Role)
	if !ok {
		return nil, fmt.Errorf("session %s has unknown role %q", session.Id, session.Role)
	}

	messages, err := uow.DiscoveryMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	transcript := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		r := llm.RoleUser
		if m.Type == entity.MessageTypeAgent {
			r = llm.RoleAssistant
		}
		transcript = append(transcript, llm.Message{Role: r, Content: m.Content})
	}

	stored, err := uow.DiscoveryIdeaRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "position"},
	)
	if err != nil {
		return nil, err
	}
	ledger := make([]ideas.Idea, len(stored))
	for i, e := range stored {
		ledger[i] = s.mapper.EntityToLedgerIdea(e)
	}

	return s.builder.Build(ctx, agent.Spec{
		SessionID:        session.Id.String(),
		Role:             role,
		ProblemStatement: session.ProblemStatement,
		Transcript:       transcript,
		Ideas:            ledger,
		Facilitation:     session.Metadata.Facilitation,
	})
}

// persistTurn stores the exchange, the workspace snapshot and the session activity
// metadata in one transaction. create is true for the opening turn. Otherwise the
// session is re-read inside the transaction and only the turn's changes are
// applied to it. The stored row is returned.
func (s *discoveryService) persistTurn(ctx context.Context, session *entity.DiscoverySession, turn []*entity.DiscoveryMessage, snap agent.Snapshot, now time.Time, create bool) (*entity.DiscoverySession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if !create {
		fresh, err := s.findSession(ctx, uow, session.UserId, session.Id)
		if err != nil {
			return nil, err
		}
		if fresh.IsCompleted() {
			return nil, ErrSessionAlreadyCompleted
		}
		session = fresh
	}

	session.Metadata.MessageCount += len(turn)
	session.Metadata.LastActivityAt = &now
	if snap.Facilitation != nil {
		session.Metadata.Facilitation = snap.Facilitation
		used := make([]string, len(snap.TechniquesUsed))
		for i, k := range snap.TechniquesUsed {
			used[i] = string(k)
		}
		session.TechniquesUsed = used
	}
	session.UpdatedAt = &now

	if create {
		if err := uow.DiscoverySessionRepository().Create(ctx, session); err != nil {
			return nil, err
		}
	} else if err := uow.DiscoverySessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	for i, m := range turn {
		m.Id = uuid.New()
		m.SessionId = session.Id
		m.Phase = session.CurrentPhase
		// keep the pair ordered when both land on the same clock tick
		m.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		if err := uow.DiscoveryMessageRepository().Create(ctx, m); err != nil {
			return nil, err
		}
	}

	if snap.Facilitation != nil {
		stored := make([]*entity.DiscoveryIdea, len(snap.Ideas))
		for i, idea := range snap.Ideas {
			stored[i] = s.mapper.LedgerIdeaToEntity(session.Id, i, idea)
		}
		if err := uow.DiscoveryIdeaRepository().ReplaceForSession(ctx, session.Id, stored); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if snap.Facilitation != nil {
		s.artifacts.Record(ctx, session.Id.String(), artifact.KindFacilitation, snap.Facilitation)
		s.artifacts.Record(ctx, session.Id.String(), artifact.KindIdeas, snap.Ideas)
	}
	return session, nil
}

func (s *discoveryService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.DiscoverySessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, len(sessions))
	for i, session := range sessions {
		res[i] = toSessionResponse(session, false)
	}
	return res, nil
}

func (s *discoveryService) GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	count, err := uow.DiscoveryMessageRepository().Count(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, err
	}
	session.Metadata.MessageCount = int(count)
	return toSessionResponse(session, true), nil
}

func (s *discoveryService) GetTranscript(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.DiscoveryMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		res[i] = &dto.MessageResponse{
			Id:        m.Id,
			Type:      string(m.Type),
			Content:   m.Content,
			Phase:     string(m.Phase),
			CreatedAt: m.CreatedAt,
		}
	}
	return res, nil
}

func (s *discoveryService) ListIdeas(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, filter *dto.IdeaFilterRequest) ([]*dto.IdeaResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	stored, err := uow.DiscoveryIdeaRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "position"},
	)
	if err != nil {
		return nil, err
	}
	list := make([]ideas.Idea, len(stored))
	for i, e := range stored {
		list[i] = s.mapper.EntityToLedgerIdea(e)
	}

	var f ideas.Filter
	if filter != nil {
		f = ideas.Filter{Category: filter.Category, Tags: filter.Tags, Source: filter.Source}
	}
	matched := ideas.Restore(list).List(f)

	res := make([]*dto.IdeaResponse, len(matched))
	for i, idea := range matched {
		res[i] = toIdeaResponse(idea)
	}
	return res, nil
}

func (s *discoveryService) UpdatePhase(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.UpdatePhaseRequest) (*dto.SessionResponse, error) {
	phase := entity.Phase(strings.ToLower(strings.TrimSpace(request.Phase)))
	if !phase.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhase, request.Phase)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := s.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, ErrSessionAlreadyCompleted
	}

	previous := session.CurrentPhase
	if previous == phase {
		return toSessionResponse(session, true), nil
	}

	now := s.now()
	session.CurrentPhase = phase
	session.Metadata.PhaseHistory = append(session.Metadata.PhaseHistory, entity.PhaseChange{From: previous, To: phase, At: now})
	session.UpdatedAt = &now
	if err := uow.DiscoverySessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, events.PhaseChanged, session, map[string]interface{}{
		"from": string(previous),
		"to":   string(phase),
	})
	return toSessionResponse(session, true), nil
}

// CloseSession marks the session completed. Closing a completed session is a no-op.
func (s *discoveryService) CloseSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := s.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return toSessionResponse(session, true), nil
	}

	now := s.now()
	session.Status = entity.SessionStatusCompleted
	session.CompletedAt = &now
	session.UpdatedAt = &now
	if err := uow.DiscoverySessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.registry.Delete(sessionId.String())
	s.publish(ctx, events.SessionCompleted, session, map[string]interface{}{
		"phase":           string(session.CurrentPhase),
		"techniques_used": session.TechniquesUsed,
		"message_count":   session.Metadata.MessageCount,
	})
	s.logger.Info(logModule, "Session closed", map[string]interface{}{
		"session_id": sessionId.String(),
	})
	return toSessionResponse(session, true), nil
}

func (s *discoveryService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	session, err := s.findSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}
	if err := uow.DiscoveryMessageRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.DiscoveryIdeaRepository().DeleteBySessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.DiscoverySessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.registry.Delete(sessionId.String())
	s.publish(ctx, events.SessionDeleted, session, nil)
	return nil
}

func (s *discoveryService) findSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.DiscoverySession, error) {
	session, err := uow.DiscoverySessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *discoveryService) publish(ctx context.Context, eventType string, session *entity.DiscoverySession, extra map[string]interface{}) {
	if s.events == nil {
		return
	}
	evt := events.NewSessionEvent(eventType, session.Id, session.UserId, extra)
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn(logModule, "Failed to publish event", map[string]interface{}{
			"event":      eventType,
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
}

func sessionTitle(title, args string, role agent.Role) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if args == "" {
		return roleTitles[role]
	}
	line, _, _ := strings.Cut(args, "\n")
	runes := []rune(strings.TrimSpace(line))
	if len(runes) > maxTitleLength {
		return strings.TrimSpace(string(runes[:maxTitleLength])) + "..."
	}
	return string(runes)
}

func toSessionResponse(session *entity.DiscoverySession, withSteps bool) *dto.SessionResponse {
	res := &dto.SessionResponse{
		Id:               session.Id,
		Title:            session.Title,
		ProblemStatement: session.ProblemStatement,
		Role:             session.Role,
		Status:           string(session.Status),
		CurrentPhase:     string(session.CurrentPhase),
		TechniquesUsed:   append([]string{}, session.TechniquesUsed...),
		MessageCount:     session.Metadata.MessageCount,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
		CompletedAt:      session.CompletedAt,
	}
	if withSteps {
		res.NextSteps = NextSteps(session.CurrentPhase)
	}
	return res
}

func toIdeaResponse(idea ideas.Idea) *dto.IdeaResponse {
	res := &dto.IdeaResponse{
		Id:          idea.ID,
		Title:       idea.Title,
		Description: idea.Description,
		Rationale:   idea.Rationale,
		Category:    idea.Category,
		Tags:        append([]string{}, idea.Tags...),
		Source:      idea.Source,
		Confidence:  idea.Confidence,
		CreatedAt:   idea.CreatedAt,
		UpdatedAt:   idea.UpdatedAt,
	}
	if idea.Score != nil {
		res.Score = &dto.IdeaScoreResponse{
			Impact:      idea.Score.Impact,
			Feasibility: idea.Score.Feasibility,
			Effort:      idea.Score.Effort,
			Priority:    idea.Score.Priority,
		}
	}
	return res
}
