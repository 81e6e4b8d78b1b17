package mapper

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/model"
	"ai-discovery-be/pkg/ideas"
)

type DiscoveryMapper struct{}

func NewDiscoveryMapper() *DiscoveryMapper {
	return &DiscoveryMapper{}
}

// Session Mappers

func (m *DiscoveryMapper) SessionToEntity(s *model.DiscoverySession) *entity.DiscoverySession {
	if s == nil {
		return nil
	}

	var meta entity.SessionMetadata
	if len(s.Metadata) > 0 {
		// unreadable metadata degrades to empty rather than hiding the session
		_ = json.Unmarshal(s.Metadata, &meta)
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.DiscoverySession{
		Id:               s.Id,
		UserId:           s.UserId,
		Title:            s.Title,
		ProblemStatement: s.ProblemStatement,
		Role:             s.Role,
		Status:           entity.SessionStatus(s.Status),
		CurrentPhase:     entity.Phase(s.CurrentPhase),
		AgentSessionId:   s.AgentSessionId,
		TechniquesUsed:   append([]string(nil), s.TechniquesUsed...),
		Metadata:         meta,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
		CompletedAt:      s.CompletedAt,
	}
}

func (m *DiscoveryMapper) SessionToModel(s *entity.DiscoverySession) *model.DiscoverySession {
	if s == nil {
		return nil
	}

	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		meta = []byte("{}")
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.DiscoverySession{
		Id:               s.Id,
		UserId:           s.UserId,
		Title:            s.Title,
		ProblemStatement: s.ProblemStatement,
		Role:             s.Role,
		Status:           string(s.Status),
		CurrentPhase:     string(s.CurrentPhase),
		AgentSessionId:   s.AgentSessionId,
		TechniquesUsed:   datatypes.NewJSONSlice(append([]string{}, s.TechniquesUsed...)),
		Metadata:         datatypes.JSON(meta),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
		CompletedAt:      s.CompletedAt,
	}
}

// Message Mappers

func (m *DiscoveryMapper) MessageToEntity(msg *model.DiscoveryMessage) *entity.DiscoveryMessage {
	if msg == nil {
		return nil
	}
	return &entity.DiscoveryMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Type:      entity.MessageType(msg.Type),
		Content:   msg.Content,
		Phase:     entity.Phase(msg.Phase),
		CreatedAt: msg.CreatedAt,
	}
}

func (m *DiscoveryMapper) MessageToModel(msg *entity.DiscoveryMessage) *model.DiscoveryMessage {
	if msg == nil {
		return nil
	}
	return &model.DiscoveryMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Type:      string(msg.Type),
		Content:   msg.Content,
		Phase:     string(msg.Phase),
		CreatedAt: msg.CreatedAt,
	}
}

// Idea Mappers

func (m *DiscoveryMapper) IdeaToEntity(i *model.DiscoveryIdea) *entity.DiscoveryIdea {
	if i == nil {
		return nil
	}
	return &entity.DiscoveryIdea{
		Id:          i.Id,
		SessionId:   i.SessionId,
		Position:    i.Position,
		Title:       i.Title,
		Description: i.Description,
		Rationale:   i.Rationale,
		Category:    i.Category,
		Tags:        append([]string(nil), i.Tags...),
		Source:      i.Source,
		Confidence:  i.Confidence,
		Impact:      i.Impact,
		Feasibility: i.Feasibility,
		Effort:      i.Effort,
		Priority:    i.Priority,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (m *DiscoveryMapper) IdeaToModel(i *entity.DiscoveryIdea) *model.DiscoveryIdea {
	if i == nil {
		return nil
	}
	return &model.DiscoveryIdea{
		Id:          i.Id,
		SessionId:   i.SessionId,
		Position:    i.Position,
		Title:       i.Title,
		Description: i.Description,
		Rationale:   i.Rationale,
		Category:    i.Category,
		Tags:        datatypes.NewJSONSlice(append([]string{}, i.Tags...)),
		Source:      i.Source,
		Confidence:  i.Confidence,
		Impact:      i.Impact,
		Feasibility: i.Feasibility,
		Effort:      i.Effort,
		Priority:    i.Priority,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// LedgerIdeaToEntity stores a ledger idea at position within its session.
func (m *DiscoveryMapper) LedgerIdeaToEntity(sessionId uuid.UUID, position int, i ideas.Idea) *entity.DiscoveryIdea {
	e := &entity.DiscoveryIdea{
		Id:          i.ID,
		SessionId:   sessionId,
		Position:    position,
		Title:       i.Title,
		Description: i.Description,
		Rationale:   i.Rationale,
		Category:    i.Category,
		Tags:        append([]string(nil), i.Tags...),
		Source:      i.Source,
		Confidence:  i.Confidence,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if s := i.Score; s != nil {
		e.Impact, e.Feasibility, e.Effort, e.Priority = &s.Impact, &s.Feasibility, &s.Effort, &s.Priority
	}
	return e
}

func (m *DiscoveryMapper) EntityToLedgerIdea(e *entity.DiscoveryIdea) ideas.Idea {
	i := ideas.Idea{
		ID:          e.Id,
		Title:       e.Title,
		Description: e.Description,
		Rationale:   e.Rationale,
		Category:    e.Category,
		Tags:        append([]string(nil), e.Tags...),
		Source:      e.Source,
		Confidence:  e.Confidence,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Impact != nil && e.Feasibility != nil && e.Effort != nil && e.Priority != nil {
		i.Score = &ideas.Score{
			Impact:      *e.Impact,
			Feasibility: *e.Feasibility,
			Effort:      *e.Effort,
			Priority:    *e.Priority,
		}
	}
	return i
}
