package entity

import (
	"time"

	"github.com/google/uuid"

	"ai-discovery-be/pkg/facilitation"
)

type Phase string

const (
	PhaseSetup          Phase = "setup"
	PhaseBrainstorming  Phase = "brainstorming"
	PhasePrioritization Phase = "prioritization"
	PhaseArchitecture   Phase = "architecture"
	PhaseValidation     Phase = "validation"
	PhaseCompleted      Phase = "completed"
)

var phases = []Phase{
	PhaseSetup,
	PhaseBrainstorming,
	PhasePrioritization,
	PhaseArchitecture,
	PhaseValidation,
	PhaseCompleted,
}

func Phases() []Phase {
	return append([]Phase(nil), phases...)
}

func (p Phase) IsValid() bool {
	for _, known := range phases {
		if p == known {
			return true
		}
	}
	return false
}

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

type PhaseChange struct {
	From Phase     `json:"from"`
	To   Phase     `json:"to"`
	At   time.Time `json:"at"`
}

// SessionMetadata is the free-form activity record stored alongside a session.
type SessionMetadata struct {
	MessageCount   int                 `json:"message_count"`
	LastActivityAt *time.Time          `json:"last_activity_at,omitempty"`
	PhaseHistory   []PhaseChange       `json:"phase_history,omitempty"`
	Facilitation   *facilitation.State `json:"facilitation,omitempty"`
}

type DiscoverySession struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	Title            string
	ProblemStatement string
	Role             string
	Status           SessionStatus
	CurrentPhase     Phase
	AgentSessionId   string
	TechniquesUsed   []string
	Metadata         SessionMetadata
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	CompletedAt      *time.Time
}

func (s *DiscoverySession) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}
