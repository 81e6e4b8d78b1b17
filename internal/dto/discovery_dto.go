package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionRequest struct {
	Command string `json:"command" validate:"required,max=32"`
	Args    string `json:"args" validate:"max=4000"`
	Title   string `json:"title" validate:"max=200"`
}

// StartSessionResponse carries no SessionId for the help command.
type StartSessionResponse struct {
	SessionId *uuid.UUID `json:"session_id,omitempty"`
	Response  string     `json:"response"`
	Phase     string     `json:"phase,omitempty"`
	NextSteps []string   `json:"next_steps,omitempty"`
}

type ContinueSessionRequest struct {
	Message string `json:"message" validate:"required,max=8000"`
}

type ContinueSessionResponse struct {
	SessionId      uuid.UUID `json:"session_id"`
	Response       string    `json:"response"`
	Phase          string    `json:"phase"`
	NextSteps      []string  `json:"next_steps"`
	TechniquesUsed []string  `json:"techniques_used"`
	IdeaCount      int       `json:"idea_count"`
}

type UpdatePhaseRequest struct {
	Phase string `json:"phase" validate:"required"`
}

type SessionResponse struct {
	Id               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ProblemStatement string     `json:"problem_statement,omitempty"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	CurrentPhase     string     `json:"current_phase"`
	TechniquesUsed   []string   `json:"techniques_used"`
	MessageCount     int        `json:"message_count"`
	NextSteps        []string   `json:"next_steps,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

type IdeaScoreResponse struct {
	Impact      float64 `json:"impact"`
	Feasibility float64 `json:"feasibility"`
	Effort      float64 `json:"effort"`
	Priority    float64 `json:"priority"`
}

type IdeaResponse struct {
	Id          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Rationale   string             `json:"rationale"`
	Category    string             `json:"category"`
	Tags        []string           `json:"tags"`
	Source      string             `json:"source"`
	Confidence  int                `json:"confidence"`
	Score       *IdeaScoreResponse `json:"score,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type IdeaFilterRequest struct {
	Category string   `query:"category"`
	Tags     []string `query:"tag"`
	Source   string   `query:"source"`
}

type TechniqueResponse struct {
	Number      int      `json:"number"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases,omitempty"`
}
