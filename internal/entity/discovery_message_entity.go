package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeUser  MessageType = "user"
	MessageTypeAgent MessageType = "agent"
)

type DiscoveryMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Type      MessageType
	Content   string
	Phase     Phase
	CreatedAt time.Time
}

// DiscoveryIdea is a persisted ledger entry. Id is the ledger-assigned idea id.
type DiscoveryIdea struct {
	Id          string
	SessionId   uuid.UUID
	Position    int
	Title       string
	Description string
	Rationale   string
	Category    string
	Tags        []string
	Source      string
	Confidence  int
	Impact      *float64
	Feasibility *float64
	Effort      *float64
	Priority    *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
