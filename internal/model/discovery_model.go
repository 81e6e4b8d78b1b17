package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DiscoverySession struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId           uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Title            string                      `gorm:"type:text;not null"`
	ProblemStatement string                      `gorm:"type:text"`
	Role             string                      `gorm:"type:varchar(32);not null"`
	Status           string                      `gorm:"type:varchar(16);not null;index"`
	CurrentPhase     string                      `gorm:"type:varchar(32);not null"`
	AgentSessionId   string                      `gorm:"type:varchar(64)"`
	TechniquesUsed   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Metadata         datatypes.JSON              `gorm:"type:jsonb"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
	CompletedAt      *time.Time
}

func (DiscoverySession) TableName() string {
	return "discovery_sessions"
}

type DiscoveryMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      string    `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	Phase     string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (DiscoveryMessage) TableName() string {
	return "discovery_messages"
}

type DiscoveryIdea struct {
	Id          string                      `gorm:"type:varchar(64);primaryKey"`
	SessionId   uuid.UUID                   `gorm:"type:uuid;primaryKey;index"`
	Position    int                         `gorm:"not null"`
	Title       string                      `gorm:"type:text;not null"`
	Description string                      `gorm:"type:text"`
	Rationale   string                      `gorm:"type:text"`
	Category    string                      `gorm:"type:varchar(128);index"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Source      string                      `gorm:"type:varchar(64);index"`
	Confidence  int
	Impact      *float64
	Feasibility *float64
	Effort      *float64
	Priority    *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (DiscoveryIdea) TableName() string {
	return "discovery_ideas"
}
