package ideas

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrIdeaNotFound = errors.New("idea not found")
	ErrInvalidIdea  = errors.New("invalid idea")
)

const (
	DefaultRationale  = "Generated during discovery session"
	DefaultCategory   = "General"
	DefaultSource     = "manual"
	DefaultConfidence = 7
)

// Idea is one record in a session's ledger.
type Idea struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rationale   string    `json:"rationale"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Source      string    `json:"source"`
	Confidence  int       `json:"confidence"`
	Score       *Score    `json:"score,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i Idea) clone() Idea {
	i.Tags = append([]string(nil), i.Tags...)
	if i.Score != nil {
		s := *i.Score
		i.Score = &s
	}
	return i
}

// HasAnyTag reports whether the idea carries at least one of tags, ignoring case.
func (i Idea) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range i.Tags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// Draft holds the caller-supplied fields of a new idea. Empty fields get defaults.
type Draft struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Rationale   string   `json:"rationale"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Source      string   `json:"source"`
	Confidence  int      `json:"confidence" validate:"omitempty,min=1,max=10"`
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Rationale   *string   `json:"rationale,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Source      *string   `json:"source,omitempty"`
	Confidence  *int      `json:"confidence,omitempty"`
}

// Filter selects ideas. Every non-empty field must match; Tags matches if any tag overlaps.
type Filter struct {
	Category string
	Tags     []string
	Source   string
}

func (f Filter) matches(i Idea) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, i.Category) {
		return false
	}
	if f.Source != "" && !strings.EqualFold(f.Source, i.Source) {
		return false
	}
	if len(f.Tags) > 0 && !i.HasAnyTag(f.Tags) {
		return false
	}
	return true
}
