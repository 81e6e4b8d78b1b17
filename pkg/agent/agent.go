// Package agent holds the conversational runners that back discovery sessions.
// A runner owns a Workspace (facilitation state and idea ledger) and answers one
// message at a time through Ask.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/ideas"
	"ai-discovery-be/pkg/llm"
	"ai-discovery-be/pkg/technique"
)

// ErrUpstreamAgent wraps failures of the model call. The workspace is left untouched.
var ErrUpstreamAgent = errors.New("upstream agent failure")

// Role selects which specialist answers a session.
type Role string

const (
	RoleBrainstorm Role = "brainstorm"
	RoleAnalyst    Role = "analyst"
	RolePM         Role = "pm"
	RoleArchitect  Role = "architect"
	RoleValidator  Role = "validator"
)

var roles = []Role{RoleBrainstorm, RoleAnalyst, RolePM, RoleArchitect, RoleValidator}

func Roles() []Role {
	return append([]Role(nil), roles...)
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// Runner answers one message. Implementations may keep conversation memory.
type Runner interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Observer is implemented by runners whose workspace can be inspected after a turn.
type Observer interface {
	Snapshot() Snapshot
}

// Snapshot is a copy of a runner's workspace at a point in time.
type Snapshot struct {
	Facilitation   *facilitation.State `json:"facilitation"`
	Ideas          []ideas.Idea        `json:"ideas"`
	TechniquesUsed []technique.Key     `json:"techniques_used"`
}

// Handle is the cached, long-lived agent of one discovery session.
type Handle struct {
	SessionID string
	Role      Role
	Runner    Runner
	CreatedAt time.Time
}

func (h *Handle) Ask(ctx context.Context, message string) (string, error) {
	return h.Runner.Ask(ctx, message)
}

// Snapshot returns the runner's workspace, or false if the runner is opaque.
func (h *Handle) Snapshot() (Snapshot, bool) {
	obs, ok := h.Runner.(Observer)
	if !ok {
		return Snapshot{}, false
	}
	return obs.Snapshot(), true
}

// Spec describes the agent to build. Transcript, Ideas and Facilitation are set
// when an existing session is restored after a restart or eviction.
type Spec struct {
	SessionID        string
	Role             Role
	ProblemStatement string
	Transcript       []llm.Message
	Ideas            []ideas.Idea
	Facilitation     *facilitation.State
}

// Builder constructs handles. The registry calls it at most once per cached session.
type Builder interface {
	Build(ctx context.Context, spec Spec) (*Handle, error)
}
