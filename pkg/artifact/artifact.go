// Package artifact records intermediate discovery state (facilitation snapshots,
// idea ledgers) for later inspection. Recording is best effort: failures are
// logged and never surface to the session flow.
package artifact

import (
	"context"
	"encoding/json"
	"time"
)

type Kind string

const (
	KindFacilitation Kind = "facilitation"
	KindIdeas        Kind = "ideas"
	KindTurn         Kind = "turn"
)

type Artifact struct {
	SessionID string          `json:"session_id"`
	Kind      Kind            `json:"kind"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"created_at"`
}

// New marshals body into an artifact stamped with the current time.
func New(sessionID string, kind Kind, body interface{}) (Artifact, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		SessionID: sessionID,
		Kind:      kind,
		Body:      raw,
		CreatedAt: time.Now(),
	}, nil
}

// Store persists artifacts.
type Store interface {
	Save(ctx context.Context, a Artifact) error
	Latest(ctx context.Context, sessionID string, kind Kind) (*Artifact, error)
	History(ctx context.Context, sessionID string, limit int64) ([]Artifact, error)
}

// NopStore drops everything. It is used when artifacts are disabled.
type NopStore struct{}

func (NopStore) Save(context.Context, Artifact) error { return nil }

func (NopStore) Latest(context.Context, string, Kind) (*Artifact, error) { return nil, nil }

func (NopStore) History(context.Context, string, int64) ([]Artifact, error) { return nil, nil }
