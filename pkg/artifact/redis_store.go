package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "discovery:artifact:"
	maxHistory = 200
)

// RedisStore keeps the latest artifact per kind and a bounded per-session history.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func latestKey(sessionID string, kind Kind) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, sessionID, kind)
}

func historyKey(sessionID string) string {
	return keyPrefix + sessionID + ":history"
}

func (s *RedisStore) Save(ctx context.Context, a Artifact) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, latestKey(a.SessionID, a.Kind), raw, s.ttl)
	pipe.LPush(ctx, historyKey(a.SessionID), raw)
	pipe.LTrim(ctx, historyKey(a.SessionID), 0, maxHistory-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, historyKey(a.SessionID), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Latest(ctx context.Context, sessionID string, kind Kind) (*Artifact, error) {
	raw, err := s.client.Get(ctx, latestKey(sessionID, kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// History returns up to limit artifacts, newest first.
func (s *RedisStore) History(ctx context.Context, sessionID string, limit int64) ([]Artifact, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}
	rows, err := s.client.LRange(ctx, historyKey(sessionID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Artifact, 0, len(rows))
	for _, row := range rows {
		var a Artifact
		if err := json.Unmarshal([]byte(row), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
