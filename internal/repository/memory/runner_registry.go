package memory

import (
	"context"
	"time"

	"ai-discovery-be/pkg/agent"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// RunnerRegistry caches one live agent handle per discovery session.
// An idleTTL of zero keeps handles until they are deleted explicitly.
type RunnerRegistry struct {
	cache *cache.Cache
	group singleflight.Group
}

func NewRunnerRegistry(idleTTL time.Duration) *RunnerRegistry {
	expiration := cache.NoExpiration
	var cleanup time.Duration
	if idleTTL > 0 {
		expiration = idleTTL
		cleanup = idleTTL / 2
	}
	return &RunnerRegistry{
		cache: cache.New(expiration, cleanup),
	}
}

// Get returns the handle for sessionID and refreshes its idle deadline.
func (r *RunnerRegistry) Get(sessionID string) (*agent.Handle, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	h := x.(*agent.Handle)
	r.cache.Set(sessionID, h, cache.DefaultExpiration)
	return h, true
}

func (r *RunnerRegistry) Set(sessionID string, handle *agent.Handle) {
	r.cache.Set(sessionID, handle, cache.DefaultExpiration)
}

func (r *RunnerRegistry) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *RunnerRegistry) Len() int {
	return r.cache.ItemCount()
}

// GetOrCreate returns the cached handle or builds and registers one.
// Concurrent callers for the same session share a single build. created reports
// whether a new handle was built, for this call or a concurrent one it joined.
func (r *RunnerRegistry) GetOrCreate(ctx context.Context, sessionID string, build func(ctx context.Context) (*agent.Handle, error)) (handle *agent.Handle, created bool, err error) {
	if h, ok := r.Get(sessionID); ok {
		return h, false, nil
	}

	type result struct {
		handle *agent.Handle
		built  bool
	}
	v, err, _ := r.group.Do(sessionID, func() (interface{}, error) {
		if h, ok := r.Get(sessionID); ok {
			return result{handle: h}, nil
		}
		h, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Add(sessionID, h, cache.DefaultExpiration); err != nil {
			// registered by a Set that raced the build
			if existing, ok := r.Get(sessionID); ok {
				return result{handle: existing}, nil
			}
			r.Set(sessionID, h)
		}
		return result{handle: h, built: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(result)
	return res.handle, res.built, nil
}
