package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-discovery-be/pkg/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

type echoRunner struct{}

func (echoRunner) Ask(ctx context.Context, message string) (string, error) {
	return message, nil
}

func newHandle(id string) *agent.Handle {
	return &agent.Handle{SessionID: id, Role: agent.RoleBrainstorm, Runner: echoRunner{}, CreatedAt: time.Now()}
}

func TestRunnerRegistry_GetSetDelete(t *testing.T) {
	reg := NewRunnerRegistry(0)

	_, ok := reg.Get("s1")
	assert.False(t, ok)

	h := newHandle("s1")
	reg.Set("s1", h)
	got, ok := reg.Get("s1")
	require.True(t, ok)
	assert.Same(t, h, got)
	assert.Equal(t, 1, reg.Len())

	reg.Delete("s1")
	_, ok = reg.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
}

func TestRunnerRegistry_GetOrCreateBuildsOnce(t *testing.T) {
	reg := NewRunnerRegistry(0)
	var builds int32

	build := func(ctx context.Context) (*agent.Handle, error) {
		atomic.AddInt32(&builds, 1)
		time.Sleep(10 * time.Millisecond)
		return newHandle("s1"), nil
	}

	const callers = 16
	handles := make([]*agent.Handle, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, _, err := reg.GetOrCreate(context.Background(), "s1", build)
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}

	h, created, err := reg.GetOrCreate(context.Background(), "s1", build)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, handles[0], h)
}

func TestRunnerRegistry_BuildFailureIsNotCached(t *testing.T) {
	reg := NewRunnerRegistry(0)
	boom := errors.New("boom")

	_, _, err := reg.GetOrCreate(context.Background(), "s1", func(ctx context.Context) (*agent.Handle, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, reg.Len())

	h, created, err := reg.GetOrCreate(context.Background(), "s1", func(ctx context.Context) (*agent.Handle, error) {
		return newHandle("s1"), nil
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "s1", h.SessionID)
}

func TestRunnerRegistry_IdleExpiry(t *testing.T) {
	reg := NewRunnerRegistry(30 * time.Millisecond)
	reg.Set("s1", newHandle("s1"))

	_, ok := reg.Get("s1")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok = reg.Get("s1")
	assert.False(t, ok)
}
