package ideas

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveListUpdateDelete(t *testing.T) {
	l := NewLedger()

	saved, err := l.Save(Draft{Title: "X", Description: "Y"})
	require.NoError(t, err)

	list := l.List(Filter{})
	require.Len(t, list, 1)
	assert.Equal(t, "X", list[0].Title)
	assert.Equal(t, DefaultRationale, list[0].Rationale)
	assert.Equal(t, DefaultCategory, list[0].Category)
	assert.Equal(t, DefaultSource, list[0].Source)
	assert.Equal(t, DefaultConfidence, list[0].Confidence)

	title := "Z"
	updated, err := l.Update(saved.ID, Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	list = l.List(Filter{})
	require.Len(t, list, 1)
	assert.Equal(t, "Z", list[0].Title)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.Equal(t, "Y", list[0].Description)

	require.NoError(t, l.Delete(saved.ID))
	assert.Empty(t, l.List(Filter{}))
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	l := NewLedger()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	saved, err := l.Save(Draft{Title: "Kiosk"})
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	desc := "self-service"
	updated, err := l.Update(saved.ID, Patch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, saved.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(saved.UpdatedAt))
}

func TestNotFound(t *testing.T) {
	l := NewLedger()
	title := "nope"

	_, err := l.Update("idea_missing", Patch{Title: &title})
	assert.True(t, errors.Is(err, ErrIdeaNotFound))
	assert.ErrorIs(t, l.Delete("idea_missing"), ErrIdeaNotFound)
	_, err = l.Get("idea_missing")
	assert.ErrorIs(t, err, ErrIdeaNotFound)
	_, err = l.Score("idea_missing", DefaultWeights)
	assert.ErrorIs(t, err, ErrIdeaNotFound)
}

func TestSaveRejectsMalformedDrafts(t *testing.T) {
	l := NewLedger()

	_, err := l.Save(Draft{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidIdea)
	_, err = l.Save(Draft{Title: "ok", Confidence: 11})
	assert.ErrorIs(t, err, ErrInvalidIdea)
	assert.Zero(t, l.Len())
}

func TestFilterTagsAreOrWithinAndAcrossTypes(t *testing.T) {
	l := NewLedger()
	first, _ := l.Save(Draft{Title: "a", Tags: []string{"ui"}})
	_, _ = l.Save(Draft{Title: "b", Tags: []string{"backend"}})
	third, _ := l.Save(Draft{Title: "c", Tags: []string{"ui", "backend"}, Category: "Platform"})

	got := l.List(Filter{Tags: []string{"ui"}})
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, third.ID, got[1].ID)

	got = l.List(Filter{Tags: []string{"ui"}, Category: "platform"})
	require.Len(t, got, 1)
	assert.Equal(t, third.ID, got[0].ID)

	assert.Empty(t, l.List(Filter{Tags: []string{"ui"}, Source: "five_whys"}))
}

func TestIDsAreUniqueUnderCollisions(t *testing.T) {
	l := NewLedger()
	calls := 0
	l.newID = func(time.Time) string {
		calls++
		if calls <= 3 {
			return "idea_fixed"
		}
		return fmt.Sprintf("idea_%d", calls)
	}

	a, err := l.Save(Draft{Title: "a"})
	require.NoError(t, err)
	b, err := l.Save(Draft{Title: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestConcurrentSaves(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Save(Draft{Title: fmt.Sprintf("idea %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, idea := range l.List(Filter{}) {
		assert.False(t, seen[idea.ID])
		seen[idea.ID] = true
	}
	assert.Len(t, seen, 50)
}

func TestCloneAndRestoreAreIndependent(t *testing.T) {
	l := NewLedger()
	saved, _ := l.Save(Draft{Title: "a", Tags: []string{"ui"}})

	c := l.Clone()
	_, _ = c.Save(Draft{Title: "b"})
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, c.Len())

	r := Restore(c.List(Filter{}))
	require.Equal(t, 2, r.Len())
	got, err := r.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ui"}, got.Tags)
}
