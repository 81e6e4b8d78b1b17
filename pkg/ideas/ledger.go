package ideas

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Ledger is the ordered idea collection of one discovery session.
type Ledger struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Idea

	now   func() time.Time
	newID func(time.Time) string
}

func NewLedger() *Ledger {
	return &Ledger{
		byID:  make(map[string]*Idea),
		now:   time.Now,
		newID: generateID,
	}
}

// Restore rebuilds a ledger from persisted ideas, keeping their order and ids.
func Restore(existing []Idea) *Ledger {
	l := NewLedger()
	for _, idea := range existing {
		if idea.ID == "" {
			continue
		}
		if _, dup := l.byID[idea.ID]; dup {
			continue
		}
		c := idea.clone()
		l.byID[c.ID] = &c
		l.order = append(l.order, c.ID)
	}
	return l
}

func generateID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("idea_%d_%s", now.UnixMilli(), suffix)
}

// Save appends a new idea, filling rationale, category, source and confidence defaults.
func (l *Ledger) Save(d Draft) (Idea, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Idea{}, fmt.Errorf("%w: title is required", ErrInvalidIdea)
	}
	if err := validate.Struct(d); err != nil {
		return Idea{}, fmt.Errorf("%w: %v", ErrInvalidIdea, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	id := l.newID(now)
	for _, taken := l.byID[id]; taken; _, taken = l.byID[id] {
		id = l.newID(now)
	}

	idea := Idea{
		ID:          id,
		Title:       title,
		Description: d.Description,
		Rationale:   orDefault(d.Rationale, DefaultRationale),
		Category:    orDefault(d.Category, DefaultCategory),
		Tags:        normalizeTags(d.Tags),
		Source:      orDefault(d.Source, DefaultSource),
		Confidence:  d.Confidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if idea.Confidence == 0 {
		idea.Confidence = DefaultConfidence
	}

	l.byID[id] = &idea
	l.order = append(l.order, id)
	return idea.clone(), nil
}

func (l *Ledger) Get(id string) (Idea, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idea, ok := l.byID[id]
	if !ok {
		return Idea{}, fmt.Errorf("%w: %s", ErrIdeaNotFound, id)
	}
	return idea.clone(), nil
}

// List returns matching ideas in insertion order.
func (l *Ledger) List(f Filter) []Idea {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Idea, 0, len(l.order))
	for _, id := range l.order {
		idea := l.byID[id]
		if f.matches(*idea) {
			out = append(out, idea.clone())
		}
	}
	return out
}

// Update merges p into the idea and refreshes UpdatedAt. The id never changes.
func (l *Ledger) Update(id string, p Patch) (Idea, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idea, ok := l.byID[id]
	if !ok {
		return Idea{}, fmt.Errorf("%w: %s", ErrIdeaNotFound, id)
	}

	next := idea.clone()
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Idea{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidIdea)
		}
		next.Title = title
	}
	if p.Confidence != nil {
		if *p.Confidence < 1 || *p.Confidence > 10 {
			return Idea{}, fmt.Errorf("%w: confidence %d outside 1..10", ErrInvalidIdea, *p.Confidence)
		}
		next.Confidence = *p.Confidence
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Rationale != nil {
		next.Rationale = *p.Rationale
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Tags != nil {
		next.Tags = normalizeTags(*p.Tags)
	}
	if p.Source != nil {
		next.Source = *p.Source
	}
	// content changed, so any derived score is stale
	next.Score = nil
	next.UpdatedAt = l.now()

	*idea = next
	return next.clone(), nil
}

func (l *Ledger) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrIdeaNotFound, id)
	}
	delete(l.byID, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Score derives impact, feasibility and effort for the idea and stores the result on it.
func (l *Ledger) Score(id string, w Weights) (Score, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idea, ok := l.byID[id]
	if !ok {
		return Score{}, fmt.Errorf("%w: %s", ErrIdeaNotFound, id)
	}
	s := Evaluate(*idea, w)
	idea.Score = &s
	return s, nil
}

// ScoreAll scores every idea and returns them ordered by priority, highest first.
func (l *Ledger) ScoreAll(w Weights) []Idea {
	l.mu.Lock()
	for _, id := range l.order {
		idea := l.byID[id]
		s := Evaluate(*idea, w)
		idea.Score = &s
	}
	l.mu.Unlock()

	return Rank(l.List(Filter{}))
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Clone returns an independent copy used to stage a turn before committing it.
func (l *Ledger) Clone() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c := NewLedger()
	c.now = l.now
	c.newID = l.newID
	for _, id := range l.order {
		idea := l.byID[id].clone()
		c.byID[id] = &idea
		c.order = append(c.order, id)
	}
	return c
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// normalizeTags trims tags and drops empties and case-insensitive duplicates.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
