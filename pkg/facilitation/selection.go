package facilitation

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"ai-discovery-be/pkg/technique"
)

// Mode is how the selection was made.
type Mode string

const (
	ModeManual      Mode = "manual"
	ModeRecommended Mode = "recommended"
	ModeRandom      Mode = "random"
	ModeProgressive Mode = "progressive"
)

var tokenSplitter = regexp.MustCompile(`[,\s]+`)

var (
	// recommendedSet is the fallback used when no context-aware recommendation is available.
	recommendedSet = []technique.Key{
		technique.WhatIfScenarios,
		technique.Scamper,
		technique.FiveWhys,
	}

	// progressiveFlow runs from divergent techniques towards convergent ones.
	progressiveFlow = []technique.Key{
		technique.WhatIfScenarios,
		technique.RandomStimulation,
		technique.MindMap,
		technique.Scamper,
		technique.MorphologicalAnalysis,
		technique.FiveWhys,
	}

	modeKeywords = map[string]Mode{
		"manual":      ModeManual,
		"list":        ModeManual,
		"option:1":    ModeManual,
		"recommend":   ModeRecommended,
		"recommended": ModeRecommended,
		"option:2":    ModeRecommended,
		"random":      ModeRandom,
		"option:3":    ModeRandom,
		"progressive": ModeProgressive,
		"option:4":    ModeProgressive,
	}
)

const (
	randomMin = 2
	randomMax = 4
)

// Selection is the outcome of a successful selectTechniques call.
type Selection struct {
	Mode       Mode                  `json:"mode"`
	Techniques []technique.Technique `json:"techniques"`
	// AwaitingSelection is set when the manual menu was shown and nothing was selected yet.
	AwaitingSelection    bool   `json:"awaiting_selection"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Message              string `json:"message"`
}

// First returns the technique the session begins with.
func (s Selection) First() (technique.Technique, bool) {
	if len(s.Techniques) == 0 {
		return technique.Technique{}, false
	}
	return s.Techniques[0], true
}

// InvalidSelectionError is returned when no token resolved to a technique.
// It matches ErrInvalidSelection under errors.Is.
type InvalidSelectionError struct {
	Input    string
	Guidance string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("could not parse technique selection %q", e.Input)
}

func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

// Resolver turns free-form selection text into an ordered technique list.
type Resolver struct {
	catalog *technique.Catalog
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewResolver(catalog *technique.Catalog, rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{
		catalog: catalog,
		now:     time.Now,
		rng:     rng,
	}
}

func (r *Resolver) Catalog() *technique.Catalog {
	return r.catalog
}

// Recognizes reports whether input reads as a technique selection at all: an approach
// keyword, or a list whose every token is a number or a known technique name.
func (r *Resolver) Recognizes(input string) bool {
	raw := strings.ToLower(strings.TrimSpace(input))
	if raw == "" {
		return false
	}
	if _, ok := modeKeywords[raw]; ok {
		return true
	}
	for _, tok := range tokenize(raw) {
		if isNumber(tok) {
			continue
		}
		if _, ok := r.catalog.Resolve(tok); !ok {
			return false
		}
	}
	return true
}

// Select resolves input and, on success, overwrites the selection held in state.
// An unparseable selection returns *InvalidSelectionError and leaves state untouched.
func (r *Resolver) Select(state *State, input string) (Selection, error) {
	raw := strings.ToLower(strings.TrimSpace(input))

	switch modeKeywords[raw] {
	case ModeManual:
		return Selection{
			Mode:              ModeManual,
			AwaitingSelection: true,
			Message:           r.catalog.Menu(),
		}, nil
	case ModeRecommended:
		return r.apply(state, ModeRecommended, r.lookup(recommendedSet), true), nil
	case ModeRandom:
		return r.apply(state, ModeRandom, r.draw(), true), nil
	case ModeProgressive:
		return r.apply(state, ModeProgressive, r.lookup(progressiveFlow), true), nil
	}

	seen := make(map[technique.Key]bool)
	var picked []technique.Technique
	for _, tok := range tokenize(raw) {
		t, ok := r.catalog.Resolve(tok)
		if !ok || seen[t.Key] {
			continue
		}
		seen[t.Key] = true
		picked = append(picked, t)
	}

	if len(picked) == 0 {
		return Selection{}, &InvalidSelectionError{
			Input:    input,
			Guidance: r.catalog.Guidance(),
		}
	}

	return r.apply(state, ModeManual, picked, false), nil
}

func (r *Resolver) apply(state *State, mode Mode, picked []technique.Technique, confirm bool) Selection {
	keys := make([]technique.Key, len(picked))
	for i, t := range picked {
		keys[i] = t.Key
	}
	state.begin(keys, confirm, r.now())

	return Selection{
		Mode:                 mode,
		Techniques:           picked,
		RequiresConfirmation: confirm,
		Message:              selectionMessage(mode, picked),
	}
}

func (r *Resolver) lookup(keys []technique.Key) []technique.Technique {
	out := make([]technique.Technique, 0, len(keys))
	for _, k := range keys {
		if t, ok := r.catalog.Get(k); ok {
			out = append(out, t)
		}
	}
	return out
}

// draw picks randomMin..randomMax techniques without replacement.
func (r *Resolver) draw() []technique.Technique {
	all := r.catalog.All()

	r.mu.Lock()
	n := randomMin + r.rng.Intn(randomMax-randomMin+1)
	perm := r.rng.Perm(len(all))
	r.mu.Unlock()

	if n > len(all) {
		n = len(all)
	}
	out := make([]technique.Technique, n)
	for i := 0; i < n; i++ {
		out[i] = all[perm[i]]
	}
	return out
}

func selectionMessage(mode Mode, picked []technique.Technique) string {
	names := make([]string, len(picked))
	ordinals := make([]string, len(picked))
	for i, t := range picked {
		names[i] = t.Name
		ordinals[i] = fmt.Sprintf("%d", t.Ordinal)
	}
	first := picked[0].Name
	confirm := fmt.Sprintf("Reply with %s to confirm, or pick your own numbers.", strings.Join(ordinals, ","))

	switch mode {
	case ModeRecommended:
		return fmt.Sprintf("Based on context, I recommend %s. %s We'll start with %s.", joinNames(names), confirm, first)
	case ModeRandom:
		return fmt.Sprintf("Random techniques selected: %s. %s We'll start with %s.", joinNames(names), confirm, first)
	case ModeProgressive:
		return fmt.Sprintf("Progressive flow selected (broad → narrow): %s. %s We'll start with %s.", strings.Join(names, " → "), confirm, first)
	default:
		return fmt.Sprintf("Great! I'll help you explore your idea using %s. Let's start with %s.", joinNames(names), first)
	}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func tokenize(raw string) []string {
	parts := tokenSplitter.Split(raw, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
