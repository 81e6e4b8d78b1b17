package technique

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Key is the canonical snake_case identifier of a technique.
type Key string

const (
	WhatIfScenarios       Key = "what_if_scenarios"
	AnalogicalThinking    Key = "analogical_thinking"
	ReversalInversion     Key = "reversal_inversion"
	FirstPrinciples       Key = "first_principles"
	Scamper               Key = "scamper"
	SixHats               Key = "six_hats"
	MindMap               Key = "mind_map"
	YesAndBuilding        Key = "yes_and_building"
	Brainwriting          Key = "brainwriting"
	RandomStimulation     Key = "random_stimulation"
	FiveWhys              Key = "five_whys"
	MorphologicalAnalysis Key = "morphological_analysis"
	Provocation           Key = "provocation"
	ForcedRelationships   Key = "forced_relationships"
	AssumptionReversal    Key = "assumption_reversal"
	RolePlaying           Key = "role_playing"
	TimeShifting          Key = "time_shifting"
	ResourceConstraints   Key = "resource_constraints"
	MetaphorMapping       Key = "metaphor_mapping"
	QuestionStorming      Key = "question_storming"
)

// Technique is an immutable catalog entry.
type Technique struct {
	Key         Key      `yaml:"key" json:"key"`
	Aliases     []string `yaml:"aliases,omitempty" json:"-"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Ordinal     int      `yaml:"-" json:"ordinal"`
	Prompts     []string `yaml:"prompts" json:"-"`
}

// Prompt returns the facilitation prompt for a 1-based step.
func (t Technique) Prompt(step int) (string, bool) {
	if step < 1 || step > len(t.Prompts) {
		return "", false
	}
	return t.Prompts[step-1], true
}

// Catalog maps ordinals, canonical names and aliases to techniques.
type Catalog struct {
	techniques []Technique
	byKey      map[Key]int
	byName     map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := NewCatalog(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("technique: embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// NewCatalog parses a YAML list of techniques. Ordinals follow list order starting at 1.
func NewCatalog(data []byte) (*Catalog, error) {
	var entries []Technique
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	c := &Catalog{
		techniques: make([]Technique, 0, len(entries)),
		byKey:      make(map[Key]int, len(entries)),
		byName:     make(map[string]int, len(entries)*2),
	}

	for i, t := range entries {
		t.Ordinal = i + 1
		if t.Key == "" || t.Name == "" {
			return nil, fmt.Errorf("technique #%d: key and name are required", t.Ordinal)
		}
		if len(t.Prompts) == 0 {
			return nil, fmt.Errorf("technique %s: at least one prompt is required", t.Key)
		}
		names := append([]string{string(t.Key)}, t.Aliases...)
		for _, n := range names {
			n = strings.ToLower(n)
			if _, dup := c.byName[n]; dup {
				return nil, fmt.Errorf("technique %s: duplicate identifier %q", t.Key, n)
			}
			c.byName[n] = i
		}
		c.byKey[t.Key] = i
		c.techniques = append(c.techniques, t)
	}

	return c, nil
}

// Resolve looks up an ordinal string ("1".."20") or a name. Names are case-insensitive,
// ordinals are matched literally. Unknown identifiers report false.
func (c *Catalog) Resolve(identifier string) (Technique, bool) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return Technique{}, false
	}
	if isDigits(id) {
		n, err := strconv.Atoi(id)
		if err != nil || n < 1 || n > len(c.techniques) || strconv.Itoa(n) != id {
			return Technique{}, false
		}
		return c.techniques[n-1], true
	}
	idx, ok := c.byName[strings.ToLower(id)]
	if !ok {
		return Technique{}, false
	}
	return c.techniques[idx], true
}

// Get returns the technique for a canonical key.
func (c *Catalog) Get(key Key) (Technique, bool) {
	idx, ok := c.byKey[key]
	if !ok {
		return Technique{}, false
	}
	return c.techniques[idx], true
}

// All returns every technique in ordinal order.
func (c *Catalog) All() []Technique {
	out := make([]Technique, len(c.techniques))
	copy(out, c.techniques)
	return out
}

func (c *Catalog) Len() int {
	return len(c.techniques)
}

// Menu renders the numbered list shown when the user picks techniques by hand.
func (c *Catalog) Menu() string {
	var b strings.Builder
	b.WriteString("Here are the available brainstorming techniques:\n\n")
	for _, t := range c.techniques {
		fmt.Fprintf(&b, "%d) %s\n", t.Ordinal, t.Name)
	}
	b.WriteString("\nPlease select one or more techniques by entering their numbers separated by commas (e.g., '6,8,10').")
	return b.String()
}

// Guidance lists the valid identifiers after an unparseable selection.
func (c *Catalog) Guidance() string {
	keys := make([]string, len(c.techniques))
	for i, t := range c.techniques {
		keys[i] = string(t.Key)
	}
	return fmt.Sprintf(
		"Please select techniques using numbers (1-%d) or technique names. Available: %s",
		len(c.techniques), strings.Join(keys, ", "),
	)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
