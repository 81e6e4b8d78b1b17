package ideas

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Weights controls the priority formula. Effort is inverted: cheaper ideas rank higher.
type Weights struct {
	Impact      float64 `json:"impact"`
	Feasibility float64 `json:"feasibility"`
	Effort      float64 `json:"effort"`
}

var DefaultWeights = Weights{Impact: 0.4, Feasibility: 0.3, Effort: 0.3}

// Score is the derived assessment of an idea. Each dimension is on a 1..10 scale.
type Score struct {
	Impact      float64   `json:"impact"`
	Feasibility float64   `json:"feasibility"`
	Effort      float64   `json:"effort"`
	Priority    float64   `json:"priority"`
	Reasoning   Reasoning `json:"reasoning"`
}

type Reasoning struct {
	Impact      string `json:"impact"`
	Feasibility string `json:"feasibility"`
	Effort      string `json:"effort"`
}

// Priority computes impact*wI + feasibility*wF + (10-effort)*wE, bounded to [1,10]
// and rounded to one decimal.
func Priority(impact, feasibility, effort float64, w Weights) float64 {
	p := impact*w.Impact + feasibility*w.Feasibility + (10-effort)*w.Effort
	return math.Round(clamp(p)*10) / 10
}

type signal struct {
	keywords []string
	step     float64
	cap      float64
}

var (
	impactSignals = []signal{
		{[]string{"user", "customer", "experience", "satisfaction", "pain", "problem", "need"}, 0.5, 2},
		{[]string{"market", "revenue", "business", "growth", "scale", "demand", "opportunity"}, 0.4, 1.5},
		{[]string{"ai", "machine learning", "blockchain", "iot", "automation", "innovation", "cutting-edge"}, 0.3, 1},
		{[]string{"social", "community", "sustainability", "accessibility", "inclusion", "impact", "benefit"}, 0.2, 0.5},
	}
	// negative steps lower feasibility
	feasibilitySignals = []signal{
		{[]string{"ai", "machine learning", "blockchain", "iot", "complex", "advanced", "sophisticated"}, -0.5, 2},
		{[]string{"team", "resources", "budget", "investment", "infrastructure", "equipment"}, -0.3, 1.5},
		{[]string{"quick", "fast", "simple", "easy", "rapid", "immediate"}, 0.4, 1.5},
		{[]string{"risk", "uncertainty", "experimental", "unproven", "challenging"}, -0.4, 1.5},
	}
	effortSignals = []signal{
		{[]string{"long", "extensive", "comprehensive", "detailed", "complex", "sophisticated"}, 0.5, 2},
		{[]string{"team", "collaboration", "multiple", "various", "diverse", "cross-functional"}, 0.3, 1.5},
		{[]string{"expensive", "costly", "investment", "budget", "premium", "high-end"}, 0.4, 1.5},
		{[]string{"ongoing", "continuous", "regular", "maintenance", "updates", "support"}, 0.2, 1},
	}
)

// Evaluate derives a score from the idea's text and tags using keyword signals.
func Evaluate(i Idea, w Weights) Score {
	text := strings.ToLower(i.Title + " " + i.Description + " " + i.Rationale)
	tags := make(map[string]bool, len(i.Tags))
	for _, t := range i.Tags {
		tags[strings.ToLower(t)] = true
	}

	impact := evaluate(text, tags, impactSignals)
	feasibility := evaluate(text, tags, feasibilitySignals)
	effort := evaluate(text, tags, effortSignals)

	return Score{
		Impact:      impact,
		Feasibility: feasibility,
		Effort:      effort,
		Priority:    Priority(impact, feasibility, effort, w),
		Reasoning: Reasoning{
			Impact:      impactReasoning(i.Title, impact),
			Feasibility: feasibilityReasoning(i.Title, feasibility),
			Effort:      effortReasoning(i.Title, effort),
		},
	}
}

func evaluate(text string, tags map[string]bool, signals []signal) float64 {
	score := 5.0
	for _, s := range signals {
		hits := 0
		for _, k := range s.keywords {
			if strings.Contains(text, k) || tags[k] {
				hits++
			}
		}
		delta := math.Min(math.Abs(s.step)*float64(hits), s.cap)
		if s.step < 0 {
			delta = -delta
		}
		score += delta
	}
	return clamp(score)
}

// Rank orders ideas by priority, highest first. Unscored ideas sort last; ties keep input order.
func Rank(list []Idea) []Idea {
	out := append([]Idea(nil), list...)
	sort.SliceStable(out, func(a, b int) bool {
		return priorityOf(out[a]) > priorityOf(out[b])
	})
	return out
}

func priorityOf(i Idea) float64 {
	if i.Score == nil {
		return 0
	}
	return i.Score.Priority
}

func clamp(v float64) float64 {
	return math.Min(math.Max(v, 1), 10)
}

func impactReasoning(title string, s float64) string {
	switch {
	case s >= 8:
		return fmt.Sprintf("High impact potential: %s addresses significant user needs and has strong market potential.", title)
	case s >= 6:
		return fmt.Sprintf("Moderate impact potential: %s provides value but may need refinement for maximum impact.", title)
	case s >= 4:
		return fmt.Sprintf("Limited impact potential: %s has some value but may not address core user needs effectively.", title)
	default:
		return fmt.Sprintf("Low impact potential: %s may not provide sufficient value to justify development effort.", title)
	}
}

func feasibilityReasoning(title string, s float64) string {
	switch {
	case s >= 8:
		return fmt.Sprintf("Highly feasible: %s can be implemented with current resources and technology.", title)
	case s >= 6:
		return fmt.Sprintf("Moderately feasible: %s is achievable but may require additional resources or expertise.", title)
	case s >= 4:
		return fmt.Sprintf("Challenging feasibility: %s presents significant technical or resource challenges.", title)
	default:
		return fmt.Sprintf("Low feasibility: %s may be too complex or resource-intensive to implement successfully.", title)
	}
}

func effortReasoning(title string, s float64) string {
	switch {
	case s >= 8:
		return fmt.Sprintf("High effort: %s needs significant time, people and budget.", title)
	case s >= 6:
		return fmt.Sprintf("Moderate effort: %s needs a dedicated team for several iterations.", title)
	case s >= 4:
		return fmt.Sprintf("Manageable effort: %s fits within a normal delivery cycle.", title)
	default:
		return fmt.Sprintf("Low effort: %s can be delivered quickly with existing resources.", title)
	}
}
