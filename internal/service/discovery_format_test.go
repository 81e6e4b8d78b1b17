package service

import (
	"testing"

	"ai-discovery-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestNextSteps_TotalOverPhases(t *testing.T) {
	for _, phase := range entity.Phases() {
		assert.NotEmpty(t, NextSteps(phase), phase)
	}
	assert.Equal(t, []string{"Continue the discovery process"}, NextSteps(entity.Phase("problem_analysis")))
	assert.NotEmpty(t, NextSteps(""))
}

func TestNextSteps_ReturnsCopy(t *testing.T) {
	steps := NextSteps(entity.PhaseValidation)
	steps[0] = "mutated"
	assert.Equal(t, "Review risks and feasibility", NextSteps(entity.PhaseValidation)[0])
}

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "sentence break",
			in:   "Great idea! What would happen next?",
			want: "Great idea!\n\nWhat would happen next?",
		},
		{
			name: "numbered list",
			in:   "Options: 1. Mobile app 2. Web portal",
			want: "Options:\n1. Mobile app\n2. Web portal",
		},
		{
			name: "blank runs collapse",
			in:   "first\n\n\n\nsecond",
			want: "first\n\nsecond",
		},
		{
			name: "decimals untouched",
			in:   "priority 6.8 overall",
			want: "priority 6.8 overall",
		},
		{
			name: "trims",
			in:   "  hello \n",
			want: "hello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatResponse(tt.in))
		})
	}
}
