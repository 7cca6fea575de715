// internal/stages/plan-generator/handler_test.go
package plangenerator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	lastPrompt string
	respond    func() (json.RawMessage, error)
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, req *genai.Request, schema string) (json.RawMessage, error) {
	f.lastPrompt = req.Prompt
	return f.respond()
}

func createTestConfig() *Config {
	return &Config{
		TopSkills:        3,
		MinMilestones:    3,
		MaxMilestones:    5,
		MinDurationWeeks: 2,
		MaxDurationWeeks: 6,
		Timeout:          time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		TransitionID: "t-1",
		CurrentRole:  "Software Engineer",
		TargetRole:   "Engineering Manager",
		SkillGaps: []models.SkillGap{
			{SkillName: "leadership", GapLevel: models.GapHigh, MentionCount: 7},
			{SkillName: "stakeholder management", GapLevel: models.GapMedium, MentionCount: 4},
			{SkillName: "mentoring", GapLevel: models.GapLow, MentionCount: 1},
			{SkillName: "roadmap", GapLevel: models.GapLow, MentionCount: 1},
		},
	}
}

const validPlanJSON = `[
	{"title": "Lead a project", "description": "Take ownership of a cross-team initiative.", "priority": "High", "durationWeeks": 4},
	{"title": "Mentor juniors", "description": "Pair regularly with two junior engineers.", "priority": "Medium", "durationWeeks": 3},
	{"title": "Study management basics", "description": "Read and discuss core management literature.", "priority": "Medium", "durationWeeks": 2}
]`

func TestExecute_GeneratedPlan(t *testing.T) {
	gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
		return json.RawMessage(validPlanJSON), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.False(t, output.Fallback)
	require.Len(t, output.Plan.Milestones, 3)

	for i, m := range output.Plan.Milestones {
		assert.Equal(t, i, m.Order)
		assert.Equal(t, 0, m.Progress)
		assert.GreaterOrEqual(t, m.DurationWeeks, 2)
		assert.LessOrEqual(t, m.DurationWeeks, 6)
	}

	// prompt includes only the top-K gaps
	assert.Contains(t, gen.lastPrompt, "leadership")
	assert.Contains(t, gen.lastPrompt, "mentoring")
	assert.NotContains(t, gen.lastPrompt, "roadmap")
}

func TestExecute_WrapperKeyUnwrapped(t *testing.T) {
	gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
		return json.RawMessage(`{"milestones": ` + validPlanJSON + `}`), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, output.Fallback)
	assert.Len(t, output.Plan.Milestones, 3)
}

func TestExecute_InvalidMilestonesDroppedNotReplaced(t *testing.T) {
	gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
		return json.RawMessage(`[
			{"title": "Good", "description": "Fine milestone.", "priority": "High", "durationWeeks": 4},
			{"title": "", "description": "Missing title.", "priority": "High", "durationWeeks": 4},
			{"title": "Too long", "description": "Duration out of range.", "priority": "Low", "durationWeeks": 20},
			{"title": "Bad priority", "description": "Unknown level.", "priority": "Urgent", "durationWeeks": 3}
		]`), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.False(t, output.Fallback)
	require.Len(t, output.Plan.Milestones, 1)
	assert.Equal(t, "Good", output.Plan.Milestones[0].Title)
	assert.Equal(t, 0, output.Plan.Milestones[0].Order)
}

func TestExecute_PriorityCaseNormalized(t *testing.T) {
	gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
		return json.RawMessage(`[
			{"title": "Shadow a manager", "description": "Sit in on planning meetings.", "priority": "HIGH", "durationWeeks": 3},
			{"title": "Run retros", "description": "Facilitate the team retrospective.", "priority": " medium ", "durationWeeks": 2},
			{"title": "Read up", "description": "Management fundamentals.", "priority": "low", "durationWeeks": 2}
		]`), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	require.Len(t, output.Plan.Milestones, 3)
	assert.Equal(t, models.PriorityHigh, output.Plan.Milestones[0].Priority)
	assert.Equal(t, models.PriorityMedium, output.Plan.Milestones[1].Priority)
	assert.Equal(t, models.PriorityLow, output.Plan.Milestones[2].Priority)
}

func TestExecute_GenerationFailureFallsBack(t *testing.T) {
	for _, cause := range []error{genai.ErrTimeout, genai.ErrAuth, genai.ErrRateLimited, genai.ErrMalformedResponse} {
		gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
			return nil, cause
		}}

		h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

		output, err := h.Execute(context.Background(), createTestInput())
		require.NoError(t, err, "plan stage must never fail (%v)", cause)

		assert.True(t, output.Fallback)
		require.Len(t, output.Plan.Milestones, 3)
		assert.Equal(t, "Learn core concepts", output.Plan.Milestones[0].Title)
		assert.Equal(t, "Practice via projects", output.Plan.Milestones[1].Title)
		assert.Equal(t, "Interview preparation", output.Plan.Milestones[2].Title)
	}
}

func TestExecute_EmptyValidatedListFallsBack(t *testing.T) {
	gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.True(t, output.Fallback)
	assert.Len(t, output.Plan.Milestones, 3)
}

func TestExecute_ZeroSkillGapsStillPlans(t *testing.T) {
	gen := &fakeGenerator{respond: func() (json.RawMessage, error) {
		return json.RawMessage(validPlanJSON), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	input := createTestInput()
	input.SkillGaps = nil

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.Fallback)
	assert.Contains(t, gen.lastPrompt, "role-generic")
}

func TestFallbackMilestones_ContiguousOrder(t *testing.T) {
	for i, m := range FallbackMilestones {
		assert.Equal(t, i, m.Order)
		assert.Equal(t, 0, m.Progress)
		assert.NotEmpty(t, m.Resources)
	}
}
