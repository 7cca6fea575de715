// internal/stages/readiness-scorer/handler_test.go
package readinessscorer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return LoadConfig()
}

func createTestInput() *Input {
	return &Input{
		TransitionID: "t-1",
		CurrentRole:  "Software Engineer",
		TargetRole:   "Engineering Manager",
		Narratives: []models.ScrapedData{
			{Source: "reddit", Content: "story one"},
			{Source: "blog", Content: "story two"},
		},
		Insights: []models.Insight{
			{Type: models.InsightObservation, Content: "managers are in demand"},
			{Type: models.InsightChallenge, Content: "letting go of coding is hard"},
		},
		SkillGaps: []models.SkillGap{
			{SkillName: "leadership", GapLevel: models.GapHigh, MentionCount: 6},
			{SkillName: "mentoring", GapLevel: models.GapLow, MentionCount: 1},
		},
		Plan: models.Plan{
			TransitionID: "t-1",
			Milestones: []models.Milestone{
				{Order: 0, Title: "Lead a project", Description: "d", Priority: models.PriorityHigh, DurationWeeks: 4,
					Resources: []models.Resource{{Title: "Coursera"}}},
			},
		},
	}
}

func TestExecute_OverallScoreMatchesWeights(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	sub := output.Score.SubScores
	w := h.config.Weights
	expected := int(math.Round(
		w.MarketDemand*float64(sub.MarketDemand) +
			w.SkillGapSeverity*float64(sub.SkillGapSeverity) +
			w.EducationPaths*float64(sub.EducationPaths) +
			w.IndustryTrend*float64(sub.IndustryTrend) +
			w.Geography*float64(sub.Geography)))

	assert.Equal(t, expected, output.Score.OverallScore)
	assert.GreaterOrEqual(t, output.Score.OverallScore, 0)
	assert.LessOrEqual(t, output.Score.OverallScore, 100)
	assert.InDelta(t, 1.0, w.Sum(), 0.001)
}

func TestExecute_SubScoresWithinRange(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	sub := output.Score.SubScores
	for name, v := range map[string]int{
		"marketDemand":     sub.MarketDemand,
		"skillGapSeverity": sub.SkillGapSeverity,
		"educationPaths":   sub.EducationPaths,
		"industryTrend":    sub.IndustryTrend,
		"geography":        sub.Geography,
	} {
		assert.GreaterOrEqual(t, v, 0, name)
		assert.LessOrEqual(t, v, 100, name)
	}
}

func TestExecute_MoreHighGapsLowerSeverityScore(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewNoOpLogger())

	few := createTestInput()
	many := createTestInput()
	for _, name := range []string{"sql", "hiring", "budgeting", "strategy"} {
		many.SkillGaps = append(many.SkillGaps, models.SkillGap{SkillName: name, GapLevel: models.GapHigh, MentionCount: 5})
	}

	fewOut, err := h.Execute(context.Background(), few)
	require.NoError(t, err)
	manyOut, err := h.Execute(context.Background(), many)
	require.NoError(t, err)

	assert.Less(t, manyOut.Score.SubScores.SkillGapSeverity, fewOut.Score.SubScores.SkillGapSeverity)
}

func TestExecute_GeographySignal(t *testing.T) {
	signal := func(ctx context.Context, current, target string) (int, error) {
		return 80, nil
	}

	h := NewHandler(createTestConfig(), signal, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, 80, output.Score.SubScores.Geography)
}

func TestExecute_GeographySignalFailureDegradesToNeutral(t *testing.T) {
	signal := func(ctx context.Context, current, target string) (int, error) {
		return 0, errors.New("market data unavailable")
	}

	h := NewHandler(createTestConfig(), signal, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, h.config.NeutralScore, output.Score.SubScores.Geography)
}

func TestExecute_NoSignalConfiguredUsesNeutral(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, h.config.NeutralScore, output.Score.SubScores.Geography)
}

func TestExecute_SignalRespectsTimeout(t *testing.T) {
	cfg := createTestConfig()
	cfg.SignalTimeout = 10 * time.Millisecond

	signal := func(ctx context.Context, current, target string) (int, error) {
		select {
		case <-time.After(time.Second):
			return 90, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	h := NewHandler(cfg, signal, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, cfg.NeutralScore, output.Score.SubScores.Geography)
}

func TestExecute_AllSixRecommendationCategoriesPopulated(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	recs := output.Score.Recommendations
	assert.NotEmpty(t, recs.SkillDevelopment)
	assert.NotEmpty(t, recs.MarketPositioning)
	assert.NotEmpty(t, recs.EducationPaths)
	assert.NotEmpty(t, recs.ExperienceBuilding)
	assert.NotEmpty(t, recs.Networking)
	assert.NotEmpty(t, recs.NextSteps)
}

func TestExecute_EmptyArtifactsStillScores(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), &Input{
		TransitionID: "t-2",
		CurrentRole:  "Teacher",
		TargetRole:   "Instructional Designer",
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, output.Score.OverallScore, 0)
	assert.LessOrEqual(t, output.Score.OverallScore, 100)
	assert.NotEmpty(t, output.Score.Recommendations.SkillDevelopment)
	assert.NotEmpty(t, output.Score.Recommendations.NextSteps)
}
