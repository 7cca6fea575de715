// internal/stages/readiness-scorer/handler.go
package readinessscorer

import (
	"context"
	"math"
	"time"

	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"
)

const StageName = "metrics"

// SignalFunc is an optional external market-data lookup for the geography
// sub-score. A nil func or a lookup failure degrades that sub-score to the
// configured neutral default instead of failing the stage.
type SignalFunc func(ctx context.Context, currentRole, targetRole string) (int, error)

type Handler struct {
	config *Config
	signal SignalFunc
	logger logger.Logger
}

func NewHandler(config *Config, signal SignalFunc, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		signal: signal,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute derives the five sub-scores from the accumulated artifacts (plus
// the optional external geography signal) and combines them with the
// configured weights.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := models.SubScores{
		MarketDemand:     h.marketDemand(input),
		SkillGapSeverity: h.skillGapSeverity(input),
		EducationPaths:   h.educationPaths(input),
		IndustryTrend:    h.industryTrend(input),
		Geography:        h.geography(ctx, input),
	}

	w := h.config.Weights
	overall := w.MarketDemand*float64(sub.MarketDemand) +
		w.SkillGapSeverity*float64(sub.SkillGapSeverity) +
		w.EducationPaths*float64(sub.EducationPaths) +
		w.IndustryTrend*float64(sub.IndustryTrend) +
		w.Geography*float64(sub.Geography)

	score := models.ReadinessScore{
		TransitionID:    input.TransitionID,
		OverallScore:    clamp(int(math.Round(overall))),
		SubScores:       sub,
		Recommendations: h.buildRecommendations(input, sub),
		ComputedAt:      time.Now().UTC(),
	}

	h.logger.Info("readiness computed", map[string]interface{}{
		"transitionId": input.TransitionID,
		"overallScore": score.OverallScore,
	})

	return &Output{Score: score}, nil
}

// marketDemand rises with the volume of retrieved narratives: more people
// visibly making this transition means a livelier market for it.
func (h *Handler) marketDemand(input *Input) int {
	if len(input.Narratives) == 0 {
		return h.config.NeutralScore
	}
	return clamp(40 + len(input.Narratives)*4)
}

// skillGapSeverity is the inverse of the aggregate gap weight: a long list
// of high gaps pushes the score toward zero.
func (h *Handler) skillGapSeverity(input *Input) int {
	if len(input.SkillGaps) == 0 {
		return 85
	}
	total := 0
	for _, gap := range input.SkillGaps {
		total += models.GapWeight(gap.GapLevel)
	}
	return clamp(100 - total*8)
}

// educationPaths reflects how learnable the transition looks: concrete
// plan milestones with resources and predominance of Low/Medium gaps both
// indicate available paths.
func (h *Handler) educationPaths(input *Input) int {
	score := h.config.NeutralScore
	for _, m := range input.Plan.Milestones {
		score += 5
		if len(m.Resources) > 0 {
			score += 2
		}
	}
	for _, gap := range input.SkillGaps {
		if gap.GapLevel != models.GapHigh {
			score += 2
		}
	}
	return clamp(score)
}

// industryTrend reads sentiment from the insight mix: observations and
// success stories lift it, challenges drag it down.
func (h *Handler) industryTrend(input *Input) int {
	score := h.config.NeutralScore
	for _, ins := range input.Insights {
		switch ins.Type {
		case models.InsightChallenge:
			score -= 3
		default:
			score += 2
		}
	}
	return clamp(score)
}

func (h *Handler) geography(ctx context.Context, input *Input) int {
	if h.signal == nil {
		return h.config.NeutralScore
	}

	signalCtx, cancel := context.WithTimeout(ctx, h.config.SignalTimeout)
	defer cancel()

	value, err := h.signal(signalCtx, input.CurrentRole, input.TargetRole)
	if err != nil {
		h.logger.Warn("geography signal failed, using neutral default", map[string]interface{}{
			"error": err.Error(),
		})
		return h.config.NeutralScore
	}
	return clamp(value)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
