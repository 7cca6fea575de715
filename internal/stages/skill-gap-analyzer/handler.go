// internal/stages/skill-gap-analyzer/handler.go
package skillgapanalyzer

import (
	"context"
	"math"
	"sort"

	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/common/textutil"
	"careerpath-engine/internal/models"
)

const StageName = "skills"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute builds a normalized skill frequency table from narrative keyword
// sets and insight text, scores each candidate, and returns the ranked gap
// list. Zero candidates is a valid result.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make(map[string]*candidate)

	record := func(rawSkill, source string) {
		name := textutil.NormalizeSkill(rawSkill)
		if name == "" {
			return
		}
		c, ok := candidates[name]
		if !ok {
			c = &candidate{sources: make(map[string]bool)}
			candidates[name] = c
		}
		c.mentions++
		if source != "" {
			c.sources[source] = true
		}
	}

	for _, n := range input.Narratives {
		for _, skill := range n.SkillsExtracted {
			record(skill, n.Source)
		}
	}
	for _, ins := range input.Insights {
		for _, skill := range textutil.ExtractSkills(ins.Content) {
			record(skill, ins.Source)
		}
	}

	gaps := make([]models.SkillGap, 0, len(candidates))
	for name, c := range candidates {
		confidence := h.confidence(c.mentions, len(c.sources))
		gaps = append(gaps, models.SkillGap{
			SkillName:       name,
			GapLevel:        h.classify(c.mentions, confidence),
			ConfidenceScore: confidence,
			MentionCount:    c.mentions,
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].GapLevel != gaps[j].GapLevel {
			return models.GapWeight(gaps[i].GapLevel) > models.GapWeight(gaps[j].GapLevel)
		}
		if gaps[i].MentionCount != gaps[j].MentionCount {
			return gaps[i].MentionCount > gaps[j].MentionCount
		}
		return gaps[i].SkillName < gaps[j].SkillName
	})

	if len(gaps) > h.config.MaxSkills {
		gaps = gaps[:h.config.MaxSkills]
	}

	h.logger.Info("skill gaps ranked", map[string]interface{}{
		"transitionId": input.TransitionID,
		"candidates":   len(candidates),
		"kept":         len(gaps),
	})

	return &Output{SkillGaps: gaps}, nil
}

// confidence grows with distinct corroborating sources (diminishing
// returns) and, to a lesser degree, with raw mention volume.
func (h *Handler) confidence(mentions, distinctSources int) float64 {
	sourceSignal := 1.0 - math.Pow(0.7, float64(distinctSources))
	mentionSignal := math.Min(1.0, float64(mentions)/float64(h.config.HighMentionThreshold))
	score := 0.7*sourceSignal + 0.3*mentionSignal
	return math.Round(score*100) / 100
}

func (h *Handler) classify(mentions int, confidence float64) models.GapLevel {
	switch {
	case mentions >= h.config.HighMentionThreshold && confidence >= h.config.ConfidenceThreshold:
		return models.GapHigh
	case mentions < h.config.LowMentionThreshold:
		return models.GapLow
	default:
		return models.GapMedium
	}
}
