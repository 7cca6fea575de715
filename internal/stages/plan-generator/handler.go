// internal/stages/plan-generator/handler.go
package plangenerator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"
)

const StageName = "plan"

const planSchema = `{
	"oneOf": [
		{"$ref": "#/definitions/milestoneArray"},
		{
			"type": "object",
			"properties": {
				"milestones": {"$ref": "#/definitions/milestoneArray"},
				"plan": {"$ref": "#/definitions/milestoneArray"}
			}
		}
	],
	"definitions": {
		"milestoneArray": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description", "priority", "durationWeeks"],
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"},
					"priority": {"type": "string"},
					"durationWeeks": {"type": "integer"}
				}
			}
		}
	}
}`

type Generator interface {
	GenerateJSON(ctx context.Context, req *genai.Request, schema string) (json.RawMessage, error)
}

type Handler struct {
	config *Config
	gen    Generator
	logger logger.Logger
}

func NewHandler(config *Config, gen Generator, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		gen:    gen,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute produces a milestone plan for the top skill gaps. Any failure of
// the generation path degrades to the fixed fallback plan; this stage
// never returns an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	planCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	raw, err := h.gen.GenerateJSON(planCtx, &genai.Request{Prompt: h.buildPrompt(input)}, planSchema)
	if err != nil {
		h.logger.Warn("plan generation failed, using fallback", map[string]interface{}{
			"transitionId": input.TransitionID,
			"error":        err.Error(),
		})
		return &Output{Plan: fallbackPlan(input.TransitionID), Fallback: true}, nil
	}

	milestones := h.validate(h.unwrap(raw))
	if len(milestones) == 0 {
		h.logger.Warn("generated plan validated to empty, using fallback", map[string]interface{}{
			"transitionId": input.TransitionID,
		})
		return &Output{Plan: fallbackPlan(input.TransitionID), Fallback: true}, nil
	}

	h.logger.Info("plan generated", map[string]interface{}{
		"transitionId": input.TransitionID,
		"milestones":   len(milestones),
	})

	return &Output{Plan: models.Plan{TransitionID: input.TransitionID, Milestones: milestones}}, nil
}

func (h *Handler) buildPrompt(input *Input) string {
	topK := h.config.TopSkills
	if topK > len(input.SkillGaps) {
		topK = len(input.SkillGaps)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a development plan for someone moving from %s to %s.\n", input.CurrentRole, input.TargetRole)

	if topK > 0 {
		b.WriteString("The plan must address these skill gaps, most severe first:\n")
		for _, gap := range input.SkillGaps[:topK] {
			fmt.Fprintf(&b, "- %s (gap: %s, mentioned %d times)\n", gap.SkillName, gap.GapLevel, gap.MentionCount)
		}
	} else {
		b.WriteString("No specific skill gaps were identified; produce role-generic guidance for the target role.\n")
	}

	fmt.Fprintf(&b, "\nRespond with a JSON array of %d to %d milestone objects, ordered by dependency and priority. ", h.config.MinMilestones, h.config.MaxMilestones)
	fmt.Fprintf(&b, `Each object has "title", "description", "priority" (Low, Medium, or High), and "durationWeeks" (an integer from %d to %d).`, h.config.MinDurationWeeks, h.config.MaxDurationWeeks)
	return b.String()
}

// unwrap accepts either a bare array or an object wrapping it under a
// known key.
func (h *Handler) unwrap(raw json.RawMessage) []milestonePayload {
	var payloads []milestonePayload
	if err := json.Unmarshal(raw, &payloads); err == nil {
		return payloads
	}

	var wrapper milestoneWrapper
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	if len(wrapper.Milestones) > 0 {
		return wrapper.Milestones
	}
	return wrapper.Plan
}

// parsePriority normalizes a priority string onto the enum, returning ""
// for anything unrecognized.
func parsePriority(raw string) models.Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return models.PriorityLow
	case "medium":
		return models.PriorityMedium
	case "high":
		return models.PriorityHigh
	default:
		return ""
	}
}

// validate drops malformed milestones rather than replacing them, then
// assigns contiguous 0-based order.
func (h *Handler) validate(payloads []milestonePayload) []models.Milestone {
	var milestones []models.Milestone
	for _, p := range payloads {
		title := strings.TrimSpace(p.Title)
		description := strings.TrimSpace(p.Description)
		priority := parsePriority(p.Priority)

		switch {
		case title == "" || description == "":
			continue
		case priority == "":
			continue
		case p.DurationWeeks < h.config.MinDurationWeeks || p.DurationWeeks > h.config.MaxDurationWeeks:
			continue
		}

		milestones = append(milestones, models.Milestone{
			Order:         len(milestones),
			Title:         title,
			Description:   description,
			Priority:      priority,
			DurationWeeks: p.DurationWeeks,
			Progress:      0,
		})
		if len(milestones) == h.config.MaxMilestones {
			break
		}
	}
	return milestones
}
