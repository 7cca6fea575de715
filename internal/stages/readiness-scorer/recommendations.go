// internal/stages/readiness-scorer/recommendations.go
package readinessscorer

import (
	"fmt"

	"careerpath-engine/internal/models"
)

// buildRecommendations fills the six fixed categories from the already
// computed gaps and sub-scores. No fresh external call is needed here.
func (h *Handler) buildRecommendations(input *Input, sub models.SubScores) models.Recommendations {
	recs := models.Recommendations{
		SkillDevelopment:   h.skillDevelopment(input),
		MarketPositioning:  h.marketPositioning(input, sub),
		EducationPaths:     h.educationPathItems(input),
		ExperienceBuilding: h.experienceBuilding(input),
		Networking:         h.networking(input),
		NextSteps:          h.nextSteps(input, sub),
	}
	return recs
}

func (h *Handler) skillDevelopment(input *Input) []models.Recommendation {
	var items []models.Recommendation
	for _, gap := range input.SkillGaps {
		if gap.GapLevel != models.GapHigh {
			continue
		}
		items = append(items, models.Recommendation{
			Title:       fmt.Sprintf("Close the %s gap", gap.SkillName),
			Description: fmt.Sprintf("%s came up %d times in transition stories; prioritize structured practice here.", gap.SkillName, gap.MentionCount),
			Priority:    models.PriorityHigh,
			Timeframe:   "1-2 months",
		})
		if len(items) == 3 {
			break
		}
	}
	if len(items) == 0 {
		items = append(items, models.Recommendation{
			Title:       "Deepen target-role fundamentals",
			Description: fmt.Sprintf("No severe skill gaps were detected; keep strengthening core %s skills.", input.TargetRole),
			Priority:    models.PriorityMedium,
			Timeframe:   "ongoing",
		})
	}
	return items
}

func (h *Handler) marketPositioning(input *Input, sub models.SubScores) []models.Recommendation {
	priority := models.PriorityMedium
	description := fmt.Sprintf("Reframe your %s experience in %s terms on your resume and profiles.", input.CurrentRole, input.TargetRole)
	if sub.MarketDemand < 50 {
		priority = models.PriorityHigh
		description += " Few transition stories were found, so differentiation matters more than usual."
	}
	return []models.Recommendation{{
		Title:       "Reposition your experience",
		Description: description,
		Priority:    priority,
		Timeframe:   "2 weeks",
	}}
}

func (h *Handler) educationPathItems(input *Input) []models.Recommendation {
	var items []models.Recommendation
	for _, m := range input.Plan.Milestones {
		if len(m.Resources) == 0 {
			continue
		}
		resources := make([]string, 0, len(m.Resources))
		for _, r := range m.Resources {
			resources = append(resources, r.Title)
		}
		items = append(items, models.Recommendation{
			Title:       m.Title,
			Description: m.Description,
			Priority:    m.Priority,
			Timeframe:   fmt.Sprintf("%d weeks", m.DurationWeeks),
			Resources:   resources,
		})
		if len(items) == 2 {
			break
		}
	}
	if len(items) == 0 {
		items = append(items, models.Recommendation{
			Title:       "Survey structured courses",
			Description: fmt.Sprintf("Compare courses and certifications aimed at %s roles before committing to one.", input.TargetRole),
			Priority:    models.PriorityMedium,
			Timeframe:   "1 week",
		})
	}
	return items
}

func (h *Handler) experienceBuilding(input *Input) []models.Recommendation {
	return []models.Recommendation{{
		Title:       "Build evidence in your current role",
		Description: fmt.Sprintf("Volunteer for work that overlaps with %s responsibilities so the transition story writes itself.", input.TargetRole),
		Priority:    models.PriorityHigh,
		Timeframe:   "1-3 months",
	}}
}

func (h *Handler) networking(input *Input) []models.Recommendation {
	description := fmt.Sprintf("Talk to people who already moved from %s to %s about what worked.", input.CurrentRole, input.TargetRole)
	if len(input.Narratives) > 0 {
		description = fmt.Sprintf("%d transition stories were found; reach out to authors of the most relevant ones.", len(input.Narratives))
	}
	return []models.Recommendation{{
		Title:       "Find people who made this move",
		Description: description,
		Priority:    models.PriorityMedium,
		Timeframe:   "2 weeks",
	}}
}

func (h *Handler) nextSteps(input *Input, sub models.SubScores) []models.Recommendation {
	first := models.Recommendation{
		Title:       "Start the first milestone",
		Description: "Begin with the highest-priority milestone in your development plan this week.",
		Priority:    models.PriorityHigh,
		Timeframe:   "this week",
	}
	if len(input.Plan.Milestones) > 0 {
		first.Description = fmt.Sprintf("Begin with %q from your development plan this week.", input.Plan.Milestones[0].Title)
	}

	items := []models.Recommendation{first}
	if sub.SkillGapSeverity < 40 {
		items = append(items, models.Recommendation{
			Title:       "Set a realistic timeline",
			Description: "The gap list is substantial; plan for a longer runway rather than rushing applications.",
			Priority:    models.PriorityMedium,
			Timeframe:   "this month",
		})
	}
	return items
}
