// internal/stages/plan-generator/fallback.go
package plangenerator

import "careerpath-engine/internal/models"

// FallbackMilestones is the fixed generic plan used whenever generation
// fails or validates down to nothing. Kept apart from the generation path
// so it can be tested and swapped independently.
var FallbackMilestones = []models.Milestone{
	{
		Order:         0,
		Title:         "Learn core concepts",
		Description:   "Study the fundamental skills and domain knowledge the target role requires, using structured courses and official documentation.",
		Priority:      models.PriorityHigh,
		DurationWeeks: 4,
		Progress:      0,
		Resources: []models.Resource{
			{Title: "Coursera", URL: "https://www.coursera.org", Type: "course"},
			{Title: "edX", URL: "https://www.edx.org", Type: "course"},
		},
	},
	{
		Order:         1,
		Title:         "Practice via projects",
		Description:   "Apply the new skills in hands-on projects that mirror the day-to-day work of the target role, and build a portfolio from them.",
		Priority:      models.PriorityHigh,
		DurationWeeks: 6,
		Progress:      0,
		Resources: []models.Resource{
			{Title: "GitHub", URL: "https://github.com", Type: "practice"},
		},
	},
	{
		Order:         2,
		Title:         "Interview preparation",
		Description:   "Rehearse role-specific interview questions, refresh the resume around the new skills, and do mock interviews with peers.",
		Priority:      models.PriorityMedium,
		DurationWeeks: 3,
		Progress:      0,
		Resources: []models.Resource{
			{Title: "Glassdoor interview questions", URL: "https://www.glassdoor.com", Type: "reference"},
		},
	},
}

func fallbackPlan(transitionID string) models.Plan {
	milestones := make([]models.Milestone, len(FallbackMilestones))
	copy(milestones, FallbackMilestones)
	return models.Plan{TransitionID: transitionID, Milestones: milestones}
}
