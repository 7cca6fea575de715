// internal/stages/plan-generator/models.go
package plangenerator

import "careerpath-engine/internal/models"

type Input struct {
	TransitionID string            `json:"transitionId"`
	CurrentRole  string            `json:"currentRole"`
	TargetRole   string            `json:"targetRole"`
	SkillGaps    []models.SkillGap `json:"skillGaps"`
}

type Output struct {
	Plan     models.Plan `json:"plan"`
	Fallback bool        `json:"fallback"`
}

type milestonePayload struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	DurationWeeks int    `json:"durationWeeks"`
}

// wrapper covers providers that wrap the milestone array in an object.
type milestoneWrapper struct {
	Milestones []milestonePayload `json:"milestones"`
	Plan       []milestonePayload `json:"plan"`
}
