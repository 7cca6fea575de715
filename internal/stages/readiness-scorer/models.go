// internal/stages/readiness-scorer/models.go
package readinessscorer

import "careerpath-engine/internal/models"

type Input struct {
	TransitionID string               `json:"transitionId"`
	CurrentRole  string               `json:"currentRole"`
	TargetRole   string               `json:"targetRole"`
	Narratives   []models.ScrapedData `json:"narratives"`
	Insights     []models.Insight     `json:"insights"`
	SkillGaps    []models.SkillGap    `json:"skillGaps"`
	Plan         models.Plan          `json:"plan"`
}

type Output struct {
	Score models.ReadinessScore `json:"score"`
}
