// internal/stages/skill-gap-analyzer/models.go
package skillgapanalyzer

import "careerpath-engine/internal/models"

type Input struct {
	TransitionID string               `json:"transitionId"`
	Narratives   []models.ScrapedData `json:"narratives"`
	Insights     []models.Insight     `json:"insights"`
}

type Output struct {
	SkillGaps []models.SkillGap `json:"skillGaps"`
}

// candidate accumulates evidence for one normalized skill name.
type candidate struct {
	mentions int
	sources  map[string]bool
}
