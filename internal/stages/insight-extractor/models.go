// internal/stages/insight-extractor/models.go
package insightextractor

import "careerpath-engine/internal/models"

type Input struct {
	TransitionID string               `json:"transitionId"`
	CurrentRole  string               `json:"currentRole"`
	TargetRole   string               `json:"targetRole"`
	Narratives   []models.ScrapedData `json:"narratives"`
}

type Output struct {
	Insights  []models.Insight `json:"insights"`
	Processed int              `json:"processed"`
	Dropped   int              `json:"dropped"`
}

type insightPayload struct {
	Type            string  `json:"type"`
	Content         string  `json:"content"`
	Date            string  `json:"date,omitempty"`
	ExperienceYears float64 `json:"experienceYears,omitempty"`
}
