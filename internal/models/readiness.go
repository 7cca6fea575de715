// internal/models/readiness.go
package models

import "time"

// SubScores holds the five readiness sub-scores, each in [0, 100].
type SubScores struct {
	MarketDemand     int `json:"marketDemand"`
	SkillGapSeverity int `json:"skillGapSeverity"`
	EducationPaths   int `json:"educationPaths"`
	IndustryTrend    int `json:"industryTrend"`
	Geography        int `json:"geography"`
}

// Recommendation is one actionable recommendation item.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Timeframe   string   `json:"timeframe,omitempty"`
	Resources   []string `json:"resources,omitempty"`
}

// Recommendations groups recommendation items into six fixed categories.
type Recommendations struct {
	SkillDevelopment   []Recommendation `json:"skillDevelopment"`
	MarketPositioning  []Recommendation `json:"marketPositioning"`
	EducationPaths     []Recommendation `json:"educationPaths"`
	ExperienceBuilding []Recommendation `json:"experienceBuilding"`
	Networking         []Recommendation `json:"networking"`
	NextSteps          []Recommendation `json:"nextSteps"`
}

// ReadinessScore is the composite 0-100 transition feasibility assessment.
// One per Transition; replaced wholesale on recomputation.
type ReadinessScore struct {
	TransitionID    string          `json:"transitionId"`
	OverallScore    int             `json:"overallScore"`
	SubScores       SubScores       `json:"subScores"`
	Recommendations Recommendations `json:"recommendations"`
	ComputedAt      time.Time       `json:"computedAt"`
}
