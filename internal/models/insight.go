// internal/models/insight.go
package models

// InsightType classifies an extracted fact.
type InsightType string

const (
	InsightObservation InsightType = "observation"
	InsightChallenge   InsightType = "challenge"
	InsightStory       InsightType = "story"
)

// IsValidInsightType reports whether t is one of the three known types.
func IsValidInsightType(t InsightType) bool {
	switch t {
	case InsightObservation, InsightChallenge, InsightStory:
		return true
	}
	return false
}

// Insight is a structured fact extracted from one or more narratives.
// Immutable once created; many per Transition.
type Insight struct {
	Type            InsightType `json:"type"`
	Content         string      `json:"content"`
	Source          string      `json:"source,omitempty"`
	Date            string      `json:"date,omitempty"`
	ExperienceYears int         `json:"experienceYears,omitempty"`
	URL             string      `json:"url,omitempty"`
}
