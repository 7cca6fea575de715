// internal/models/skillgap.go
package models

// GapLevel classifies how severe a skill deficiency is.
type GapLevel string

const (
	GapLow    GapLevel = "Low"
	GapMedium GapLevel = "Medium"
	GapHigh   GapLevel = "High"
)

// GapWeight maps a gap level to its numeric severity weight.
func GapWeight(level GapLevel) int {
	switch level {
	case GapHigh:
		return 3
	case GapMedium:
		return 2
	default:
		return 1
	}
}

// SkillGap is one ranked deficiency between current and target-role skills.
// SkillName is unique within a Transition.
type SkillGap struct {
	SkillName       string   `json:"skillName"`
	GapLevel        GapLevel `json:"gapLevel"`
	ConfidenceScore float64  `json:"confidenceScore,omitempty"`
	MentionCount    int      `json:"mentionCount,omitempty"`
}
