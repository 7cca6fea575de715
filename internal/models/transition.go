// internal/models/transition.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Transition identifies one career-change analysis run.
type Transition struct {
	ID          string    `json:"id"`
	CurrentRole string    `json:"currentRole"`
	TargetRole  string    `json:"targetRole"`
	CreatedAt   time.Time `json:"createdAt"`
	IsComplete  bool      `json:"isComplete"`
}

// NewTransition allocates a Transition identity for a role pair.
func NewTransition(currentRole, targetRole string) Transition {
	return Transition{
		ID:          uuid.NewString(),
		CurrentRole: currentRole,
		TargetRole:  targetRole,
		CreatedAt:   time.Now().UTC(),
	}
}

// ArtifactBundle is the final output of a completed analysis run.
type ArtifactBundle struct {
	Transition   Transition      `json:"transition"`
	Narratives   []ScrapedData   `json:"narratives"`
	Insights     []Insight       `json:"insights"`
	SkillGaps    []SkillGap      `json:"skillGaps"`
	Plan         *Plan           `json:"plan"`
	Readiness    *ReadinessScore `json:"readinessScore"`
	ScrapedCount int             `json:"scrapedCount"`
}
