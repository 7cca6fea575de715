// internal/models/plan.go
package models

// Priority classifies milestone and recommendation importance.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Plan is the milestone development plan for one Transition.
// Created once; milestones are immutable after creation (progress is
// mutated by an external collaborator, not the pipeline).
type Plan struct {
	TransitionID string      `json:"transitionId"`
	Milestones   []Milestone `json:"milestones"`
}

// Milestone is one actionable step in a Plan. Order is unique per Plan
// and forms a contiguous 0-based sequence.
type Milestone struct {
	Order         int        `json:"order"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Priority      Priority   `json:"priority"`
	DurationWeeks int        `json:"durationWeeks"`
	Progress      int        `json:"progress"`
	Resources     []Resource `json:"resources,omitempty"`
}

// Resource belongs to exactly one Milestone.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Type  string `json:"type,omitempty"`
}
