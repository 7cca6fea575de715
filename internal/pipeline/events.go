// internal/pipeline/events.go
package pipeline

import "time"

// Stage identifies one phase of the analysis pipeline.
type Stage string

const (
	StageStories  Stage = "stories"
	StageInsights Stage = "insights"
	StageSkills   Stage = "skills"
	StagePlan     Stage = "plan"
	StageMetrics  Stage = "metrics"
)

// stageOrder is the fixed forward sequence; no stage re-enters an earlier
// one.
var stageOrder = []Stage{StageStories, StageInsights, StageSkills, StagePlan, StageMetrics}

// State is the run-level state. Non-terminal states mirror the stage
// currently executing.
type State string

const (
	StateIdle      State = "idle"
	StateStories   State = "stories"
	StateInsights  State = "insights"
	StateSkills    State = "skills"
	StatePlan      State = "plan"
	StateMetrics   State = "metrics"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateCancelled
}

// EventStatus is the status carried by a StageEvent.
type EventStatus string

const (
	EventStarted   EventStatus = "started"
	EventCompleted EventStatus = "completed"
	EventFailed    EventStatus = "failed"
)

// StageEvent is one entry in a run's progress stream. Completed events
// carry the stage's artifact so subscribers can render partial results.
type StageEvent struct {
	Stage     Stage       `json:"stage"`
	Status    EventStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Artifact  interface{} `json:"artifact,omitempty"`
}
