// internal/pipeline/run.go
package pipeline

import (
	"context"
	"sync"

	"careerpath-engine/internal/models"
)

// Run is the handle for one in-flight analysis. The orchestrator owns all
// mutation; callers observe it through Subscribe and Result.
type Run struct {
	transition models.Transition

	events chan StageEvent
	done   chan struct{}
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	failedStage Stage
	bundle      *models.ArtifactBundle
	err         error
}

func newRun(transition models.Transition, cancel context.CancelFunc, eventBuffer int) *Run {
	// the full event stream is at most two events per stage; the buffer
	// must hold all of them so slow subscribers never stall the pipeline
	minBuffer := 2*len(stageOrder) + 1
	if eventBuffer < minBuffer {
		eventBuffer = minBuffer
	}
	return &Run{
		transition: transition,
		events:     make(chan StageEvent, eventBuffer),
		done:       make(chan struct{}),
		cancel:     cancel,
		state:      StateIdle,
	}
}

func (r *Run) ID() string { return r.transition.ID }

func (r *Run) Transition() models.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition
}

// State returns the current run state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// FailedStage returns the stage a failed run stopped at, empty otherwise.
func (r *Run) FailedStage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failedStage
}

func (r *Run) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Run) finish(state State, failedStage Stage, bundle *models.ArtifactBundle, err error) {
	r.mu.Lock()
	r.state = state
	r.failedStage = failedStage
	r.bundle = bundle
	r.err = err
	if bundle != nil {
		// flip completion on both copies so the persisted bundle agrees
		// with the run handle
		r.transition.IsComplete = true
		bundle.Transition = r.transition
	}
	r.mu.Unlock()
	close(r.done)
}

func (r *Run) result() (*models.ArtifactBundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bundle, r.err
}
