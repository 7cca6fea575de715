// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"careerpath-engine/internal/common/errors"
	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/common/metrics"
	"careerpath-engine/internal/models"
	insightextractor "careerpath-engine/internal/stages/insight-extractor"
	plangenerator "careerpath-engine/internal/stages/plan-generator"
	readinessscorer "careerpath-engine/internal/stages/readiness-scorer"
	skillgapanalyzer "careerpath-engine/internal/stages/skill-gap-analyzer"
	sourceretriever "careerpath-engine/internal/stages/source-retriever"
)

// Stage collaborators, defined here so the orchestrator can be exercised
// against fakes.
type SourceRetriever interface {
	Execute(ctx context.Context, input *sourceretriever.Input) (*sourceretriever.Output, error)
}

type InsightExtractor interface {
	Execute(ctx context.Context, input *insightextractor.Input) (*insightextractor.Output, error)
}

type SkillGapAnalyzer interface {
	Execute(ctx context.Context, input *skillgapanalyzer.Input) (*skillgapanalyzer.Output, error)
}

type PlanGenerator interface {
	Execute(ctx context.Context, input *plangenerator.Input) (*plangenerator.Output, error)
}

type ReadinessScorer interface {
	Execute(ctx context.Context, input *readinessscorer.Input) (*readinessscorer.Output, error)
}

type Config struct {
	MaxRoleLength   int
	EventBuffer     int
	StoriesTimeout  time.Duration
	InsightsTimeout time.Duration
	SkillsTimeout   time.Duration
	PlanTimeout     time.Duration
	MetricsTimeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxRoleLength:   120,
		EventBuffer:     16,
		StoriesTimeout:  60 * time.Second,
		InsightsTimeout: 90 * time.Second,
		SkillsTimeout:   10 * time.Second,
		PlanTimeout:     45 * time.Second,
		MetricsTimeout:  30 * time.Second,
	}
}

func (c *Config) stageTimeout(stage Stage) time.Duration {
	switch stage {
	case StageStories:
		return c.StoriesTimeout
	case StageInsights:
		return c.InsightsTimeout
	case StageSkills:
		return c.SkillsTimeout
	case StagePlan:
		return c.PlanTimeout
	default:
		return c.MetricsTimeout
	}
}

// Orchestrator drives the five stages in strict sequence and owns all
// per-run state. One orchestrator serves many concurrent runs; runs never
// share state with each other.
type Orchestrator struct {
	config    *Config
	retriever SourceRetriever
	extractor InsightExtractor
	analyzer  SkillGapAnalyzer
	planner   PlanGenerator
	scorer    ReadinessScorer
	logger    logger.Logger
}

func NewOrchestrator(
	config *Config,
	retriever SourceRetriever,
	extractor InsightExtractor,
	analyzer SkillGapAnalyzer,
	planner PlanGenerator,
	scorer ReadinessScorer,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:    config,
		retriever: retriever,
		extractor: extractor,
		analyzer:  analyzer,
		planner:   planner,
		scorer:    scorer,
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Start validates the role pair, allocates a Transition, and begins the
// run asynchronously. It never blocks on pipeline work.
func (o *Orchestrator) Start(currentRole, targetRole string) (*Run, error) {
	current := strings.TrimSpace(currentRole)
	target := strings.TrimSpace(targetRole)

	switch {
	case current == "":
		return nil, errors.NewInvalidInputError("currentRole must not be empty")
	case target == "":
		return nil, errors.NewInvalidInputError("targetRole must not be empty")
	case len(current) > o.config.MaxRoleLength:
		return nil, errors.NewInvalidInputError("currentRole exceeds maximum length")
	case len(target) > o.config.MaxRoleLength:
		return nil, errors.NewInvalidInputError("targetRole exceeds maximum length")
	}

	transition := models.NewTransition(current, target)
	ctx, cancel := context.WithCancel(context.Background())
	run := newRun(transition, cancel, o.config.EventBuffer)

	metrics.PipelineRunsStarted.Inc()
	metrics.PipelineRunsActive.Inc()

	o.logger.Info("run started", map[string]interface{}{
		"transitionId": transition.ID,
		"currentRole":  current,
		"targetRole":   target,
	})

	go o.execute(ctx, run)

	return run, nil
}

// Subscribe returns the run's finite, order-preserving event stream. The
// channel closes once the run reaches a terminal state.
func (o *Orchestrator) Subscribe(run *Run) <-chan StageEvent {
	return run.events
}

// Cancel requests cooperative cancellation. Stages observe it at stage
// boundaries and before each external call; artifacts already committed
// stay committed.
func (o *Orchestrator) Cancel(run *Run) {
	run.cancel()
}

// Result blocks until the run is terminal and returns the full bundle or
// the run-level error.
func (o *Orchestrator) Result(ctx context.Context, run *Run) (*models.ArtifactBundle, error) {
	select {
	case <-run.done:
		return run.result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	defer metrics.PipelineRunsActive.Dec()
	defer close(run.events)
	defer run.cancel()

	bundle := &models.ArtifactBundle{Transition: run.Transition()}

	for _, stage := range stageOrder {
		// cancellation is guaranteed at stage boundaries
		if ctx.Err() != nil {
			o.finishCancelled(run, stage)
			return
		}

		run.setState(State(stage))
		o.emit(run, StageEvent{Stage: stage, Status: EventStarted, Timestamp: time.Now().UTC()})

		stageCtx, cancel := context.WithTimeout(ctx, o.config.stageTimeout(stage))
		artifact, err := o.runStage(stageCtx, stage, run, bundle)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				o.finishCancelled(run, stage)
				return
			}
			o.finishFailed(run, stage, err)
			return
		}

		metrics.PipelineStagesCompleted.WithLabelValues(string(stage)).Inc()
		o.emit(run, StageEvent{Stage: stage, Status: EventCompleted, Timestamp: time.Now().UTC(), Artifact: artifact})
	}

	if ctx.Err() != nil {
		o.finishCancelled(run, StageMetrics)
		return
	}

	run.finish(StateComplete, "", bundle, nil)
	o.logger.Info("run complete", map[string]interface{}{
		"transitionId": run.ID(),
		"narratives":   bundle.ScrapedCount,
		"overallScore": bundle.Readiness.OverallScore,
	})
}

// runStage executes one stage against the accumulated bundle and commits
// its artifact. Artifacts are fully materialized before the next stage
// reads them.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, run *Run, bundle *models.ArtifactBundle) (interface{}, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}()

	transition := bundle.Transition

	switch stage {
	case StageStories:
		out, err := o.retriever.Execute(ctx, &sourceretriever.Input{
			TransitionID: transition.ID,
			CurrentRole:  transition.CurrentRole,
			TargetRole:   transition.TargetRole,
		})
		if err != nil {
			return nil, err
		}
		bundle.Narratives = out.Narratives
		bundle.ScrapedCount = len(out.Narratives)
		return out.Narratives, nil

	case StageInsights:
		out, err := o.extractor.Execute(ctx, &insightextractor.Input{
			TransitionID: transition.ID,
			CurrentRole:  transition.CurrentRole,
			TargetRole:   transition.TargetRole,
			Narratives:   bundle.Narratives,
		})
		if err != nil {
			return nil, err
		}
		bundle.Insights = out.Insights
		return out.Insights, nil

	case StageSkills:
		out, err := o.analyzer.Execute(ctx, &skillgapanalyzer.Input{
			TransitionID: transition.ID,
			Narratives:   bundle.Narratives,
			Insights:     bundle.Insights,
		})
		if err != nil {
			return nil, err
		}
		bundle.SkillGaps = out.SkillGaps
		return out.SkillGaps, nil

	case StagePlan:
		out, err := o.planner.Execute(ctx, &plangenerator.Input{
			TransitionID: transition.ID,
			CurrentRole:  transition.CurrentRole,
			TargetRole:   transition.TargetRole,
			SkillGaps:    bundle.SkillGaps,
		})
		if err != nil {
			// the planner has a deterministic fallback and should never
			// fail; if it somehow does, degrade rather than fail the run
			o.logger.Error("planner returned error despite fallback", map[string]interface{}{
				"transitionId": transition.ID,
				"error":        err.Error(),
			})
			out = &plangenerator.Output{
				Plan:     models.Plan{TransitionID: transition.ID, Milestones: plangenerator.FallbackMilestones},
				Fallback: true,
			}
		}
		plan := out.Plan
		bundle.Plan = &plan
		return bundle.Plan, nil

	default: // StageMetrics
		out, err := o.scorer.Execute(ctx, &readinessscorer.Input{
			TransitionID: transition.ID,
			CurrentRole:  transition.CurrentRole,
			TargetRole:   transition.TargetRole,
			Narratives:   bundle.Narratives,
			Insights:     bundle.Insights,
			SkillGaps:    bundle.SkillGaps,
			Plan:         *bundle.Plan,
		})
		if err != nil {
			return nil, err
		}
		score := out.Score
		bundle.Readiness = &score
		return bundle.Readiness, nil
	}
}

func (o *Orchestrator) emit(run *Run, event StageEvent) {
	// the buffer is sized to hold a full run's events, so this never blocks
	select {
	case run.events <- event:
	default:
		o.logger.Warn("event buffer full, dropping event", map[string]interface{}{
			"transitionId": run.ID(),
			"stage":        string(event.Stage),
		})
	}
}

func (o *Orchestrator) finishFailed(run *Run, stage Stage, cause error) {
	stageErr := errors.NewStageFailedError(string(stage), normalizeCause(cause))

	metrics.PipelineStagesFailed.WithLabelValues(string(stage), stageErr.Details).Inc()
	o.emit(run, StageEvent{Stage: stage, Status: EventFailed, Timestamp: time.Now().UTC()})

	o.logger.Error("run failed", map[string]interface{}{
		"transitionId": run.ID(),
		"stage":        string(stage),
		"cause":        stageErr.Details,
	})

	run.finish(StateFailed, stage, nil, stageErr)
}

func (o *Orchestrator) finishCancelled(run *Run, stage Stage) {
	o.logger.Info("run cancelled", map[string]interface{}{
		"transitionId": run.ID(),
		"stage":        string(stage),
	})
	run.finish(StateCancelled, "", nil, errors.NewCancelledError(string(stage)))
}

// normalizeCause maps stage sentinels and provider errors onto the
// standard taxonomy so run-level failures carry a category, never raw
// provider text.
func normalizeCause(err error) error {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return err
	}
	switch {
	case stderrors.Is(err, sourceretriever.ErrNoSourcesFound):
		return &errors.StandardError{Code: errors.ErrCodeNoSourcesFound, Message: err.Error(), Timestamp: time.Now().UTC()}
	case stderrors.Is(err, genai.ErrTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewGenerationTimeoutError("stage")
	case stderrors.Is(err, genai.ErrAuth):
		return errors.NewAuthError(err.Error())
	case stderrors.Is(err, genai.ErrRateLimited):
		return errors.NewRateLimitedError(err.Error())
	case stderrors.Is(err, genai.ErrMalformedResponse):
		return errors.NewMalformedResponseError(err.Error())
	default:
		return err
	}
}
