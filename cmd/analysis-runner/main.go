// cmd/analysis-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"careerpath-engine/internal/common/config"
	"careerpath-engine/internal/common/database"
	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/common/observability"
	"careerpath-engine/internal/pipeline"
	insightextractor "careerpath-engine/internal/stages/insight-extractor"
	plangenerator "careerpath-engine/internal/stages/plan-generator"
	readinessscorer "careerpath-engine/internal/stages/readiness-scorer"
	skillgapanalyzer "careerpath-engine/internal/stages/skill-gap-analyzer"
	sourceretriever "careerpath-engine/internal/stages/source-retriever"
	"careerpath-engine/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: analysis-runner <current-role> <target-role>")
		os.Exit(2)
	}
	currentRole, targetRole := os.Args[1], os.Args[2]

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting analysis runner...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("analysis-runner")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL (optional, persistence collaborator) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Warn("postgres unavailable, bundle will not be persisted", zap.Error(err))
			pg = nil
		} else {
			defer pg.Close()
			zapLog.Info("PostgreSQL connected successfully")
		}
	}

	// --- Init Elasticsearch (optional, narrative archive) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.GetURL() != "" {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, narratives will not be archived", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init Redis (optional, retrieval query cache) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, query caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Text service client, shared by all stages ---
	genaiClient := genai.NewClient(&genai.Config{
		BaseURL:          cfg.GenAI.BaseURL,
		APIKey:           cfg.GenAI.APIKey,
		Model:            cfg.GenAI.Model,
		MaxTokens:        cfg.GenAI.MaxTokens,
		Temperature:      cfg.GenAI.Temperature,
		Timeout:          config.GetDuration(cfg.GenAI.Timeout),
		ConcurrencyLimit: cfg.GenAI.ConcurrencyLimit,
		MaxRetries:       cfg.GenAI.MaxRetries,
	}, log)

	// --- Stage handlers ---
	var queryCache sourceretriever.Cache
	if redisClient != nil {
		queryCache = redisClient
	}

	retriever := sourceretriever.NewHandler(&sourceretriever.Config{
		QueryCount:    cfg.Pipeline.QueryCount,
		Concurrency:   cfg.Pipeline.RetrieverConcurrency,
		MaxNarratives: cfg.Pipeline.MaxNarratives,
		QueryTimeout:  config.GetDuration(cfg.Pipeline.QueryTimeout),
		CacheTTL:      config.GetTTL(cfg.Pipeline.CacheTTL),
	}, genaiClient, queryCache, log)

	extractor := insightextractor.NewHandler(&insightextractor.Config{
		Concurrency:    cfg.Pipeline.ExtractorConcurrency,
		ExtractTimeout: config.GetDuration(cfg.Pipeline.ExtractTimeout),
	}, genaiClient, log)

	analyzer := skillgapanalyzer.NewHandler(&skillgapanalyzer.Config{
		HighMentionThreshold: cfg.Skills.HighMentionThreshold,
		LowMentionThreshold:  cfg.Skills.LowMentionThreshold,
		ConfidenceThreshold:  cfg.Skills.ConfidenceThreshold,
		MaxSkills:            cfg.Skills.MaxSkills,
	}, log)

	planner := plangenerator.NewHandler(&plangenerator.Config{
		TopSkills:        cfg.Plan.TopSkills,
		MinMilestones:    cfg.Plan.MinMilestones,
		MaxMilestones:    cfg.Plan.MaxMilestones,
		MinDurationWeeks: cfg.Plan.MinDurationWeeks,
		MaxDurationWeeks: cfg.Plan.MaxDurationWeeks,
		Timeout:          config.GetDuration(cfg.Pipeline.PlanTimeout),
	}, genaiClient, log)

	var geoSignal readinessscorer.SignalFunc
	if cfg.Scoring.GeoSignal {
		geoSignal = geographySignal(genaiClient)
	}

	scorer := readinessscorer.NewHandler(&readinessscorer.Config{
		Weights: readinessscorer.Weights{
			MarketDemand:     cfg.Scoring.Weights.MarketDemand,
			SkillGapSeverity: cfg.Scoring.Weights.SkillGapSeverity,
			EducationPaths:   cfg.Scoring.Weights.EducationPaths,
			IndustryTrend:    cfg.Scoring.Weights.IndustryTrend,
			Geography:        cfg.Scoring.Weights.Geography,
		},
		NeutralScore:  cfg.Scoring.NeutralScore,
		SignalTimeout: config.GetDuration(cfg.Scoring.SignalTimeout),
	}, geoSignal, log)

	orchestrator := pipeline.NewOrchestrator(&pipeline.Config{
		MaxRoleLength:   cfg.Pipeline.MaxRoleLength,
		EventBuffer:     cfg.Pipeline.EventBuffer,
		StoriesTimeout:  config.GetDuration(cfg.Pipeline.StoriesTimeout),
		InsightsTimeout: config.GetDuration(cfg.Pipeline.InsightsTimeout),
		SkillsTimeout:   config.GetDuration(cfg.Pipeline.SkillsTimeout),
		PlanTimeout:     config.GetDuration(cfg.Pipeline.PlanTimeout),
		MetricsTimeout:  config.GetDuration(cfg.Pipeline.MetricsTimeout),
	}, retriever, extractor, analyzer, planner, scorer, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Run one analysis ---
	started := time.Now()
	run, err := orchestrator.Start(currentRole, targetRole)
	if err != nil {
		zapLog.Fatal("run rejected", zap.Error(err))
	}

	// SIGINT/SIGTERM cancels the run cooperatively
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		zapLog.Info("Shutdown signal received, cancelling run...")
		orchestrator.Cancel(run)
	}()

	for event := range orchestrator.Subscribe(run) {
		zapLog.Info("stage event",
			zap.String("stage", string(event.Stage)),
			zap.String("status", string(event.Status)),
			zap.Time("timestamp", event.Timestamp),
		)
	}

	bundle, err := orchestrator.Result(ctx, run)
	obs.RecordRunDuration(ctx, time.Since(started), string(run.State()))
	if err != nil {
		obs.RecordRunProcessed(ctx, string(run.State()))
		zapLog.Error("run did not complete",
			zap.String("state", string(run.State())),
			zap.String("failedStage", string(run.FailedStage())),
			zap.Error(err))
		os.Exit(1)
	}
	obs.RecordRunProcessed(ctx, string(run.State()))

	zapLog.Info("analysis complete",
		zap.String("transitionId", bundle.Transition.ID),
		zap.Int("narratives", bundle.ScrapedCount),
		zap.Int("insights", len(bundle.Insights)),
		zap.Int("skillGaps", len(bundle.SkillGaps)),
		zap.Int("milestones", len(bundle.Plan.Milestones)),
		zap.Int("overallScore", bundle.Readiness.OverallScore),
	)

	// --- Persist artifacts ---
	if pg != nil {
		bundleStore := store.NewBundleStore(pg.DB, log)
		if err := bundleStore.SaveBundle(ctx, bundle); err != nil {
			zapLog.Error("bundle persistence failed", zap.Error(err))
		}
	}
	if esClient != nil {
		archive := store.NewNarrativeArchive(esClient, log)
		if err := archive.IndexNarratives(ctx, bundle.Transition, bundle.Narratives); err != nil {
			zapLog.Error("narrative archiving failed", zap.Error(err))
		}
	}

	encoded, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		zapLog.Fatal("bundle encoding failed", zap.Error(err))
	}
	fmt.Println(string(encoded))
}

// geographySignal asks the text service for a 0-100 relocation/remote
// friendliness estimate for the role pair. Failures degrade to the
// neutral default inside the scorer.
func geographySignal(client *genai.Client) readinessscorer.SignalFunc {
	const signalSchema = `{
		"type": "object",
		"required": ["score"],
		"properties": {"score": {"type": "integer", "minimum": 0, "maximum": 100}}
	}`

	return func(ctx context.Context, currentRole, targetRole string) (int, error) {
		prompt := fmt.Sprintf(
			`Rate from 0 to 100 how geographically flexible the move from %s to %s is, considering remote work availability and how concentrated the target roles are in major hubs. Respond with JSON: {"score": <integer>}.`,
			currentRole, targetRole)

		raw, err := client.GenerateJSON(ctx, &genai.Request{Prompt: prompt}, signalSchema)
		if err != nil {
			return 0, err
		}

		var payload struct {
			Score int `json:"score"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return 0, err
		}
		return payload.Score, nil
	}
}
