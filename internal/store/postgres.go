// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"careerpath-engine/internal/common/errors"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"
)

// BundleStore persists completed artifact bundles. Writes are one-shot:
// one transaction per bundle, keyed by transition id. Read accessors for
// prior runs live with the serving layer, not here.
type BundleStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewBundleStore(db *sql.DB, log logger.Logger) *BundleStore {
	return &BundleStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "bundle-store"}),
	}
}

// SaveBundle writes the transition and all five artifacts in a single
// transaction so a reader never sees a half-persisted run.
func (s *BundleStore) SaveBundle(ctx context.Context, bundle *models.ArtifactBundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewPersistenceFailedError(err)
	}
	defer tx.Rollback()

	if err := s.insertTransition(ctx, tx, bundle); err != nil {
		return errors.NewPersistenceFailedError(err)
	}
	if err := s.insertNarratives(ctx, tx, bundle); err != nil {
		return errors.NewPersistenceFailedError(err)
	}
	if err := s.insertInsights(ctx, tx, bundle); err != nil {
		return errors.NewPersistenceFailedError(err)
	}
	if err := s.insertSkillGaps(ctx, tx, bundle); err != nil {
		return errors.NewPersistenceFailedError(err)
	}
	if err := s.insertPlan(ctx, tx, bundle); err != nil {
		return errors.NewPersistenceFailedError(err)
	}
	if err := s.insertReadiness(ctx, tx, bundle); err != nil {
		return errors.NewPersistenceFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewPersistenceFailedError(err)
	}

	s.logger.Info("bundle persisted", map[string]interface{}{
		"transitionId": bundle.Transition.ID,
		"narratives":   len(bundle.Narratives),
	})

	return nil
}

func (s *BundleStore) insertTransition(ctx context.Context, tx *sql.Tx, bundle *models.ArtifactBundle) error {
	t := bundle.Transition
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transitions (id, current_role, target_role, created_at, is_complete, scraped_count)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.CurrentRole, t.TargetRole, t.CreatedAt, t.IsComplete, bundle.ScrapedCount)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

func (s *BundleStore) insertNarratives(ctx context.Context, tx *sql.Tx, bundle *models.ArtifactBundle) error {
	for _, n := range bundle.Narratives {
		skills, err := json.Marshal(n.SkillsExtracted)
		if err != nil {
			return fmt.Errorf("encode narrative skills: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO narratives (transition_id, source, content, url, post_date, skills_extracted)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			bundle.Transition.ID, n.Source, n.Content, n.URL, n.PostDate, skills); err != nil {
			return fmt.Errorf("insert narrative: %w", err)
		}
	}
	return nil
}

func (s *BundleStore) insertInsights(ctx context.Context, tx *sql.Tx, bundle *models.ArtifactBundle) error {
	for _, ins := range bundle.Insights {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO insights (transition_id, type, content, source, date, experience_years, url)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			bundle.Transition.ID, string(ins.Type), ins.Content, ins.Source, ins.Date, ins.ExperienceYears, ins.URL); err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}
	return nil
}

func (s *BundleStore) insertSkillGaps(ctx context.Context, tx *sql.Tx, bundle *models.ArtifactBundle) error {
	for _, gap := range bundle.SkillGaps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skill_gaps (transition_id, skill_name, gap_level, confidence_score, mention_count)
			 VALUES ($1, $2, $3, $4, $5)`,
			bundle.Transition.ID, gap.SkillName, string(gap.GapLevel), gap.ConfidenceScore, gap.MentionCount); err != nil {
			return fmt.Errorf("insert skill gap: %w", err)
		}
	}
	return nil
}

func (s *BundleStore) insertPlan(ctx context.Context, tx *sql.Tx, bundle *models.ArtifactBundle) error {
	if bundle.Plan == nil {
		return nil
	}
	for _, m := range bundle.Plan.Milestones {
		resources, err := json.Marshal(m.Resources)
		if err != nil {
			return fmt.Errorf("encode milestone resources: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO milestones (transition_id, milestone_order, title, description, priority, duration_weeks, progress, resources)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			bundle.Transition.ID, m.Order, m.Title, m.Description, string(m.Priority), m.DurationWeeks, m.Progress, resources); err != nil {
			return fmt.Errorf("insert milestone: %w", err)
		}
	}
	return nil
}

func (s *BundleStore) insertReadiness(ctx context.Context, tx *sql.Tx, bundle *models.ArtifactBundle) error {
	if bundle.Readiness == nil {
		return nil
	}
	r := bundle.Readiness
	recommendations, err := json.Marshal(r.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO readiness_scores (transition_id, overall_score, market_demand, skill_gap_severity, education_paths, industry_trend, geography, recommendations, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.TransitionID, r.OverallScore,
		r.SubScores.MarketDemand, r.SubScores.SkillGapSeverity, r.SubScores.EducationPaths,
		r.SubScores.IndustryTrend, r.SubScores.Geography,
		recommendations, r.ComputedAt); err != nil {
		return fmt.Errorf("insert readiness score: %w", err)
	}
	return nil
}
