// internal/store/elasticsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"careerpath-engine/internal/common/database"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"
)

const narrativeIndex = "transition-narratives"

// NarrativeArchive indexes retrieved narratives into Elasticsearch so
// past stories are searchable outside the pipeline. Indexing is best
// effort per document; a failed document is logged and skipped.
type NarrativeArchive struct {
	es     *database.ElasticsearchClient
	logger logger.Logger
}

func NewNarrativeArchive(es *database.ElasticsearchClient, log logger.Logger) *NarrativeArchive {
	return &NarrativeArchive{
		es:     es,
		logger: log.WithFields(map[string]interface{}{"component": "narrative-archive"}),
	}
}

type narrativeDocument struct {
	TransitionID string   `json:"transitionId"`
	CurrentRole  string   `json:"currentRole"`
	TargetRole   string   `json:"targetRole"`
	Source       string   `json:"source"`
	Content      string   `json:"content"`
	URL          string   `json:"url,omitempty"`
	PostDate     string   `json:"postDate,omitempty"`
	Skills       []string `json:"skills,omitempty"`
}

// IndexNarratives writes one document per narrative.
func (a *NarrativeArchive) IndexNarratives(ctx context.Context, transition models.Transition, narratives []models.ScrapedData) error {
	indexed := 0
	for i, n := range narratives {
		doc := narrativeDocument{
			TransitionID: transition.ID,
			CurrentRole:  transition.CurrentRole,
			TargetRole:   transition.TargetRole,
			Source:       n.Source,
			Content:      n.Content,
			URL:          n.URL,
			PostDate:     n.PostDate,
			Skills:       n.SkillsExtracted,
		}

		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode narrative document: %w", err)
		}

		res, err := a.es.Client.Index(
			narrativeIndex,
			bytes.NewReader(body),
			a.es.Client.Index.WithContext(ctx),
			a.es.Client.Index.WithDocumentID(fmt.Sprintf("%s-%d", transition.ID, i)),
		)
		if err != nil {
			a.logger.Warn("narrative indexing failed", map[string]interface{}{
				"transitionId": transition.ID,
				"source":       n.Source,
				"error":        err.Error(),
			})
			continue
		}
		if res.IsError() {
			a.logger.Warn("narrative indexing rejected", map[string]interface{}{
				"transitionId": transition.ID,
				"status":       res.Status(),
			})
			res.Body.Close()
			continue
		}
		res.Body.Close()
		indexed++
	}

	a.logger.Info("narratives archived", map[string]interface{}{
		"transitionId": transition.ID,
		"indexed":      indexed,
		"total":        len(narratives),
	})

	return nil
}
