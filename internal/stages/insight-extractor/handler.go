// internal/stages/insight-extractor/handler.go
package insightextractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"
)

const StageName = "insights"

// insightSchema constrains the extraction response to the small fixed
// shape downstream stages rely on.
const insightSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["type", "content"],
		"properties": {
			"type": {"type": "string", "enum": ["observation", "challenge", "story"]},
			"content": {"type": "string", "minLength": 1},
			"date": {"type": "string"},
			"experienceYears": {"type": "number", "minimum": 0}
		}
	}
}`

type Generator interface {
	GenerateJSON(ctx context.Context, req *genai.Request, schema string) (json.RawMessage, error)
}

type Handler struct {
	config *Config
	gen    Generator
	logger logger.Logger
}

func NewHandler(config *Config, gen Generator, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		gen:    gen,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute extracts typed insights from each narrative with bounded
// concurrency. A narrative whose extraction fails twice is dropped and
// logged; the stage result is the union of everything that parsed, and an
// empty union is still a success.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	type itemResult struct {
		insights []models.Insight
		dropped  bool
	}

	results := make(chan itemResult, len(input.Narratives))
	sem := make(chan struct{}, h.config.Concurrency)
	var wg sync.WaitGroup

	for _, narrative := range input.Narratives {
		n := narrative
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- itemResult{dropped: true}
				return
			}

			insights, err := h.extractOne(ctx, input, n)
			if err != nil {
				h.logger.Warn("dropping narrative after failed extraction", map[string]interface{}{
					"source": n.Source,
					"url":    n.URL,
					"error":  err.Error(),
				})
				results <- itemResult{dropped: true}
				return
			}
			results <- itemResult{insights: insights}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	output := &Output{}
	for res := range results {
		output.Processed++
		if res.dropped {
			output.Dropped++
			continue
		}
		output.Insights = append(output.Insights, res.insights...)
	}

	h.logger.Info("insights extracted", map[string]interface{}{
		"transitionId": input.TransitionID,
		"insights":     len(output.Insights),
		"dropped":      output.Dropped,
	})

	return output, nil
}

// extractOne tries a normal prompt, then once more with a stricter
// instruction before giving up on the narrative.
func (h *Handler) extractOne(ctx context.Context, input *Input, n models.ScrapedData) ([]models.Insight, error) {
	extractCtx, cancel := context.WithTimeout(ctx, h.config.ExtractTimeout)
	defer cancel()

	raw, err := h.gen.GenerateJSON(extractCtx, &genai.Request{
		Prompt: h.buildPrompt(input, n, false),
	}, insightSchema)
	if err != nil {
		// a stricter instruction only helps when the shape was the
		// problem; timeouts and rate limits won't parse better
		if !errors.Is(err, genai.ErrMalformedResponse) {
			return nil, err
		}
		raw, err = h.gen.GenerateJSON(extractCtx, &genai.Request{
			Prompt: h.buildPrompt(input, n, true),
		}, insightSchema)
		if err != nil {
			return nil, err
		}
	}

	var payloads []insightPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	var insights []models.Insight
	for _, p := range payloads {
		if !models.IsValidInsightType(models.InsightType(p.Type)) || strings.TrimSpace(p.Content) == "" {
			continue
		}
		insights = append(insights, models.Insight{
			Type:            models.InsightType(p.Type),
			Content:         strings.TrimSpace(p.Content),
			Source:          n.Source,
			Date:            p.Date,
			ExperienceYears: int(p.ExperienceYears),
			URL:             n.URL,
		})
	}
	return insights, nil
}

func (h *Handler) buildPrompt(input *Input, n models.ScrapedData, strict bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract career-transition insights from this story about moving from %s to %s.\n\n", input.CurrentRole, input.TargetRole)
	fmt.Fprintf(&b, "Story (from %s):\n%s\n\n", n.Source, n.Content)
	b.WriteString(`Classify each insight as "observation" (a general fact about the transition), "challenge" (a difficulty the person faced), or "story" (a concrete personal anecdote).`)
	b.WriteString(` Respond with a JSON array of {"type", "content", "date", "experienceYears"}.`)
	if strict {
		b.WriteString(" Respond with ONLY the raw JSON array. No prose, no markdown fences, no explanation. An empty array [] is acceptable.")
	}
	return b.String()
}
