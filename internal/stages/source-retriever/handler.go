// internal/stages/source-retriever/handler.go
package sourceretriever

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/common/textutil"
	"careerpath-engine/internal/models"
)

const StageName = "stories"

var ErrNoSourcesFound = errors.New("NO_SOURCES_FOUND")

// Generator is the slice of the text service client this stage needs.
type Generator interface {
	Generate(ctx context.Context, req *genai.Request) (*genai.Response, error)
}

// Cache caches per-query narrative results by role pair. A nil Cache
// disables caching; a Get miss or any cache error falls through to the
// provider.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Handler struct {
	config *Config
	gen    Generator
	cache  Cache
	logger logger.Logger
}

func NewHandler(config *Config, gen Generator, cache Cache, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		gen:    gen,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// queryTemplates give each fan-out query a distinct phrasing and source
// focus so results don't collapse into one provider answer.
var queryTemplates = []struct {
	source string
	prompt string
}{
	{"reddit", "Find real first-person stories from people who moved from %s to %s, as shared in community discussion threads."},
	{"blog", "Find personal blog posts describing a career change from %s to %s, including what the author studied and struggled with."},
	{"forum", "Find forum Q&A threads where someone transitioning from %s to %s asked for advice and described their background."},
	{"linkedin", "Find professional posts where someone announced or reflected on moving from %s into %s."},
	{"interview", "Find interview-style writeups with people who successfully changed careers from %s to %s."},
	{"podcast", "Find podcast episode summaries featuring guests who went from %s to %s."},
	{"news", "Find articles profiling professionals who retrained from %s into %s roles."},
}

const responseInstruction = ` Respond with a JSON array of objects, each with fields "source" (site or community name), "content" (the story text, 2-6 sentences), "url" (link if known), and "postDate" (YYYY-MM-DD if known). Return [] if nothing relevant is found.`

// Execute fans out the narrative queries, collects whatever completes
// before ctx expires, and deduplicates by (source, url). The stage
// succeeds with partial results on deadline; it fails only when nothing
// usable came back at all.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	queryCount := h.config.QueryCount
	if queryCount > len(queryTemplates) {
		queryCount = len(queryTemplates)
	}

	type queryResult struct {
		narratives []models.ScrapedData
		err        error
	}

	results := make(chan queryResult, queryCount)
	sem := make(chan struct{}, h.config.Concurrency)
	var wg sync.WaitGroup

	for i := 0; i < queryCount; i++ {
		tmpl := queryTemplates[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- queryResult{err: ctx.Err()}
				return
			}

			queryCtx, cancel := context.WithTimeout(ctx, h.config.QueryTimeout)
			defer cancel()

			narratives, err := h.runQuery(queryCtx, input, tmpl.source, tmpl.prompt)
			results <- queryResult{narratives: narratives, err: err}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	output := &Output{QueriesIssued: queryCount}
	seen := make(map[string]bool)

	for res := range results {
		if res.err != nil {
			h.logger.Warn("narrative query failed", map[string]interface{}{
				"error": res.err.Error(),
			})
			continue
		}
		output.QueriesSucceeded++
		for _, n := range res.narratives {
			key := n.DedupeKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			output.Narratives = append(output.Narratives, n)
		}
	}

	if len(output.Narratives) > h.config.MaxNarratives {
		output.Narratives = output.Narratives[:h.config.MaxNarratives]
	}

	if len(output.Narratives) == 0 {
		return nil, fmt.Errorf("%w: no narratives for %q -> %q",
			ErrNoSourcesFound, input.CurrentRole, input.TargetRole)
	}

	h.logger.Info("narratives retrieved", map[string]interface{}{
		"transitionId": input.TransitionID,
		"count":        len(output.Narratives),
		"succeeded":    output.QueriesSucceeded,
	})

	return output, nil
}

func (h *Handler) runQuery(ctx context.Context, input *Input, source, promptTmpl string) ([]models.ScrapedData, error) {
	cacheKey := h.cacheKey(input, source)

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var narratives []models.ScrapedData
			if err := json.Unmarshal([]byte(cached), &narratives); err == nil {
				return narratives, nil
			}
		}
	}

	prompt := fmt.Sprintf(promptTmpl, input.CurrentRole, input.TargetRole) + responseInstruction

	resp, err := h.gen.Generate(ctx, &genai.Request{Prompt: prompt, ResponseFormat: "json"})
	if err != nil {
		return nil, err
	}

	narratives := h.parseNarratives(resp.Text, source)

	if h.cache != nil && len(narratives) > 0 {
		encoded, err := json.Marshal(narratives)
		if err == nil {
			if err := h.cache.Set(ctx, cacheKey, string(encoded), h.config.CacheTTL); err != nil {
				h.logger.Debug("cache write failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return narratives, nil
}

// parseNarratives is lenient: a well-formed JSON array is preferred, but a
// plain-text answer still yields one narrative rather than losing the
// query entirely.
func (h *Handler) parseNarratives(text, fallbackSource string) []models.ScrapedData {
	raw := genai.StripFences(text)

	var payloads []narrativePayload
	if err := json.Unmarshal([]byte(raw), &payloads); err != nil {
		if strings.TrimSpace(raw) == "" || raw == "[]" {
			return nil
		}
		payloads = []narrativePayload{{Source: fallbackSource, Content: raw}}
	}

	var narratives []models.ScrapedData
	for _, p := range payloads {
		content := strings.TrimSpace(p.Content)
		if content == "" {
			continue
		}
		source := strings.TrimSpace(p.Source)
		if source == "" {
			source = fallbackSource
		}
		narratives = append(narratives, models.ScrapedData{
			Source:          source,
			Content:         content,
			URL:             strings.TrimSpace(p.URL),
			PostDate:        strings.TrimSpace(p.PostDate),
			SkillsExtracted: textutil.ExtractSkills(content),
		})
	}
	return narratives
}

func (h *Handler) cacheKey(input *Input, source string) string {
	return fmt.Sprintf("sources:%s|%s:%s",
		strings.ToLower(strings.TrimSpace(input.CurrentRole)),
		strings.ToLower(strings.TrimSpace(input.TargetRole)),
		source)
}
