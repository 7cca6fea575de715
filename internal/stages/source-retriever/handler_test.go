// internal/stages/source-retriever/handler_test.go
package sourceretriever

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"careerpath-engine/internal/common/database"
	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls   int32
	respond func(prompt string) (*genai.Response, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req *genai.Request) (*genai.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	if err := ctx.Err(); err != nil {
		return nil, genai.ErrTimeout
	}
	return f.respond(req.Prompt)
}

func createTestConfig() *Config {
	return &Config{
		QueryCount:    3,
		Concurrency:   2,
		MaxNarratives: 10,
		QueryTimeout:  time.Second,
		CacheTTL:      time.Minute,
	}
}

func createTestInput() *Input {
	return &Input{
		TransitionID: "t-1",
		CurrentRole:  "Software Engineer",
		TargetRole:   "Product Manager",
	}
}

func narrativeJSON(source, url string) string {
	return fmt.Sprintf(`[{"source": %q, "content": "I moved into product management after years of python work.", "url": %q}]`, source, url)
}

func TestExecute_CollectsAndDeduplicates(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		// every query returns the same story; dedupe keeps one
		return &genai.Response{Text: narrativeJSON("reddit", "https://example.com/a")}, nil
	}}

	h := NewHandler(createTestConfig(), gen, nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Len(t, output.Narratives, 1)
	assert.Equal(t, 3, output.QueriesIssued)
	assert.Equal(t, 3, output.QueriesSucceeded)
	assert.Contains(t, output.Narratives[0].SkillsExtracted, "python")
	assert.Contains(t, output.Narratives[0].SkillsExtracted, "product management")
}

func TestExecute_PartialFailureIsAbsorbed(t *testing.T) {
	var n int32
	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			return nil, genai.ErrRateLimited
		}
		return &genai.Response{Text: narrativeJSON("blog", fmt.Sprintf("https://example.com/%d", atomic.LoadInt32(&n)))}, nil
	}}

	h := NewHandler(createTestConfig(), gen, nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, 2, output.QueriesSucceeded)
	assert.Len(t, output.Narratives, 2)
}

func TestExecute_NoSourcesFound(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		return &genai.Response{Text: "[]"}, nil
	}}

	h := NewHandler(createTestConfig(), gen, nil, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), createTestInput())
	assert.ErrorIs(t, err, ErrNoSourcesFound)
}

func TestExecute_PlainTextFallsBackToSingleNarrative(t *testing.T) {
	cfg := createTestConfig()
	cfg.QueryCount = 1

	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		return &genai.Response{Text: "A data analyst I know retrained in sql and statistics over a year."}, nil
	}}

	h := NewHandler(cfg, gen, nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	require.Len(t, output.Narratives, 1)
	assert.Equal(t, "reddit", output.Narratives[0].Source)
	assert.Contains(t, output.Narratives[0].SkillsExtracted, "sql")
}

func TestExecute_MaxNarrativesCap(t *testing.T) {
	cfg := createTestConfig()
	cfg.MaxNarratives = 2

	var n int32
	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		i := atomic.AddInt32(&n, 1)
		return &genai.Response{Text: narrativeJSON("forum", fmt.Sprintf("https://example.com/%d", i))}, nil
	}}

	h := NewHandler(cfg, gen, nil, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Len(t, output.Narratives, 2)
}

func TestExecute_CacheSkipsProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	cfg := createTestConfig()
	cfg.QueryCount = 2

	var n int32
	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		i := atomic.AddInt32(&n, 1)
		return &genai.Response{Text: narrativeJSON("reddit", fmt.Sprintf("https://example.com/%d", i))}, nil
	}}

	h := NewHandler(cfg, gen, cache, logger.NewNoOpLogger())

	first, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	firstCalls := atomic.LoadInt32(&gen.calls)
	require.Equal(t, int32(2), firstCalls)

	second, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, firstCalls, atomic.LoadInt32(&gen.calls), "second run should be served from cache")
	assert.Equal(t, len(first.Narratives), len(second.Narratives))
}

func TestExecute_CancelledContext(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string) (*genai.Response, error) {
		return nil, errors.New("should not matter")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHandler(createTestConfig(), gen, nil, logger.NewNoOpLogger())

	_, err := h.Execute(ctx, createTestInput())
	assert.ErrorIs(t, err, ErrNoSourcesFound)
}
