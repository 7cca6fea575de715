// internal/stages/insight-extractor/handler_test.go
package insightextractor

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"careerpath-engine/internal/common/genai"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu       sync.Mutex
	attempts map[string]int
	respond  func(prompt string, attempt int) (json.RawMessage, error)
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, req *genai.Request, schema string) (json.RawMessage, error) {
	f.mu.Lock()
	if f.attempts == nil {
		f.attempts = make(map[string]int)
	}
	// key extraction attempts by the narrative content embedded in the prompt
	key := req.Prompt
	if i := strings.Index(key, "Story"); i >= 0 {
		key = key[i : i+60]
	}
	f.attempts[key]++
	attempt := f.attempts[key]
	f.mu.Unlock()

	return f.respond(req.Prompt, attempt)
}

func createTestConfig() *Config {
	return &Config{Concurrency: 2, ExtractTimeout: time.Second}
}

func createTestInput(narratives ...models.ScrapedData) *Input {
	return &Input{
		TransitionID: "t-1",
		CurrentRole:  "Data Analyst",
		TargetRole:   "Data Engineer",
		Narratives:   narratives,
	}
}

func narrative(source, content string) models.ScrapedData {
	return models.ScrapedData{Source: source, Content: content, URL: "https://example.com/" + source}
}

func validInsights() json.RawMessage {
	return json.RawMessage(`[
		{"type": "challenge", "content": "Had to learn spark on the job", "experienceYears": 4},
		{"type": "observation", "content": "Most postings wanted airflow experience"}
	]`)
}

func TestExecute_UnionAcrossNarratives(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
		return validInsights(), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput(
		narrative("reddit", "story one"),
		narrative("blog", "story two"),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, output.Processed)
	assert.Equal(t, 0, output.Dropped)
	assert.Len(t, output.Insights, 4)

	for _, ins := range output.Insights {
		assert.True(t, models.IsValidInsightType(ins.Type))
		assert.NotEmpty(t, ins.Source)
	}
}

func TestExecute_RetryOnceThenDrop(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
		if strings.Contains(prompt, "bad story") {
			return nil, genai.ErrMalformedResponse
		}
		return validInsights(), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput(
		narrative("reddit", "bad story"),
		narrative("blog", "good story"),
		narrative("forum", "another good story"),
	))
	require.NoError(t, err)

	assert.Equal(t, 3, output.Processed)
	assert.Equal(t, 1, output.Dropped)
	assert.Len(t, output.Insights, 4)
}

func TestExecute_SecondAttemptRecovers(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
		if attempt == 1 {
			return nil, genai.ErrMalformedResponse
		}
		// stricter retry prompt must actually be stricter
		assert.Contains(t, prompt, "ONLY the raw JSON array")
		return validInsights(), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput(narrative("reddit", "flaky story")))
	require.NoError(t, err)

	assert.Equal(t, 0, output.Dropped)
	assert.Len(t, output.Insights, 2)
}

func TestExecute_InvalidTypesFilteredOut(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
		return json.RawMessage(`[
			{"type": "story", "content": "switched after a bootcamp"},
			{"type": "rumor", "content": "should be dropped"},
			{"type": "challenge", "content": "   "}
		]`), nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput(narrative("reddit", "a story")))
	require.NoError(t, err)

	require.Len(t, output.Insights, 1)
	assert.Equal(t, models.InsightStory, output.Insights[0].Type)
}

func TestExecute_EmptyInputIsSuccess(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
		t.Fatal("generator should not be called")
		return nil, nil
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Empty(t, output.Insights)
}

func TestExecute_TransientFailureNotReprompted(t *testing.T) {
	for _, cause := range []error{genai.ErrTimeout, genai.ErrRateLimited} {
		var calls int32
		gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
			atomic.AddInt32(&calls, 1)
			return nil, cause
		}}

		h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

		output, err := h.Execute(context.Background(), createTestInput(narrative("reddit", "slow story")))
		require.NoError(t, err)

		assert.Equal(t, 1, output.Dropped)
		assert.Empty(t, output.Insights)
		// only a malformed response earns the stricter second call
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "unexpected retry for %v", cause)
	}
}

func TestExecute_AllDroppedIsStillSuccess(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string, attempt int) (json.RawMessage, error) {
		return nil, genai.ErrMalformedResponse
	}}

	h := NewHandler(createTestConfig(), gen, logger.NewNoOpLogger())

	output, err := h.Execute(context.Background(), createTestInput(
		narrative("reddit", "one"),
		narrative("blog", "two"),
	))
	require.NoError(t, err)
	assert.Equal(t, 2, output.Dropped)
	assert.Empty(t, output.Insights)
}
