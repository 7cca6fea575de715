// internal/common/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/common/metrics"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrTimeout           = errors.New("GENERATION_TIMEOUT")
	ErrAuth              = errors.New("AUTH_ERROR")
	ErrRateLimited       = errors.New("RATE_LIMITED")
	ErrMalformedResponse = errors.New("MALFORMED_RESPONSE")
)

// Config holds all provider settings, injected at construction. There is
// no implicit global configuration.
type Config struct {
	BaseURL          string
	APIKey           string
	Model            string
	MaxTokens        int
	Temperature      float64
	Timeout          time.Duration
	ConcurrencyLimit int
	MaxRetries       int
}

// Request describes one generation call. Zero-valued fields fall back to
// the client config.
type Request struct {
	Prompt         string
	Model          string
	MaxTokens      int
	Temperature    float64
	ResponseFormat string // "text" (default) or "json"
}

// Response is the raw text result of a generation call.
type Response struct {
	Text       string `json:"text"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokensUsed,omitempty"`
}

// Client is the uniform interface to the external text generation/search
// provider. The semaphore throttles concurrent calls across all stages and
// runs sharing this client, respecting the provider rate budget.
type Client struct {
	config *Config
	client *http.Client
	sem    chan struct{}
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	limit := config.ConcurrencyLimit
	if limit <= 0 {
		limit = 4
	}
	return &Client{
		config: config,
		// No client-level timeout: each call is bounded by its context.
		client: &http.Client{},
		sem:    make(chan struct{}, limit),
		logger: log.WithFields(map[string]interface{}{"component": "genai"}),
	}
}

// Generate issues one text generation call, classifying failures as
// timeout, auth, rate-limit, or malformed-response errors.
func (c *Client) Generate(ctx context.Context, req *Request) (*Response, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctxError(ctx)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.generateWithRetry(ctx, req)
	metrics.TextServiceCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TextServiceCalls.WithLabelValues(classify(err)).Inc()
		return nil, err
	}
	metrics.TextServiceCalls.WithLabelValues("ok").Inc()
	return resp, nil
}

func (c *Client) generateWithRetry(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(c.buildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctxError(ctx)
			}
		}

		resp, err := c.doRequest(ctx, body)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		// Auth failures and invalid shapes won't improve on retry.
		if errors.Is(err, ErrAuth) || errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctxError(ctx)
		}
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || strings.Contains(err.Error(), "deadline") {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return nil, ErrAuth
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("provider status %d", httpResp.StatusCode)
	}

	var apiResponse Response
	if err := json.NewDecoder(httpResp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(apiResponse.Text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}

	return &apiResponse, nil
}

func (c *Client) buildPayload(req *Request) map[string]interface{} {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	format := req.ResponseFormat
	if format == "" {
		format = "text"
	}

	return map[string]interface{}{
		"model":           model,
		"prompt":          req.Prompt,
		"max_tokens":      maxTokens,
		"temperature":     temperature,
		"response_format": format,
	}
}

// GenerateJSON issues a structured generation call and validates the
// response against the given JSON schema at the client boundary. Invalid
// shapes become ErrMalformedResponse, never silently coerced output.
func (c *Client) GenerateJSON(ctx context.Context, req *Request, schema string) (json.RawMessage, error) {
	jsonReq := *req
	jsonReq.ResponseFormat = "json"

	resp, err := c.Generate(ctx, &jsonReq)
	if err != nil {
		return nil, err
	}

	raw := StripFences(resp.Text)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(details, "; "))
	}

	return json.RawMessage(raw), nil
}

// StripFences removes markdown code fences models wrap JSON output in.
func StripFences(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}

// ctxError distinguishes an expired deadline from caller cancellation so
// a cancelled run is never counted as a provider timeout.
func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return ErrTimeout
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
