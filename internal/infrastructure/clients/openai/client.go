package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/zatekoja/careroute/internal/domain/entities"
	"github.com/zatekoja/careroute/internal/domain/providers"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
	"github.com/zatekoja/careroute/pkg/config"
)

const (
	defaultBaseURL = "https://ai.gateway.lovable.dev/v1"
	defaultModel   = "google/gemini-3-flash-preview"
	defaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Client classifies symptom reports through an OpenAI-compatible chat
// completions gateway using a forced tool call.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new gateway client.
func NewClient(cfg *config.GatewayConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("ai gateway api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: newLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}, nil
}

var _ providers.ClassificationProvider = (*Client)(nil)

// newLimiter returns nil (unlimited) for a negative rpm
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm < 0 {
		return nil
	}
	if rpm == 0 {
		rpm = 60
	}
	if burst <= 0 {
		burst = 5
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []interface{} `json:"tools"`
	ToolChoice interface{}   `json:"tool_choice"`
}

type toolCall struct {
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type classificationPayload struct {
	Specialty      string   `json:"specialty"`
	Severity       string   `json:"severity"`
	NextStep       string   `json:"nextStep"`
	Confidence     float64  `json:"confidence"`
	SuggestedTests []string `json:"suggestedTests"`
}

// Classify sends one request to the gateway. It is never retried.
func (c *Client) Classify(ctx context.Context, report *entities.SymptomReport) (*entities.ClassificationResult, error) {
	if report == nil {
		return nil, errors.New("symptom report is required")
	}

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordGatewayMetric(ctx, c.model, 0, 0, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: local request budget exceeded", providers.ErrRateLimited)
		}
		recordGatewayRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(report.Language)},
			{Role: "user", Content: buildUserPrompt(report)},
		},
		Tools:      []interface{}{classifyTool},
		ToolChoice: classifyToolChoice,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordGatewayMetric(ctx, c.model, 0, time.Since(start), err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", providers.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordGatewayMetric(ctx, c.model, resp.StatusCode, time.Since(start), fmt.Errorf("status %d", resp.StatusCode))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, providers.ErrRateLimited
		case http.StatusPaymentRequired:
			return nil, providers.ErrQuotaExhausted
		}
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		observability.LoggerFromContext(ctx).Error().Int("status", resp.StatusCode).Str("body", string(snippet)).Msg("AI gateway request failed")
		return nil, fmt.Errorf("%w: status %d", providers.ErrGatewayUnavailable, resp.StatusCode)
	}

	var envelope chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&envelope); err != nil {
		recordGatewayMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", providers.ErrMalformedResponse, err)
	}

	result, err := parseClassification(&envelope)
	recordGatewayMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseClassification(envelope *chatResponse) (*entities.ClassificationResult, error) {
	if len(envelope.Choices) == 0 || len(envelope.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool call in response", providers.ErrMalformedResponse)
	}

	call := envelope.Choices[0].Message.ToolCalls[0]
	var payload classificationPayload
	if err := json.Unmarshal([]byte(call.Function.Arguments), &payload); err != nil {
		return nil, fmt.Errorf("%w: tool arguments: %v", providers.ErrMalformedResponse, err)
	}

	specialty := strings.TrimSpace(payload.Specialty)
	if specialty == "" {
		return nil, fmt.Errorf("%w: empty specialty", providers.ErrMalformedResponse)
	}
	severity := entities.Severity(strings.ToLower(strings.TrimSpace(payload.Severity)))
	if !severity.IsValid() {
		return nil, fmt.Errorf("%w: invalid severity %q", providers.ErrMalformedResponse, payload.Severity)
	}

	tests := make([]string, 0, len(payload.SuggestedTests))
	for _, t := range payload.SuggestedTests {
		if t = strings.TrimSpace(t); t != "" {
			tests = append(tests, t)
		}
	}

	return &entities.ClassificationResult{
		Specialty:      specialty,
		Severity:       severity,
		NextStep:       strings.TrimSpace(payload.NextStep),
		Confidence:     clampConfidence(payload.Confidence),
		SuggestedTests: tests,
	}, nil
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

type gatewayMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var (
	gatewayMetricsOnce sync.Once
	gatewayMetricsOK   bool
	metrics            gatewayMetrics
)

func ensureGatewayMetrics() bool {
	gatewayMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/careroute/gateway")

		requestCount, err := meter.Int64Counter(
			"ai.gateway.request.count",
			metric.WithDescription("Number of classification gateway requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.gateway.request.duration",
			metric.WithDescription("Classification gateway request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.gateway.request.errors",
			metric.WithDescription("Number of classification gateway request errors"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.gateway.rate_limit.wait",
			metric.WithDescription("Time spent waiting for the outbound rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}

		metrics = gatewayMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
		}
		gatewayMetricsOK = true
	})
	return gatewayMetricsOK
}

func recordGatewayMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	if !ensureGatewayMetrics() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "gateway"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		metrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordGatewayRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	if !ensureGatewayMetrics() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "gateway"),
		attribute.String("ai.model", model),
	}
	metrics.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
