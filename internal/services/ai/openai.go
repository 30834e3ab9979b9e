package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rfaulk/flicklist/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds each individual API attempt.
	DefaultTimeout = 10 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// ErrMissingAPIKey is returned at construction when no credential is
// configured. This is a fatal configuration error, never retried.
var ErrMissingAPIKey = errors.New("OpenAI API key is required")

var listMarker = regexp.MustCompile(`^[-*•\d.)\s]+`)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client     openai.Client
	model      string
	logger     *zap.Logger
	debugMode  bool
	retryDelay time.Duration
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) (*OpenAIProvider, error) {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0), // retry policy is owned by this package
	)

	if logger != nil && debugMode {
		logger.Debug("openai_provider_initialized",
			zap.String("model", model),
			zap.String("base_url", baseURL),
			zap.String("api_key", SanitizeAPIKey(apiKey)),
		)
	}

	return &OpenAIProvider{
		client:     client,
		model:      model,
		logger:     logger,
		debugMode:  debugMode,
		retryDelay: ReminderRetryDelay,
	}, nil
}

// GenerateReminder generates a short notification body for the task, retrying
// transient failures with a fixed delay. After ReminderMaxAttempts the last
// error propagates to the caller.
func (p *OpenAIProvider) GenerateReminder(ctx context.Context, task *models.Task) (string, error) {
	operation := func() (string, error) {
		return p.requestReminder(ctx, task)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryDelay), ReminderMaxAttempts-1),
		ctx,
	)

	content, err := backoff.RetryWithData(operation, b)
	if err != nil {
		return "", fmt.Errorf("generate reminder: %w", err)
	}
	return content, nil
}

func (p *OpenAIProvider) requestReminder(ctx context.Context, task *models.Task) (string, error) {
	content, err := p.complete(ctx, "generate_reminder", openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(reminderSystemPrompt),
			openai.UserMessage(buildReminderPrompt(task)),
		},
		MaxTokens:   openai.Int(60),
		Temperature: openai.Float(0.7),
	}, task)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// GenerateTiming asks for a notification time-of-day fitted to the user's
// schedule. Unlike reminders this path never retries and never fails: any
// error, malformed body, or out-of-range value yields the fixed fallback.
func (p *OpenAIProvider) GenerateTiming(ctx context.Context, task *models.Task, prefs *models.SchedulePreferences) *models.TimingRecommendation {
	content, err := p.complete(ctx, "generate_timing", openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(timingSystemPrompt),
			openai.UserMessage(buildTimingPrompt(task, prefs)),
		},
		MaxTokens:   openai.Int(150),
		Temperature: openai.Float(0.7),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}, task)
	if err != nil {
		return FallbackTiming()
	}

	timing, err := parseTimingResponse(content)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("timing_response_unparseable",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
		}
		return FallbackTiming()
	}
	return timing
}

// GenerateTaskBreakdown asks for a 3-step checklist. Failures and empty
// responses yield the generic fallback so task creation is never blocked.
func (p *OpenAIProvider) GenerateTaskBreakdown(ctx context.Context, task *models.Task) []string {
	content, err := p.complete(ctx, "generate_breakdown", openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(breakdownSystemPrompt),
			openai.UserMessage(buildBreakdownPrompt(task)),
		},
		MaxTokens:   openai.Int(150),
		Temperature: openai.Float(0.7),
	}, task)
	if err != nil {
		return FallbackBreakdown(task.Title)
	}

	steps := parseBreakdownResponse(content)
	if len(steps) == 0 {
		if p.logger != nil {
			p.logger.Warn("breakdown_response_empty",
				zap.String("task_id", task.ID.String()),
			)
		}
		return FallbackBreakdown(task.Title)
	}
	return steps
}

// complete sends one chat-completion request and returns the first choice's
// content, with debug-mode request/response logging.
func (p *OpenAIProvider) complete(ctx context.Context, operation string, req openai.ChatCompletionNewParams, task *models.Task) (string, error) {
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("message_count", len(req.Messages)),
			zap.String("task_id", task.ID.String()),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("task_id", task.ID.String()),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("%s: %w", operation, apiErr)
		}
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}
	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content)),
			zap.String("task_id", task.ID.String()),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// parseTimingResponse parses and validates the timing JSON. Models sometimes
// wrap JSON in prose; a brace-extraction pass recovers that case.
func parseTimingResponse(content string) (*models.TimingRecommendation, error) {
	var parsed struct {
		RecommendedTime string  `json:"recommendedTime"`
		Reasoning       string  `json:"reasoning"`
		Confidence      float64 `json:"confidence"`
	}

	raw := content
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		start := bytes.Index([]byte(raw), []byte("{"))
		end := bytes.LastIndex([]byte(raw), []byte("}"))
		if start == -1 || end == -1 || end <= start {
			return nil, fmt.Errorf("parse timing response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
			return nil, fmt.Errorf("parse timing response: %w", err)
		}
	}

	if !clockTimeRe.MatchString(parsed.RecommendedTime) {
		return nil, fmt.Errorf("invalid recommended time %q", parsed.RecommendedTime)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", parsed.Confidence)
	}

	return &models.TimingRecommendation{
		RecommendedTime: parsed.RecommendedTime,
		Reasoning:       parsed.Reasoning,
		Confidence:      parsed.Confidence,
	}, nil
}

var clockTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// parseBreakdownResponse splits checklist lines and strips list markers.
func parseBreakdownResponse(content string) []string {
	var steps []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}
