package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fable-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	generatorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fable_generator_requests_total",
			Help: "Total number of requests to the content generator.",
		},
		[]string{"model", "status"},
	)
	generatorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fable_generator_request_duration_seconds",
			Help:    "Histogram of content generator request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

// Request carries everything the content generator needs to synthesize one
// personalized choice. ExistingChoices are passed as negative examples so the
// generated text does not duplicate an authored choice.
type Request struct {
	StoryTitle      string
	SceneTitle      string
	SceneContent    string
	Archetype       string
	Persona         string
	ExistingChoices []string
}

// Client is the external content generator: one short choice string per call,
// or an error. No retry policy beyond the single bounded attempt.
//
//go:generate mockery --name Client --output ./mocks --outpkg mocks --case=underscore
type Client interface {
	GenerateChoice(ctx context.Context, req Request) (string, error)
}

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type openAIClient struct {
	client  *openaigo.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIClient builds a client for any OpenAI-compatible chat-completion
// endpoint.
func NewOpenAIClient(cfg Config, logger *zap.Logger) Client {
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &openAIClient{
		client:  openaigo.NewClientWithConfig(openaiConfig),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger.Named("GeneratorClient"),
	}
}

const systemPrompt = `You write choices for an interactive branching story.
Given a scene and a reader persona, write exactly ONE new choice the reader
could make at this point. Requirements:
- a single short sentence (under 15 words), second person, present tense
- it must fit the scene and appeal specifically to the given persona
- it must NOT duplicate or paraphrase any of the existing choices
Respond with the choice text only, no quotes, no numbering, no explanations.`

func (c *openAIClient) GenerateChoice(ctx context.Context, req Request) (string, error) {
	userPrompt := buildUserPrompt(req)

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	c.logger.Debug("Sending generation request",
		zap.String("model", c.model),
		zap.String("archetype", req.Archetype),
		zap.Int("promptBytes", len(userPrompt)),
	)

	resp, err := c.client.CreateChatCompletion(
		requestCtx,
		openaigo.ChatCompletionRequest{
			Model: c.model,
			Messages: []openaigo.ChatCompletionMessage{
				{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openaigo.ChatMessageRoleUser, Content: userPrompt},
			},
			MaxTokens:   60,
			Temperature: 0.9,
		},
	)

	duration := time.Since(startTime)
	generatorRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		generatorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": status}).Inc()
		c.logger.Warn("Generator request failed", zap.Error(err), zap.Duration("duration", duration))
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		generatorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}

	text := sanitizeChoiceText(resp.Choices[0].Message.Content)
	if text == "" {
		generatorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: empty choice text", models.ErrGenerationFailed)
	}

	generatorRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	c.logger.Debug("Generator request completed",
		zap.Duration("duration", duration), zap.Int("textLen", len(text)))
	return text, nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Story: %s\n", req.StoryTitle)
	fmt.Fprintf(&b, "Scene: %s\n%s\n\n", req.SceneTitle, req.SceneContent)
	fmt.Fprintf(&b, "Reader persona (%s): %s\n\n", req.Archetype, req.Persona)
	b.WriteString("Existing choices (do not duplicate):\n")
	for _, choice := range req.ExistingChoices {
		fmt.Fprintf(&b, "- %s\n", choice)
	}
	return b.String()
}

// sanitizeChoiceText strips the decorations models like to add around a
// single-line answer.
func sanitizeChoiceText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
