package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/hallucination-detect/internal/config"
)

const llmRateBurst = 5

// jsonObjectPattern extracts the first JSON object from the model's
// free-text response; annotators often wrap the dict in prose.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*?\}`)

// LLMDetector detects hallucination spans by prompting a chat model with
// the annotation prompt and parsing the listed spans out of its response.
// It only produces spans; requesting the "tokens" format is a
// configuration error.
type LLMDetector struct {
	client      *openai.Client
	model       string
	temperature float32
	prompts     Prompts
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

func NewLLM(cfg *config.Config, prompts Prompts, logger *zerolog.Logger) *LLMDetector {
	return &LLMDetector{
		client:      openai.NewClient(cfg.LLMAPIKey),
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
		prompts:     prompts,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), llmRateBurst),
		logger:      logger,
	}
}

func (d *LLMDetector) Predict(ctx context.Context, passages []string, answer, question, format string) (*Result, error) {
	return d.PredictPrompt(ctx, d.prompts.FormPrompt(passages, question), answer, format)
}

func (d *LLMDetector) PredictPrompt(ctx context.Context, prompt, answer, format string) (*Result, error) {
	if format != FormatSpans {
		return nil, fmt.Errorf("%w: %q (the llm detector only predicts spans)", ErrUnsupportedFormat, format)
	}

	if err := d.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: d.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: d.prompts.FormAnnotationPrompt(prompt, answer),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion error: %w", err)
	}

	content := resp.Choices[0].Message.Content
	d.logger.Debug().Str("content", content).Msg("LLM annotation response")

	return &Result{Spans: d.parseSpans(content, answer)}, nil
}

// parseSpans locates each span the model listed inside the answer text. A
// response that does not contain the expected JSON shape yields zero
// spans rather than an error, so one bad response never aborts a run.
func (d *LLMDetector) parseSpans(content, answer string) []Span {
	spans := []Span{}

	raw := jsonObjectPattern.FindString(content)
	if raw == "" {
		d.logger.Warn().Msg("no JSON object in LLM response, treating as zero spans")

		return spans
	}

	var parsed struct {
		Hallucinations []string `json:"hallucination list"`
	}

	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		d.logger.Warn().Err(err).Msg("malformed LLM annotation JSON, treating as zero spans")

		return spans
	}

	for _, text := range parsed.Hallucinations {
		start := strings.Index(answer, text)
		if start < 0 {
			d.logger.Warn().Str("span", text).Msg("LLM span not found in answer, dropping")

			continue
		}

		spans = append(spans, Span{
			Start: start,
			End:   start + len(text),
			Text:  text,
		})
	}

	return spans
}
