// Package detect implements hallucination span detection for
// model-generated answers.
//
// Two detector variants are provided behind a common interface:
//   - TransformerDetector: drives an external token-classification
//     collaborator and reconstructs character spans from per-token
//     predictions.
//   - LLMDetector: prompts an OpenAI chat model and parses hallucinated
//     spans out of its free-text response.
//
// The variant is selected by configuration at construction time via New.
package detect

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/hallucination-detect/internal/config"
)

// Output formats accepted by Detector.Predict.
const (
	FormatTokens = "tokens"
	FormatSpans  = "spans"
)

// Detector methods accepted by New.
const (
	MethodTransformer = "transformer"
	MethodLLM         = "llm"
)

// Token classes. The classifier is binary: a token is either supported by
// the source context or hallucinated.
const (
	ClassSupported    = 0
	ClassHallucinated = 1
)

var (
	// ErrUnsupportedFormat indicates an output format other than "tokens"
	// or "spans". This is programmer error and always surfaces to the caller.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrUnsupportedMethod indicates a detector method New does not know.
	ErrUnsupportedMethod = errors.New("unsupported detector method")
)

// Span is a contiguous character range in the answer text judged
// hallucinated. Start/End are a half-open byte range into the answer.
// Confidence is only set on predicted spans and equals the maximum
// class-1 probability among the merged tokens.
type Span struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TokenPrediction is one classified token position. CharStart/CharEnd are
// offsets into the full prompt+answer text as produced by the tokenizer's
// offset mapping; CharStart == CharEnd marks a zero-width special token.
type TokenPrediction struct {
	Token       string
	CharStart   int
	CharEnd     int
	Class       int
	Probability float64 // class-1 probability
	Ignored     bool    // explicit ignore marker from the collaborator
}

// TokenVerdict is one entry of the "tokens" output format.
type TokenVerdict struct {
	Token       string  `json:"token"`
	Class       int     `json:"pred"`
	Probability float64 `json:"prob"`
}

// Result holds the output of one prediction. Exactly one of Tokens or
// Spans is populated, depending on the requested format.
type Result struct {
	Tokens []TokenVerdict `json:"tokens,omitempty"`
	Spans  []Span         `json:"spans,omitempty"`
}

// TokenClassification is the external transformer collaborator's output
// for one prompt/answer pair: every token in sequence order, aligned with
// the tokenizer's offset mapping, plus the index of the first answer token.
type TokenClassification struct {
	Tokens      []TokenPrediction
	AnswerStart int
}

// TokenClassifier is the boundary to the external transformer model and
// its tokenizer. Implementations are expected to block on inference; the
// detector makes no assumption about how the call is scheduled.
type TokenClassifier interface {
	ClassifyTokens(ctx context.Context, prompt, answer string) (*TokenClassification, error)
}

// Detector is the capability interface shared by all detection methods.
type Detector interface {
	// Predict forms a task prompt from the passages and optional question,
	// then detects hallucinations in the answer. Useful for RAG callers
	// that hold passages rather than a finished prompt.
	Predict(ctx context.Context, passages []string, answer, question, format string) (*Result, error)

	// PredictPrompt detects hallucinations in the answer relative to an
	// already-formed prompt.
	PredictPrompt(ctx context.Context, prompt, answer, format string) (*Result, error)
}

// New selects a detector variant by the configured method tag.
func New(cfg *config.Config, classifier TokenClassifier, logger *zerolog.Logger) (Detector, error) {
	switch cfg.DetectorMethod {
	case MethodTransformer:
		return NewTransformer(classifier, Prompts{}, logger), nil
	case MethodLLM:
		return NewLLM(cfg, Prompts{}, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, cfg.DetectorMethod)
	}
}
