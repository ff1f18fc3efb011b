package eval

import (
	"context"
	"fmt"

	"github.com/lueurxax/hallucination-detect/internal/dataset"
	"github.com/lueurxax/hallucination-detect/internal/detect"
)

// DetectorSpanSource adapts a detect.Detector into a SpanSource.
type DetectorSpanSource struct {
	Detector detect.Detector
}

func (s DetectorSpanSource) PredictSpans(ctx context.Context, prompt, answer string) ([]detect.Span, error) {
	result, err := s.Detector.PredictPrompt(ctx, prompt, answer, detect.FormatSpans)
	if err != nil {
		return nil, err
	}

	return result.Spans, nil
}

// PredictSpansBatch satisfies BatchSpanSource by issuing sequential
// predictions. A failure anywhere fails the whole batch, which the
// batched orchestrator then skips as a unit.
func (s DetectorSpanSource) PredictSpansBatch(ctx context.Context, prompts, answers []string) ([][]detect.Span, error) {
	if len(prompts) != len(answers) {
		return nil, fmt.Errorf("prompt/answer count mismatch: %d vs %d", len(prompts), len(answers))
	}

	results := make([][]detect.Span, 0, len(prompts))

	for i := range prompts {
		spans, err := s.PredictSpans(ctx, prompts[i], answers[i])
		if err != nil {
			return nil, err
		}

		results = append(results, spans)
	}

	return results, nil
}

// ClassifierTokenSource derives token-level gold labels and predictions
// from a token classifier. Gold labels come from the sample's gold spans:
// an answer token is labeled hallucinated when its character range
// overlaps any gold span. Context tokens and zero-width special tokens
// get the ignore label.
type ClassifierTokenSource struct {
	Classifier detect.TokenClassifier
}

func (s ClassifierTokenSource) TokenOutcomes(ctx context.Context, sample dataset.Sample) (*TokenBatch, error) {
	classification, err := s.Classifier.ClassifyTokens(ctx, sample.Prompt, sample.Answer)
	if err != nil {
		return nil, fmt.Errorf("classify tokens: %w", err)
	}

	offset := 0
	if classification.AnswerStart >= 0 && classification.AnswerStart < len(classification.Tokens) {
		offset = classification.Tokens[classification.AnswerStart].CharStart
	}

	batch := &TokenBatch{
		Labels: make([]int, 0, len(classification.Tokens)),
		Preds:  make([]int, 0, len(classification.Tokens)),
		Probs:  make([]float64, 0, len(classification.Tokens)),
	}

	for i, tok := range classification.Tokens {
		label := IgnoreLabel
		if i >= classification.AnswerStart && !tok.Ignored && tok.CharStart != tok.CharEnd {
			label = goldLabel(tok.CharStart-offset, tok.CharEnd-offset, sample.Labels)
		}

		batch.Labels = append(batch.Labels, label)
		batch.Preds = append(batch.Preds, tok.Class)
		batch.Probs = append(batch.Probs, tok.Probability)
	}

	return batch, nil
}

func goldLabel(start, end int, gold []detect.Span) int {
	for _, span := range gold {
		if start < span.End && end > span.Start {
			return classHallucinated
		}
	}

	return classSupported
}
