package eval

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/hallucination-detect/internal/dataset"
	"github.com/lueurxax/hallucination-detect/internal/detect"
)

// IgnoreLabel marks token positions excluded from scoring: context tokens
// before the answer begins, or positions with no gold label.
const IgnoreLabel = -1

// TokenBatch is one example's aligned token-level gold labels and
// classifier outputs. Probs holds the class-1 probability per token.
type TokenBatch struct {
	Labels []int
	Preds  []int
	Probs  []float64
}

// TokenSource is the external collaborator for token-granularity
// evaluation: for one sample it returns the gold label, predicted class,
// and class-1 probability per token position.
type TokenSource interface {
	TokenOutcomes(ctx context.Context, sample dataset.Sample) (*TokenBatch, error)
}

// SpanSource is the external collaborator for span-granularity
// evaluation: a detector that predicts hallucinated spans directly.
type SpanSource interface {
	PredictSpans(ctx context.Context, prompt, answer string) ([]detect.Span, error)
}

// BatchSpanSource predicts spans for a batch of examples in one call.
// Batching only amortizes the external round-trip; results stay aligned
// with the inputs and are folded one at a time in corpus order.
type BatchSpanSource interface {
	PredictSpansBatch(ctx context.Context, prompts, answers []string) ([][]detect.Span, error)
}

// RunStats counts what happened to each example during a run.
type RunStats struct {
	Evaluated int `json:"evaluated"`
	Skipped   int `json:"skipped"`
}

// Evaluator drives a corpus through a detector collaborator and the
// metric accumulators. Each Evaluate* call is one single-use run:
// accumulators are created, fed in corpus order, finalized, discarded.
type Evaluator struct {
	logger *zerolog.Logger
}

func New(logger *zerolog.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// TokenLevel scores every labeled token position across the corpus.
func (e *Evaluator) TokenLevel(ctx context.Context, src TokenSource, samples []dataset.Sample, opts ReportOptions) (Report, RunStats) {
	acc := NewClassifications()
	stats := RunStats{}

	for i, sample := range samples {
		batch, ok := e.tokenBatch(ctx, src, sample, i, levelToken, &stats)
		if !ok {
			if ctx.Err() != nil {
				break
			}

			continue
		}

		for j := range batch.Labels {
			if batch.Labels[j] == IgnoreLabel {
				continue
			}

			acc.Add(batch.Labels[j], batch.Preds[j], batch.Probs[j])
		}

		stats.Evaluated++
		countExample(levelToken, outcomeEvaluated)
	}

	return acc.Report(opts), stats
}

// ExampleLevel derives one binary verdict per example from the token
// model: an example is hallucinated iff any valid token is class 1. The
// AUROC score is the maximum class-1 probability over valid tokens, 0.0
// when no valid tokens exist.
func (e *Evaluator) ExampleLevel(ctx context.Context, src TokenSource, samples []dataset.Sample, opts ReportOptions) (Report, RunStats) {
	acc := NewClassifications()
	stats := RunStats{}

	for i, sample := range samples {
		batch, ok := e.tokenBatch(ctx, src, sample, i, levelExample, &stats)
		if !ok {
			if ctx.Err() != nil {
				break
			}

			continue
		}

		label, pred, maxProb := exampleVerdict(batch)
		acc.Add(label, pred, maxProb)
		stats.Evaluated++
		countExample(levelExample, outcomeEvaluated)
	}

	return acc.Report(opts), stats
}

// SpanExampleLevel scores a span-producing detector one example at a
// time: gold positive iff the sample has gold spans, predicted positive
// iff the detector produced any span.
func (e *Evaluator) SpanExampleLevel(ctx context.Context, src SpanSource, samples []dataset.Sample, opts ReportOptions) (Report, RunStats) {
	acc := NewClassifications()
	stats := RunStats{}

	for i, sample := range samples {
		spans, err := src.PredictSpans(ctx, sample.Prompt, sample.DetectorAnswer())
		if err != nil {
			if ctx.Err() != nil {
				break
			}

			e.skip(i, levelExample, err, &stats)

			continue
		}

		addSpanVerdict(acc, sample, spans)
		stats.Evaluated++
		countExample(levelExample, outcomeEvaluated)
	}

	return acc.Report(opts), stats
}

// SpanExampleLevelBatch is SpanExampleLevel with the external call issued
// in fixed-size batches. Batch size never changes the accumulated result:
// examples are still folded individually in corpus order, so metric
// output is reproducible for any batch size.
func (e *Evaluator) SpanExampleLevelBatch(ctx context.Context, src BatchSpanSource, samples []dataset.Sample, batchSize int, opts ReportOptions) (Report, RunStats) {
	if batchSize <= 0 {
		batchSize = 1
	}

	acc := NewClassifications()
	stats := RunStats{}

	for start := 0; start < len(samples); start += batchSize {
		end := start + batchSize
		if end > len(samples) {
			end = len(samples)
		}

		batch := samples[start:end]
		prompts := make([]string, 0, len(batch))
		answers := make([]string, 0, len(batch))

		for _, sample := range batch {
			prompts = append(prompts, sample.Prompt)
			answers = append(answers, sample.DetectorAnswer())
		}

		results, err := src.PredictSpansBatch(ctx, prompts, answers)
		if err != nil {
			if ctx.Err() != nil {
				break
			}

			// The whole batch failed; every example in it is skipped.
			for i := range batch {
				e.skip(start+i, levelExample, err, &stats)
			}

			continue
		}

		if len(results) != len(batch) {
			e.logger.Warn().
				Int("expected", len(batch)).
				Int("got", len(results)).
				Msg("batch result count mismatch, truncating to shorter length")
		}

		for i, sample := range batch {
			if i >= len(results) {
				e.skip(start+i, levelExample, errMissingBatchResult, &stats)

				continue
			}

			addSpanVerdict(acc, sample, results[i])
			stats.Evaluated++
			countExample(levelExample, outcomeEvaluated)
		}
	}

	return acc.Report(opts), stats
}

// CharLevel scores a span-producing detector by character overlap between
// predicted and gold spans, accumulated corpus-wide. The detector is shown
// the raw answer, never the sentence-segmented rendition: gold span
// offsets index the raw answer text, and predicted offsets must index the
// same text for the overlap arithmetic to mean anything.
func (e *Evaluator) CharLevel(ctx context.Context, src SpanSource, samples []dataset.Sample) (OverlapMetrics, RunStats) {
	acc := NewOverlapStats()
	stats := RunStats{}

	for i, sample := range samples {
		spans, err := src.PredictSpans(ctx, sample.Prompt, sample.Answer)
		if err != nil {
			if ctx.Err() != nil {
				break
			}

			e.skip(i, levelChar, err, &stats)

			continue
		}

		acc.AddExample(spans, sample.Labels)
		stats.Evaluated++
		countExample(levelChar, outcomeEvaluated)
	}

	return acc.Metrics(), stats
}

// tokenBatch fetches one example's token outcomes, aligning mismatched
// sequence lengths by truncating to the shortest, and reports whether the
// example survives.
func (e *Evaluator) tokenBatch(ctx context.Context, src TokenSource, sample dataset.Sample, index int, level string, stats *RunStats) (*TokenBatch, bool) {
	batch, err := src.TokenOutcomes(ctx, sample)
	if err != nil {
		if ctx.Err() == nil {
			e.skip(index, level, err, stats)
		}

		return nil, false
	}

	n := len(batch.Labels)
	if len(batch.Preds) < n {
		n = len(batch.Preds)
	}

	if len(batch.Probs) < n {
		n = len(batch.Probs)
	}

	if n != len(batch.Labels) || n != len(batch.Preds) || n != len(batch.Probs) {
		e.logger.Warn().
			Int("example", index).
			Int("labels", len(batch.Labels)).
			Int("preds", len(batch.Preds)).
			Int("probs", len(batch.Probs)).
			Msg("token sequence length mismatch, truncating to shorter length")

		batch = &TokenBatch{
			Labels: batch.Labels[:n],
			Preds:  batch.Preds[:n],
			Probs:  batch.Probs[:n],
		}
	}

	return batch, true
}

func (e *Evaluator) skip(index int, level string, err error, stats *RunStats) {
	stats.Skipped++
	countExample(level, outcomeSkipped)
	e.logger.Warn().Int("example", index).Err(err).Msg("skipping example")
}

// exampleVerdict collapses a token batch into one example-level verdict.
func exampleVerdict(batch *TokenBatch) (label, pred int, maxProb float64) {
	valid := false

	for i := range batch.Labels {
		if batch.Labels[i] == IgnoreLabel {
			continue
		}

		valid = true

		if batch.Labels[i] == classHallucinated {
			label = classHallucinated
		}

		if batch.Preds[i] == classHallucinated {
			pred = classHallucinated
		}

		if batch.Probs[i] > maxProb {
			maxProb = batch.Probs[i]
		}
	}

	if !valid {
		return classSupported, classSupported, 0.0
	}

	return label, pred, maxProb
}

// addSpanVerdict folds a detector's spans for one sample into the
// accumulator. With no continuous score available, the discrete
// prediction doubles as the AUROC score.
func addSpanVerdict(acc *Classifications, sample dataset.Sample, spans []detect.Span) {
	label := classSupported
	if len(sample.Labels) > 0 {
		label = classHallucinated
	}

	pred := classSupported
	if len(spans) > 0 {
		pred = classHallucinated
	}

	acc.Add(label, pred, float64(pred))
}
