package detect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// TransformerDetector detects hallucinations with an external
// token-classification model. The model and its tokenizer live behind the
// TokenClassifier boundary; this type only interprets the classified
// token stream.
type TransformerDetector struct {
	classifier TokenClassifier
	prompts    Prompts
	logger     *zerolog.Logger
}

func NewTransformer(classifier TokenClassifier, prompts Prompts, logger *zerolog.Logger) *TransformerDetector {
	return &TransformerDetector{
		classifier: classifier,
		prompts:    prompts,
		logger:     logger,
	}
}

func (d *TransformerDetector) Predict(ctx context.Context, passages []string, answer, question, format string) (*Result, error) {
	return d.PredictPrompt(ctx, d.prompts.FormPrompt(passages, question), answer, format)
}

func (d *TransformerDetector) PredictPrompt(ctx context.Context, prompt, answer, format string) (*Result, error) {
	if format != FormatTokens && format != FormatSpans {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	classification, err := d.classifier.ClassifyTokens(ctx, prompt, answer)
	if err != nil {
		return nil, fmt.Errorf("classify tokens: %w", err)
	}

	answerTokens := answerRegion(classification)

	if format == FormatTokens {
		verdicts := make([]TokenVerdict, 0, len(answerTokens))

		for _, tok := range answerTokens {
			if tok.Ignored {
				continue
			}

			verdicts = append(verdicts, TokenVerdict{
				Token:       tok.Token,
				Class:       tok.Class,
				Probability: tok.Probability,
			})
		}

		return &Result{Tokens: verdicts}, nil
	}

	offset := answerCharOffset(classification)
	spans := BuildSpans(answer, offset, answerTokens)

	d.logger.Debug().
		Int("tokens", len(answerTokens)).
		Int("spans", len(spans)).
		Msg("reconstructed hallucination spans")

	return &Result{Spans: spans}, nil
}

// answerRegion returns the token stream from the first answer token
// onward. Tokens before the boundary are context and never scored.
func answerRegion(c *TokenClassification) []TokenPrediction {
	start := c.AnswerStart
	if start < 0 {
		start = 0
	}

	if start > len(c.Tokens) {
		return nil
	}

	return c.Tokens[start:]
}

// answerCharOffset is the character offset of the first answer token, used
// to rebase token offsets onto the answer substring.
func answerCharOffset(c *TokenClassification) int {
	if c.AnswerStart >= 0 && c.AnswerStart < len(c.Tokens) {
		return c.Tokens[c.AnswerStart].CharStart
	}

	return 0
}
