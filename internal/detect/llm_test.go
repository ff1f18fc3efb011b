package detect

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLLM() *LLMDetector {
	logger := zerolog.Nop()

	return &LLMDetector{logger: &logger}
}

func TestParseSpans_ValidResponse(t *testing.T) {
	d := newTestLLM()
	answer := "The capital of France is Paris. The population of France is 69 million."

	spans := d.parseSpans(`{"hallucination list": ["The population of France is 69 million."]}`, answer)

	require.Len(t, spans, 1)
	assert.Equal(t, 32, spans[0].Start)
	assert.Equal(t, len(answer), spans[0].End)
	assert.Equal(t, "The population of France is 69 million.", spans[0].Text)
}

func TestParseSpans_JSONWrappedInProse(t *testing.T) {
	d := newTestLLM()
	answer := "the sky is green"

	content := "Sure! Here is the result:\n{\"hallucination list\": [\"green\"]}\nLet me know if you need more."
	spans := d.parseSpans(content, answer)

	require.Len(t, spans, 1)
	assert.Equal(t, "green", spans[0].Text)
	assert.Equal(t, 11, spans[0].Start)
}

func TestParseSpans_EmptyList(t *testing.T) {
	d := newTestLLM()

	spans := d.parseSpans(`{"hallucination list": []}`, "all supported")

	assert.Empty(t, spans)
}

func TestParseSpans_MalformedJSONYieldsZeroSpans(t *testing.T) {
	d := newTestLLM()

	assert.Empty(t, d.parseSpans(`{"hallucination list": [unterminated`, "answer"))
	assert.Empty(t, d.parseSpans("no json here at all", "answer"))
}

func TestParseSpans_SpanMissingFromAnswerIsDropped(t *testing.T) {
	d := newTestLLM()

	spans := d.parseSpans(`{"hallucination list": ["not present", "present"]}`, "this text is present")

	require.Len(t, spans, 1)
	assert.Equal(t, "present", spans[0].Text)
}

func TestLLMDetector_TokensFormatIsConfigurationError(t *testing.T) {
	d := newTestLLM()

	_, err := d.PredictPrompt(context.Background(), "prompt", "answer", FormatTokens)

	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
