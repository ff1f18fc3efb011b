package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_SkipsBlankAndMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"prompt":"p1","answer":"a1","labels":[{"start":0,"end":2,"text":"a1"}]}`,
		``,
		`not json`,
		`{"prompt":"p2","answer":"a2","labels":[]}`,
	}, "\n")

	samples, skipped, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, samples, 2)
	assert.Equal(t, "p1", samples[0].Prompt)
	require.Len(t, samples[0].Labels, 1)
	assert.Equal(t, 2, samples[0].Labels[0].End)
	assert.Empty(t, samples[1].Labels)
}

func TestDetectorAnswer_PrefersSentences(t *testing.T) {
	sample := Sample{Answer: "raw", AnswerSentences: "segmented"}
	assert.Equal(t, "segmented", sample.DetectorAnswer())

	sample.AnswerSentences = ""
	assert.Equal(t, "raw", sample.DetectorAnswer())
}
