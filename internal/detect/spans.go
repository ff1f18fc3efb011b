package detect

// Span reconstruction: turn an ordered per-token prediction stream into a
// minimal list of contiguous hallucinated character spans over the answer
// text.
//
// The merge loop is a two-state machine: either no span is open, or one
// span is open and each further class-1 token extends it. Two adjacent
// class-1 tokens always merge regardless of any gap between their
// character offsets — sequence order is trusted over offset continuity,
// since sub-word tokenization can introduce boundary artifacts.

type mergeState int

const (
	noOpenSpan mergeState = iota
	openSpan
)

type spanBuilder struct {
	state      mergeState
	start      int
	end        int
	confidence float64
}

func (b *spanBuilder) observe(rel Span, probability float64, hallucinated bool, answer string, out []Span) []Span {
	if hallucinated {
		if b.state == noOpenSpan {
			b.state = openSpan
			b.start = rel.Start
			b.end = rel.End
			b.confidence = probability
		} else {
			b.end = rel.End
			if probability > b.confidence {
				b.confidence = probability
			}
		}

		return out
	}

	return b.flush(answer, out)
}

func (b *spanBuilder) flush(answer string, out []Span) []Span {
	if b.state == noOpenSpan {
		return out
	}

	b.state = noOpenSpan

	return append(out, Span{
		Start:      b.start,
		End:        b.end,
		Text:       sliceAnswer(answer, b.start, b.end),
		Confidence: b.confidence,
	})
}

// BuildSpans merges adjacent hallucinated tokens into contiguous spans.
// answerCharOffset is the character offset of the first answer token in
// the tokenized text; token offsets are rebased onto the answer substring.
// Context and zero-width tokens are skipped. Spans come out in
// left-to-right order and never overlap. Zero eligible tokens yield an
// empty list.
func BuildSpans(answer string, answerCharOffset int, tokens []TokenPrediction) []Span {
	spans := []Span{}
	builder := &spanBuilder{}

	for _, tok := range tokens {
		if tok.Ignored {
			continue
		}

		if tok.CharStart == tok.CharEnd {
			continue
		}

		rel := Span{Start: tok.CharStart - answerCharOffset, End: tok.CharEnd - answerCharOffset}
		spans = builder.observe(rel, tok.Probability, tok.Class == ClassHallucinated, answer, spans)
	}

	return builder.flush(answer, spans)
}

func sliceAnswer(answer string, start, end int) string {
	if start < 0 {
		start = 0
	}

	if end > len(answer) {
		end = len(answer)
	}

	if start >= end {
		return ""
	}

	return answer[start:end]
}
