package detect

import "testing"

func tok(start, end, class int, prob float64) TokenPrediction {
	return TokenPrediction{CharStart: start, CharEnd: end, Class: class, Probability: prob}
}

func TestBuildSpans_MergesAdjacentTokens(t *testing.T) {
	answer := "the cat sat on the mat"

	spans := BuildSpans(answer, 0, []TokenPrediction{
		tok(0, 3, ClassHallucinated, 0.6),
		tok(4, 7, ClassHallucinated, 0.9),
		tok(8, 11, ClassHallucinated, 0.7),
		tok(12, 14, ClassSupported, 0.1),
	})

	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Start != 0 || span.End != 11 {
		t.Errorf("expected span [0,11), got [%d,%d)", span.Start, span.End)
	}

	if span.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9 (max of merged tokens), got %f", span.Confidence)
	}

	if span.Text != "the cat sat" {
		t.Errorf("unexpected span text %q", span.Text)
	}
}

func TestBuildSpans_SupportedTokenSplitsRuns(t *testing.T) {
	answer := "aaaa bbbb cccc"

	spans := BuildSpans(answer, 0, []TokenPrediction{
		tok(0, 4, ClassHallucinated, 0.8),
		tok(5, 9, ClassSupported, 0.2),
		tok(10, 14, ClassHallucinated, 0.7),
	})

	if len(spans) != 2 {
		t.Fatalf("expected 2 spans split by a supported token, got %d", len(spans))
	}

	if spans[0].End > spans[1].Start {
		t.Errorf("spans overlap: [%d,%d) and [%d,%d)", spans[0].Start, spans[0].End, spans[1].Start, spans[1].End)
	}
}

func TestBuildSpans_TrailingOpenSpanIsFlushed(t *testing.T) {
	answer := "hello world"

	spans := BuildSpans(answer, 0, []TokenPrediction{
		tok(0, 5, ClassSupported, 0.1),
		tok(6, 11, ClassHallucinated, 0.95),
	})

	if len(spans) != 1 {
		t.Fatalf("expected trailing span to be flushed, got %d spans", len(spans))
	}

	if spans[0].Text != "world" {
		t.Errorf("unexpected span text %q", spans[0].Text)
	}
}

func TestBuildSpans_RebasesOntoAnswerOffset(t *testing.T) {
	// Token offsets point into the full prompt+answer text; the answer
	// begins at character 100.
	answer := "paris is big"

	spans := BuildSpans(answer, 100, []TokenPrediction{
		tok(100, 105, ClassHallucinated, 0.8),
	})

	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	if spans[0].Start != 0 || spans[0].End != 5 {
		t.Errorf("expected rebased span [0,5), got [%d,%d)", spans[0].Start, spans[0].End)
	}

	if spans[0].Text != "paris" {
		t.Errorf("unexpected span text %q", spans[0].Text)
	}
}

func TestBuildSpans_SkipsZeroWidthAndIgnoredTokens(t *testing.T) {
	answer := "abcdef"

	spans := BuildSpans(answer, 0, []TokenPrediction{
		{CharStart: 0, CharEnd: 0, Class: ClassHallucinated, Probability: 0.99},
		{CharStart: 0, CharEnd: 3, Class: ClassHallucinated, Probability: 0.8, Ignored: true},
		tok(3, 6, ClassSupported, 0.1),
	})

	if len(spans) != 0 {
		t.Fatalf("expected no spans from special/ignored tokens, got %d", len(spans))
	}
}

func TestBuildSpans_GapBetweenClass1TokensStillMerges(t *testing.T) {
	// Sub-word tokenization can leave offset gaps between consecutive
	// tokens; sequence order wins and the run stays one span.
	answer := "abcdefghij"

	spans := BuildSpans(answer, 0, []TokenPrediction{
		tok(0, 3, ClassHallucinated, 0.5),
		tok(6, 9, ClassHallucinated, 0.6),
	})

	if len(spans) != 1 {
		t.Fatalf("expected gap-spanning merge into 1 span, got %d", len(spans))
	}

	if spans[0].Start != 0 || spans[0].End != 9 {
		t.Errorf("expected span [0,9), got [%d,%d)", spans[0].Start, spans[0].End)
	}
}

func TestBuildSpans_EmptyStream(t *testing.T) {
	if spans := BuildSpans("anything", 0, nil); len(spans) != 0 {
		t.Fatalf("expected empty span list for empty stream, got %d", len(spans))
	}
}

func TestBuildSpans_OrderedAndNonOverlapping(t *testing.T) {
	answer := "0123456789abcdefghij"

	stream := []TokenPrediction{
		tok(0, 2, ClassHallucinated, 0.3),
		tok(2, 4, ClassSupported, 0.1),
		tok(4, 6, ClassHallucinated, 0.5),
		tok(6, 8, ClassHallucinated, 0.4),
		tok(8, 10, ClassSupported, 0.2),
		tok(10, 12, ClassHallucinated, 0.9),
	}

	spans := BuildSpans(answer, 0, stream)

	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	for i := 1; i < len(spans); i++ {
		if spans[i-1].End > spans[i].Start {
			t.Errorf("span %d overlaps span %d", i-1, i)
		}

		if spans[i-1].Start > spans[i].Start {
			t.Errorf("spans out of order at %d", i)
		}
	}
}
