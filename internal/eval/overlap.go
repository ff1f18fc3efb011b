package eval

import "github.com/lueurxax/hallucination-detect/internal/detect"

// OverlapMetrics is the corpus-level character-overlap score.
type OverlapMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// OverlapStats accumulates character-overlap totals between predicted and
// gold spans across a corpus. Like Classifications, it is owned by a
// single run and never shared.
//
// Overlap is summed over every (predicted, gold) pair: a character
// covered by two overlapping spans on the same side counts twice. That
// reproduces the original total-overlap arithmetic the fixtures depend
// on; deduplication would change precision/recall on pathological inputs.
type OverlapStats struct {
	overlap   int
	predicted int
	gold      int
}

func NewOverlapStats() *OverlapStats {
	return &OverlapStats{}
}

// AddExample folds one example's predicted and gold spans into the totals.
func (s *OverlapStats) AddExample(predicted, gold []detect.Span) {
	for _, span := range predicted {
		s.predicted += span.End - span.Start
	}

	for _, span := range gold {
		s.gold += span.End - span.Start
	}

	for _, pred := range predicted {
		for _, g := range gold {
			start := pred.Start
			if g.Start > start {
				start = g.Start
			}

			end := pred.End
			if g.End < end {
				end = g.End
			}

			if end > start {
				s.overlap += end - start
			}
		}
	}
}

// Metrics finalizes the totals. Zero predicted or gold characters yield
// zero precision or recall rather than a division error.
func (s *OverlapStats) Metrics() OverlapMetrics {
	precision := ratio(s.overlap, s.predicted)
	recall := ratio(s.overlap, s.gold)

	return OverlapMetrics{
		Precision: precision,
		Recall:    recall,
		F1:        f1Score(precision, recall),
	}
}
