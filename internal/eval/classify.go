// Package eval scores hallucination detectors against human-labeled
// ground truth at token, example, and character-overlap granularity.
package eval

import (
	"fmt"
	"sort"
	"strings"
)

// Binary classes: supported content vs hallucinated content.
const (
	classSupported    = 0
	classHallucinated = 1
)

// ClassMetrics is one class's one-vs-rest scores.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Report is the metrics contract exposed to CLIs and dashboards. The key
// shape must stay stable.
type Report struct {
	Supported            ClassMetrics `json:"supported"`
	Hallucinated         ClassMetrics `json:"hallucinated"`
	AUROC                float64      `json:"auroc"`
	Accuracy             *float64     `json:"accuracy,omitempty"`
	ClassificationReport string       `json:"classification_report,omitempty"`
}

// ReportOptions selects the optional report fields.
type ReportOptions struct {
	Accuracy   bool
	TextReport bool
}

// Classifications accumulates (label, prediction, score) triples across a
// corpus. It is exclusively owned by one evaluation run: created empty,
// mutated once per example in corpus order, finalized once. Not safe for
// concurrent use.
type Classifications struct {
	labels []int
	preds  []int
	scores []float64
}

func NewClassifications() *Classifications {
	return &Classifications{}
}

// Add records one scored item. score is the continuous class-1 score used
// for AUROC; pass the prediction itself when no continuous score exists.
func (c *Classifications) Add(label, pred int, score float64) {
	c.labels = append(c.labels, label)
	c.preds = append(c.preds, pred)
	c.scores = append(c.scores, score)
}

func (c *Classifications) Len() int {
	return len(c.labels)
}

// Report finalizes the accumulator. An empty accumulator yields the
// canonical zero-valued report: a "no data collected" sentinel, not a
// true metric.
func (c *Classifications) Report(opts ReportOptions) Report {
	if c.Len() == 0 {
		report := Report{}
		if opts.Accuracy {
			zero := 0.0
			report.Accuracy = &zero
		}

		return report
	}

	report := Report{
		Supported:    classMetrics(c.labels, c.preds, classSupported),
		Hallucinated: classMetrics(c.labels, c.preds, classHallucinated),
		AUROC:        auroc(c.labels, c.scores),
	}

	if opts.Accuracy {
		acc := accuracy(c.labels, c.preds)
		report.Accuracy = &acc
	}

	if opts.TextReport {
		report.ClassificationReport = c.textReport()
	}

	return report
}

func classMetrics(labels, preds []int, class int) ClassMetrics {
	var tp, predicted, actual int

	for i := range labels {
		if preds[i] == class {
			predicted++

			if labels[i] == class {
				tp++
			}
		}

		if labels[i] == class {
			actual++
		}
	}

	precision := ratio(tp, predicted)
	recall := ratio(tp, actual)

	return ClassMetrics{
		Precision: precision,
		Recall:    recall,
		F1:        f1Score(precision, recall),
	}
}

func accuracy(labels, preds []int) float64 {
	correct := 0

	for i := range labels {
		if labels[i] == preds[i] {
			correct++
		}
	}

	return ratio(correct, len(labels))
}

// auroc computes the area under the ROC curve by sweeping a threshold
// over the scores, grouping ties, and integrating with the trapezoid
// rule. A corpus with only one class present has no defined ranking
// quality; 0 is returned instead of NaN.
func auroc(labels []int, scores []float64) float64 {
	var pos, neg int

	for _, label := range labels {
		if label == classHallucinated {
			pos++
		} else {
			neg++
		}
	}

	if pos == 0 || neg == 0 {
		return 0
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var (
		tps, fps         int
		area             float64
		prevTPR, prevFPR float64
	)

	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			if labels[order[j]] == classHallucinated {
				tps++
			} else {
				fps++
			}

			j++
		}

		tpr := float64(tps) / float64(pos)
		fpr := float64(fps) / float64(neg)
		area += (fpr - prevFPR) * (tpr + prevTPR) / 2
		prevTPR, prevFPR = tpr, fpr
		i = j
	}

	return area
}

// textReport renders a per-class breakdown in the style of a detailed
// classification report.
func (c *Classifications) textReport() string {
	supported := classMetrics(c.labels, c.preds, classSupported)
	hallucinated := classMetrics(c.labels, c.preds, classHallucinated)

	var supportedCount, hallucinatedCount int

	for _, label := range c.labels {
		if label == classHallucinated {
			hallucinatedCount++
		} else {
			supportedCount++
		}
	}

	total := len(c.labels)
	macroP := (supported.Precision + hallucinated.Precision) / 2
	macroR := (supported.Recall + hallucinated.Recall) / 2
	macroF := (supported.F1 + hallucinated.F1) / 2
	weightP := weighted(supported.Precision, hallucinated.Precision, supportedCount, hallucinatedCount)
	weightR := weighted(supported.Recall, hallucinated.Recall, supportedCount, hallucinatedCount)
	weightF := weighted(supported.F1, hallucinated.F1, supportedCount, hallucinatedCount)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%14s %9s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support"))
	sb.WriteString(fmt.Sprintf("%14s %9.4f %9.4f %9.4f %9d\n", "Supported", supported.Precision, supported.Recall, supported.F1, supportedCount))
	sb.WriteString(fmt.Sprintf("%14s %9.4f %9.4f %9.4f %9d\n\n", "Hallucinated", hallucinated.Precision, hallucinated.Recall, hallucinated.F1, hallucinatedCount))
	sb.WriteString(fmt.Sprintf("%14s %9s %9s %9.4f %9d\n", "accuracy", "", "", accuracy(c.labels, c.preds), total))
	sb.WriteString(fmt.Sprintf("%14s %9.4f %9.4f %9.4f %9d\n", "macro avg", macroP, macroR, macroF, total))
	sb.WriteString(fmt.Sprintf("%14s %9.4f %9.4f %9.4f %9d\n", "weighted avg", weightP, weightR, weightF, total))

	return sb.String()
}

func weighted(a, b float64, countA, countB int) float64 {
	total := countA + countB
	if total == 0 {
		return 0
	}

	return (a*float64(countA) + b*float64(countB)) / float64(total)
}

func f1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}

	return 2 * precision * recall / (precision + recall)
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}

	return float64(numerator) / float64(denominator)
}
