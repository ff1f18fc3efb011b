package eval

import (
	"math"
	"strings"
	"testing"
)

func TestClassifications_EmptyYieldsZeroSentinel(t *testing.T) {
	acc := NewClassifications()

	report := acc.Report(ReportOptions{Accuracy: true})

	if report.Supported.Precision != 0 || report.Supported.Recall != 0 || report.Supported.F1 != 0 {
		t.Error("expected zero supported metrics for empty accumulator")
	}

	if report.Hallucinated.Precision != 0 || report.Hallucinated.Recall != 0 || report.Hallucinated.F1 != 0 {
		t.Error("expected zero hallucinated metrics for empty accumulator")
	}

	if report.AUROC != 0 {
		t.Error("expected zero AUROC for empty accumulator")
	}

	if report.Accuracy == nil || *report.Accuracy != 0 {
		t.Error("expected zero accuracy for empty accumulator")
	}
}

func TestClassifications_PerClassMetrics(t *testing.T) {
	acc := NewClassifications()

	// labels: 1 1 0 0, preds: 1 0 0 1
	acc.Add(1, 1, 0.9)
	acc.Add(1, 0, 0.2)
	acc.Add(0, 0, 0.1)
	acc.Add(0, 1, 0.8)

	report := acc.Report(ReportOptions{Accuracy: true})

	// Hallucinated: tp=1, predicted=2, actual=2.
	if report.Hallucinated.Precision != 0.5 || report.Hallucinated.Recall != 0.5 || report.Hallucinated.F1 != 0.5 {
		t.Errorf("unexpected hallucinated metrics: %+v", report.Hallucinated)
	}

	// Supported mirrors it on this corpus.
	if report.Supported.Precision != 0.5 || report.Supported.Recall != 0.5 {
		t.Errorf("unexpected supported metrics: %+v", report.Supported)
	}

	if *report.Accuracy != 0.5 {
		t.Errorf("expected accuracy 0.5, got %f", *report.Accuracy)
	}
}

func TestClassifications_ZeroDivisionPolicy(t *testing.T) {
	acc := NewClassifications()

	// One positive example the detector missed: no positive predictions.
	acc.Add(1, 0, 0.0)

	report := acc.Report(ReportOptions{})

	if report.Hallucinated.Precision != 0 {
		t.Errorf("expected precision 0 with no positive predictions, got %f", report.Hallucinated.Precision)
	}

	if report.Hallucinated.Recall != 0 {
		t.Errorf("expected recall 0, got %f", report.Hallucinated.Recall)
	}

	// Supported has no actual positives: recall must be 0, not NaN.
	if math.IsNaN(report.Supported.Recall) {
		t.Error("recall must never be NaN")
	}
}

func TestAUROC_PerfectRanking(t *testing.T) {
	acc := NewClassifications()
	acc.Add(1, 1, 0.9)
	acc.Add(1, 1, 0.8)
	acc.Add(0, 0, 0.2)
	acc.Add(0, 0, 0.1)

	report := acc.Report(ReportOptions{})

	if report.AUROC != 1.0 {
		t.Errorf("expected AUROC 1.0 for perfect ranking, got %f", report.AUROC)
	}
}

func TestAUROC_UninformativeScores(t *testing.T) {
	acc := NewClassifications()
	acc.Add(1, 0, 0.5)
	acc.Add(0, 0, 0.5)

	report := acc.Report(ReportOptions{})

	if report.AUROC != 0.5 {
		t.Errorf("expected AUROC 0.5 for constant scores, got %f", report.AUROC)
	}
}

func TestAUROC_SingleClassCorpus(t *testing.T) {
	acc := NewClassifications()
	acc.Add(0, 0, 0.1)
	acc.Add(0, 1, 0.9)

	report := acc.Report(ReportOptions{})

	if report.AUROC != 0 {
		t.Errorf("expected AUROC 0 when only one class is present, got %f", report.AUROC)
	}
}

func TestAUROC_DiscretePredictionsDegenerate(t *testing.T) {
	// Binary predictions as scores give the single-point ROC curve.
	acc := NewClassifications()
	acc.Add(1, 1, 1.0)
	acc.Add(1, 0, 0.0)
	acc.Add(0, 0, 0.0)
	acc.Add(0, 0, 0.0)

	report := acc.Report(ReportOptions{})

	// TPR at threshold 1 is 0.5, FPR 0; trapezoid to (1,1): 0.5*0 + rest.
	want := 0.75
	if math.Abs(report.AUROC-want) > 1e-9 {
		t.Errorf("expected degenerate AUROC %f, got %f", want, report.AUROC)
	}
}

func TestClassifications_MissedPositiveExample(t *testing.T) {
	// A corpus of exactly one example with gold label 1 and prediction 0.
	acc := NewClassifications()
	acc.Add(1, 0, 0.0)

	report := acc.Report(ReportOptions{})

	if report.Hallucinated.Recall != 0 {
		t.Errorf("expected hallucinated recall 0, got %f", report.Hallucinated.Recall)
	}

	if report.Hallucinated.Precision != 0 {
		t.Errorf("expected hallucinated precision defined as 0, got %f", report.Hallucinated.Precision)
	}
}

func TestClassifications_TextReport(t *testing.T) {
	acc := NewClassifications()
	acc.Add(1, 1, 0.9)
	acc.Add(0, 0, 0.1)

	report := acc.Report(ReportOptions{TextReport: true})

	for _, want := range []string{"Supported", "Hallucinated", "precision", "recall", "f1-score", "macro avg", "weighted avg"} {
		if !strings.Contains(report.ClassificationReport, want) {
			t.Errorf("classification report missing %q", want)
		}
	}
}
