package eval

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	levelToken   = "token"
	levelExample = "example"
	levelChar    = "char"

	outcomeEvaluated = "evaluated"
	outcomeSkipped   = "skipped"
)

var errMissingBatchResult = errors.New("missing result in detector batch")

var examplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hallucination_eval_examples_total",
	Help: "Examples folded into or skipped from evaluation accumulators",
}, []string{"level", "outcome"})

func countExample(level, outcome string) {
	examplesTotal.WithLabelValues(level, outcome).Inc()
}
