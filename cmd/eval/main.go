// Package main evaluates a hallucination detector against a labeled
// JSONL dataset and prints token-, example-, or character-level metrics.
//
// A finalized run can optionally be persisted to PostgreSQL when a DSN
// is configured.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/hallucination-detect/internal/config"
	"github.com/lueurxax/hallucination-detect/internal/dataset"
	"github.com/lueurxax/hallucination-detect/internal/detect"
	"github.com/lueurxax/hallucination-detect/internal/eval"
	"github.com/lueurxax/hallucination-detect/internal/storage"
)

const (
	levelToken   = "token"
	levelExample = "example"
	levelChar    = "char"

	errFmt = "%v\n"
)

var (
	errUnknownLevel  = errors.New("unknown evaluation level")
	errF1BelowFloor  = errors.New("hallucinated F1 below threshold")
	errEmptyDataset  = errors.New("dataset contains no samples")
	errTokenLevelLLM = errors.New("token-level evaluation requires the transformer method")
)

type evalFlags struct {
	inputPath string
	method    string
	level     string
	batchSize int
	minF1     float64
	verbose   bool
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if err := run(&logger); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}
}

func run(logger *zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := parseFlags(cfg)

	samples, skippedLines, err := dataset.Load(flags.inputPath)
	if err != nil {
		return err
	}

	if skippedLines > 0 {
		logger.Warn().Int("lines", skippedLines).Msg("skipped malformed dataset lines")
	}

	if len(samples) == 0 {
		return errEmptyDataset
	}

	ctx := context.Background()

	detector, classifier, err := buildDetector(cfg, flags, logger)
	if err != nil {
		return err
	}

	evaluator := eval.New(logger)
	opts := eval.ReportOptions{Accuracy: true, TextReport: flags.verbose}

	report, overlap, stats, err := evaluate(ctx, evaluator, detector, classifier, samples, flags, opts)
	if err != nil {
		return err
	}

	printResults(flags, report, overlap, stats)

	if cfg.PostgresDSN != "" {
		if err := persistRun(ctx, cfg, flags, report, overlap, stats, logger); err != nil {
			logger.Warn().Err(err).Msg("failed to persist evaluation run")
		}
	}

	if flags.minF1 >= 0 && flags.level != levelChar && report.Hallucinated.F1 < flags.minF1 {
		return fmt.Errorf("%w: %.4f < %.4f", errF1BelowFloor, report.Hallucinated.F1, flags.minF1)
	}

	return nil
}

func parseFlags(cfg *config.Config) evalFlags {
	flags := evalFlags{}

	flag.StringVar(&flags.inputPath, "input", "data/eval.jsonl", "Path to JSONL dataset")
	flag.StringVar(&flags.method, "method", cfg.DetectorMethod, "Detector method: transformer or llm")
	flag.StringVar(&flags.level, "level", levelExample, "Evaluation level: token, example, or char")
	flag.IntVar(&flags.batchSize, "batch-size", cfg.EvalBatchSize, "Detector batch size for example-level evaluation (1 disables batching)")
	flag.Float64Var(&flags.minF1, "min-f1", -1, "Fail if hallucinated-class F1 is below this value (disabled if <0)")
	flag.BoolVar(&flags.verbose, "verbose", false, "Print a detailed classification report")

	flag.Parse()

	return flags
}

func buildDetector(cfg *config.Config, flags evalFlags, logger *zerolog.Logger) (detect.Detector, detect.TokenClassifier, error) {
	switch flags.method {
	case detect.MethodTransformer:
		classifier := detect.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout)

		return detect.NewTransformer(classifier, detect.Prompts{}, logger), classifier, nil
	case detect.MethodLLM:
		return detect.NewLLM(cfg, detect.Prompts{}, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", detect.ErrUnsupportedMethod, flags.method)
	}
}

func evaluate(
	ctx context.Context,
	evaluator *eval.Evaluator,
	detector detect.Detector,
	classifier detect.TokenClassifier,
	samples []dataset.Sample,
	flags evalFlags,
	opts eval.ReportOptions,
) (eval.Report, *eval.OverlapMetrics, eval.RunStats, error) {
	spanSource := eval.DetectorSpanSource{Detector: detector}

	switch flags.level {
	case levelToken:
		if classifier == nil {
			return eval.Report{}, nil, eval.RunStats{}, errTokenLevelLLM
		}

		report, stats := evaluator.TokenLevel(ctx, eval.ClassifierTokenSource{Classifier: classifier}, samples, opts)

		return report, nil, stats, nil
	case levelExample:
		if classifier != nil {
			report, stats := evaluator.ExampleLevel(ctx, eval.ClassifierTokenSource{Classifier: classifier}, samples, opts)

			return report, nil, stats, nil
		}

		if flags.batchSize > 1 {
			report, stats := evaluator.SpanExampleLevelBatch(ctx, spanSource, samples, flags.batchSize, opts)

			return report, nil, stats, nil
		}

		report, stats := evaluator.SpanExampleLevel(ctx, spanSource, samples, opts)

		return report, nil, stats, nil
	case levelChar:
		overlap, stats := evaluator.CharLevel(ctx, spanSource, samples)

		return eval.Report{}, &overlap, stats, nil
	default:
		return eval.Report{}, nil, eval.RunStats{}, fmt.Errorf("%w: %q", errUnknownLevel, flags.level)
	}
}

func printResults(flags evalFlags, report eval.Report, overlap *eval.OverlapMetrics, stats eval.RunStats) {
	fmt.Printf("Evaluation Summary\n")
	fmt.Printf("  Method: %s  Level: %s\n", flags.method, flags.level)
	fmt.Printf("  Examples: %d evaluated, %d skipped\n", stats.Evaluated, stats.Skipped)

	if overlap != nil {
		fmt.Printf("  Char Precision: %.4f\n", overlap.Precision)
		fmt.Printf("  Char Recall: %.4f\n", overlap.Recall)
		fmt.Printf("  Char F1: %.4f\n", overlap.F1)

		return
	}

	fmt.Printf("\nHallucination Detection (Class 1):\n")
	fmt.Printf("  Precision: %.4f\n", report.Hallucinated.Precision)
	fmt.Printf("  Recall: %.4f\n", report.Hallucinated.Recall)
	fmt.Printf("  F1: %.4f\n", report.Hallucinated.F1)

	fmt.Printf("\nSupported Content (Class 0):\n")
	fmt.Printf("  Precision: %.4f\n", report.Supported.Precision)
	fmt.Printf("  Recall: %.4f\n", report.Supported.Recall)
	fmt.Printf("  F1: %.4f\n", report.Supported.F1)

	fmt.Printf("\nAUROC: %.4f\n", report.AUROC)

	if report.Accuracy != nil {
		fmt.Printf("Accuracy: %.4f\n", *report.Accuracy)
	}

	if report.ClassificationReport != "" {
		fmt.Printf("\nDetailed Classification Report:\n%s\n", report.ClassificationReport)
	}
}

func persistRun(
	ctx context.Context,
	cfg *config.Config,
	flags evalFlags,
	report eval.Report,
	overlap *eval.OverlapMetrics,
	stats eval.RunStats,
	logger *zerolog.Logger,
) error {
	db, err := storage.New(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	var payload []byte

	if overlap != nil {
		payload, err = json.Marshal(overlap)
	} else {
		payload, err = json.Marshal(report)
	}

	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	id, err := db.SaveRun(ctx, storage.EvalRun{
		Method:     flags.method,
		Level:      flags.level,
		Dataset:    flags.inputPath,
		Evaluated:  stats.Evaluated,
		Skipped:    stats.Skipped,
		ReportJSON: payload,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("run_id", id).Msg("evaluation run persisted")

	return nil
}
