// Package main runs a hallucination detector over a single prompt/answer
// pair and prints the predicted spans or token verdicts as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/hallucination-detect/internal/config"
	"github.com/lueurxax/hallucination-detect/internal/detect"
)

const errFmt = "%v\n"

type request struct {
	Prompt   string   `json:"prompt"`
	Passages []string `json:"passages"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
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

	inputPath := flag.String("input", "-", "Path to a JSON request ('-' reads stdin)")
	method := flag.String("method", cfg.DetectorMethod, "Detector method: transformer or llm")
	format := flag.String("format", detect.FormatSpans, "Output format: tokens or spans")
	flag.Parse()

	req, err := readRequest(*inputPath)
	if err != nil {
		return err
	}

	cfg.DetectorMethod = *method

	var classifier detect.TokenClassifier
	if *method == detect.MethodTransformer {
		classifier = detect.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout)
	}

	detector, err := detect.New(cfg, classifier, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var result *detect.Result

	if req.Prompt != "" {
		result, err = detector.PredictPrompt(ctx, req.Prompt, req.Answer, *format)
	} else {
		result, err = detector.Predict(ctx, req.Passages, req.Answer, req.Question, *format)
	}

	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}

func readRequest(path string) (*request, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	req := &request{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	return req, nil
}
