// Package dataset loads human-labeled hallucination samples from JSONL
// files. Each line is one sample: a prompt, the generated answer, and the
// gold hallucinated spans annotators marked in the answer.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lueurxax/hallucination-detect/internal/detect"
)

const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxBuffer     = 1024 * 1024
)

// Sample is one labeled example. Labels are gold spans; an empty list
// means the answer is fully supported. AnswerSentences, when present, is
// the sentence-segmented rendition of the answer that span detectors
// should judge instead of the raw answer.
type Sample struct {
	Prompt          string        `json:"prompt"`
	Answer          string        `json:"answer"`
	AnswerSentences string        `json:"answer_sentences,omitempty"`
	Labels          []detect.Span `json:"labels"`
	Split           string        `json:"split,omitempty"`
	TaskType        string        `json:"task_type,omitempty"`
	Dataset         string        `json:"dataset,omitempty"`
	Language        string        `json:"language,omitempty"`
}

// DetectorAnswer is the answer text a span detector should be shown.
func (s Sample) DetectorAnswer() string {
	if s.AnswerSentences != "" {
		return s.AnswerSentences
	}

	return s.Answer
}

// Read parses JSONL samples from r. Blank lines are ignored; malformed
// lines are counted and skipped, not fatal.
func Read(r io.Reader) ([]Sample, int, error) {
	samples := []Sample{}
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var sample Sample
		if err := json.Unmarshal([]byte(line), &sample); err != nil {
			skipped++

			continue
		}

		samples = append(samples, sample)
	}

	if err := scanner.Err(); err != nil {
		return samples, skipped, fmt.Errorf("read samples: %w", err)
	}

	return samples, skipped, nil
}

// Load reads JSONL samples from a file.
func Load(path string) ([]Sample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Read(f)
}
