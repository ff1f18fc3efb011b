package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	classifierDefaultTimeout = 60 * time.Second
	classifierPath           = "/classify"
	maxClassifierBodySize    = 10 * 1024 * 1024 // 10MB
)

var ErrClassifierServer = errors.New("classifier server error")

// HTTPClassifier talks to a token-classification inference server. The
// server tokenizes the prompt/answer pair, runs the model, and returns one
// entry per token with the tokenizer's character offsets, the argmax
// class, and the class-1 probability.
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = classifierDefaultTimeout
	}

	return &HTTPClassifier{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

type classifyResponse struct {
	Tokens []struct {
		Token       string  `json:"token"`
		Start       int     `json:"start"`
		End         int     `json:"end"`
		Class       int     `json:"class"`
		Probability float64 `json:"probability"`
		Ignored     bool    `json:"ignored"`
	} `json:"tokens"`
	AnswerStart int `json:"answer_start"`
}

func (c *HTTPClassifier) ClassifyTokens(ctx context.Context, prompt, answer string) (*TokenClassification, error) {
	payload, err := json.Marshal(classifyRequest{Prompt: prompt, Answer: answer})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classifierPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create classify request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrClassifierServer, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifierBodySize))
	if err != nil {
		return nil, fmt.Errorf("read classify response: %w", err)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}

	classification := &TokenClassification{
		Tokens:      make([]TokenPrediction, 0, len(parsed.Tokens)),
		AnswerStart: parsed.AnswerStart,
	}

	for _, tok := range parsed.Tokens {
		classification.Tokens = append(classification.Tokens, TokenPrediction{
			Token:       tok.Token,
			CharStart:   tok.Start,
			CharEnd:     tok.End,
			Class:       tok.Class,
			Probability: tok.Probability,
			Ignored:     tok.Ignored,
		})
	}

	return classification, nil
}
