package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const hfClientTimeout = 120 * time.Second

// HFConfig configures a Hugging Face inference endpoint running a
// seq2seq summarization model, e.g.
// https://api-inference.huggingface.co/models/m3hrdadfi/bert2bert-fa-wiki-summary.
type HFConfig struct {
	URL   string
	Token string
}

var _ Generator = (*HFGenerator)(nil)

// HFGenerator calls a Hugging Face text2text inference endpoint. It is
// the only backend that honors every GenerateParams field verbatim:
// the endpoint exposes the decoder's min/max length, beam count,
// no-repeat n-gram size, and early-stopping knobs directly.
type HFGenerator struct {
	cfg    HFConfig
	tok    Tokenizer
	client *http.Client
}

// NewHFGenerator builds a generator for the configured endpoint. The
// tokenizer bridges the pipeline's token sequences and the endpoint's
// text payloads.
func NewHFGenerator(cfg HFConfig, tok Tokenizer) (*HFGenerator, error) {
	if cfg.URL == "" {
		return nil, errors.New("endpoint URL is required")
	}
	if tok == nil {
		return nil, errors.New("tokenizer is required")
	}

	return &HFGenerator{
		cfg:    cfg,
		tok:    tok,
		client: &http.Client{Timeout: hfClientTimeout},
	}, nil
}

type hfParameters struct {
	MinLength         int  `json:"min_length"`
	MaxLength         int  `json:"max_length"`
	NumBeams          int  `json:"num_beams"`
	NoRepeatNGramSize int  `json:"no_repeat_ngram_size"`
	EarlyStopping     bool `json:"early_stopping"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfResult struct {
	SummaryText string `json:"summary_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (g *HFGenerator) Generate(
	ctx context.Context,
	input []int,
	params GenerateParams,
) ([]int, error) {
	text, err := g.tok.Decode(input, true)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	payload, err := json.Marshal(hfRequest{
		Inputs: text,
		Parameters: hfParameters{
			MinLength:         params.MinLength,
			MaxLength:         params.MaxLength,
			NumBeams:          params.NumBeams,
			NoRepeatNGramSize: params.NoRepeatNGramSize,
			EarlyStopping:     params.EarlyStopping,
		},
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.cfg.URL,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if unmarshalErr := json.Unmarshal(body, &apiErr); unmarshalErr == nil &&
			apiErr.Error != "" {
			return nil, fmt.Errorf(
				"inference failed (status = %d): %s",
				resp.StatusCode,
				apiErr.Error,
			)
		}

		return nil, fmt.Errorf("inference failed (status = %d)", resp.StatusCode)
	}

	var results []hfResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(results) == 0 {
		return nil, errors.New("inference results are missing")
	}

	return g.tok.Encode(results[0].SummaryText)
}
