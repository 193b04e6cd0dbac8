// Package summarize implements the length-aware summarization
// pipeline: normalize, route by token count, then summarize either in
// a single pass or chunk-by-chunk with a final merge pass. The model
// and tokenizer are injected capabilities (see internal/textgen).
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"longsum/internal/normalize"
	"longsum/internal/textgen"
)

const (
	// DefaultRouteThreshold is the token count above which input goes
	// through the chunked path. Equality still routes direct.
	DefaultRouteThreshold = 450
	// DefaultModelInputCap is the model's maximum input length; every
	// generation input is truncated to it.
	DefaultModelInputCap = 512

	directBeams = 5
	chunkBeams  = 4

	noRepeatNGramSize = 3
)

// Config tunes the pipeline. Zero fields fall back to defaults.
type Config struct {
	RouteThreshold int
	WindowTokens   int
	WindowOverlap  int
	ModelInputCap  int
	// Concurrency bounds parallel stage-1 generation; values <= 1
	// keep the chunk loop sequential.
	Concurrency int
	// CacheEntries and CacheTTL size the in-memory result cache;
	// leaving either at zero disables it.
	CacheEntries int
	CacheTTL     time.Duration
}

// Pipeline is safe for concurrent use as long as the injected
// capabilities are.
type Pipeline struct {
	tok   textgen.Tokenizer
	gen   textgen.Generator
	cfg   Config
	cache *resultCache
	log   *slog.Logger
}

// New validates cfg, applies defaults, and builds a pipeline around
// the injected capabilities.
func New(
	tok textgen.Tokenizer,
	gen textgen.Generator,
	cfg Config,
	log *slog.Logger,
) (*Pipeline, error) {
	if tok == nil {
		return nil, errors.New("tokenizer is required")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if log == nil {
		log = slog.Default()
	}

	if cfg.RouteThreshold <= 0 {
		cfg.RouteThreshold = DefaultRouteThreshold
	}
	if cfg.WindowTokens <= 0 {
		cfg.WindowTokens = DefaultWindowTokens
	}
	if cfg.WindowOverlap < 0 {
		cfg.WindowOverlap = DefaultWindowOverlap
	}
	if cfg.ModelInputCap <= 0 {
		cfg.ModelInputCap = DefaultModelInputCap
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	if cfg.WindowTokens <= cfg.WindowOverlap {
		return nil, fmt.Errorf(
			"window tokens (%d) must exceed window overlap (%d)",
			cfg.WindowTokens,
			cfg.WindowOverlap,
		)
	}

	return &Pipeline{
		tok:   tok,
		gen:   gen,
		cfg:   cfg,
		cache: newResultCache(cfg.CacheEntries, cfg.CacheTTL),
		log:   log,
	}, nil
}

// Summarize is the single public operation: it normalizes text, routes
// it by token count, and dispatches to the direct or chunked
// summarizer. mode must be one of short, medium, long, auto; anything
// else fails before any tokenization.
func (p *Pipeline) Summarize(
	ctx context.Context,
	text string,
	mode string,
) (string, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return "", err
	}

	normalized := normalize.Text(text)

	cacheKey := resultCacheKey(normalized, m)
	if summary, ok := p.cache.get(cacheKey, time.Now()); ok {
		p.log.DebugContext(ctx, "Summary is served from cache",
			"mode", m)

		return summary, nil
	}

	long, err := p.isLongNormalized(normalized)
	if err != nil {
		return "", err
	}

	start := time.Now()

	var summary string
	if long {
		summary, err = p.SummarizeChunked(ctx, normalized, m)
	} else {
		summary, err = p.SummarizeDirect(ctx, normalized, m)
	}
	if err != nil {
		return "", err
	}

	p.log.InfoContext(ctx, "Text is summarized",
		"mode", m,
		"chunked", long,
		"durationSeconds", time.Since(start).Seconds())

	p.cache.set(cacheKey, summary, time.Now())

	return summary, nil
}

// IsLong reports whether text should go through the chunked path. It
// normalizes with the pipeline's normalizer before counting so routing
// and summarization agree on what was seen.
func (p *Pipeline) IsLong(text string) (bool, error) {
	return p.isLongNormalized(normalize.Text(text))
}

func (p *Pipeline) isLongNormalized(normalized string) (bool, error) {
	tokens, err := p.tok.Encode(normalized)
	if err != nil {
		return false, fmt.Errorf("encode input: %w", err)
	}

	return len(tokens) > p.cfg.RouteThreshold, nil
}

// generate runs one generation call within budget and decodes the
// result. Output length stays within the budget by the generation
// capability's own decoding policy; it is not re-validated here.
func (p *Pipeline) generate(
	ctx context.Context,
	input []int,
	budget Budget,
	beams int,
) (string, error) {
	output, err := p.gen.Generate(ctx, input, textgen.GenerateParams{
		MinLength:         budget.Min,
		MaxLength:         budget.Max,
		NumBeams:          beams,
		NoRepeatNGramSize: noRepeatNGramSize,
		EarlyStopping:     true,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text, err := p.tok.Decode(output, true)
	if err != nil {
		return "", fmt.Errorf("decode output: %w", err)
	}

	return text, nil
}
