package summarize

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"longsum/internal/normalize"
)

// SummarizeChunked summarizes text in two stages: every window of the
// token sequence is summarized independently (stage 1), then the
// joined stage-1 summaries are summarized once more with the final
// budget (stage 2). A single-window document still runs both stages so
// the contract stays uniform; routing around that is the router's job,
// not this method's.
func (p *Pipeline) SummarizeChunked(
	ctx context.Context,
	text string,
	mode Mode,
) (string, error) {
	normalized := normalize.Text(text)

	tokens, err := p.tok.Encode(normalized)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}

	// Both budgets derive from the whole text's token count and are
	// reused for every chunk.
	chunkBudget, finalBudget, err := ResolveChunked(mode, len(tokens))
	if err != nil {
		return "", err
	}

	chunks, err := p.decodeWindows(
		windows(tokens, p.cfg.WindowTokens, p.cfg.WindowOverlap),
	)
	if err != nil {
		return "", err
	}

	p.log.DebugContext(ctx, "Text is split into chunks",
		"mode", mode,
		"tokenCount", len(tokens),
		"chunkCount", len(chunks))

	intermediate := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			input, encodeErr := p.tok.EncodeTruncated(chunk, p.cfg.ModelInputCap)
			if encodeErr != nil {
				return fmt.Errorf("encode chunk %d: %w", i, encodeErr)
			}

			summary, generateErr := p.generate(gctx, input, chunkBudget, chunkBeams)
			if generateErr != nil {
				return fmt.Errorf("summarize chunk %d: %w", i, generateErr)
			}

			intermediate[i] = summary

			return nil
		})
	}

	// Any chunk failure aborts the whole request; partial merges are
	// never attempted.
	if err = g.Wait(); err != nil {
		return "", err
	}

	merged := strings.Join(intermediate, " ")

	input, err := p.tok.EncodeTruncated(merged, p.cfg.ModelInputCap)
	if err != nil {
		return "", fmt.Errorf("encode merged summaries: %w", err)
	}

	return p.generate(ctx, input, finalBudget, directBeams)
}

func (p *Pipeline) decodeWindows(wins [][]int) ([]string, error) {
	chunks := make([]string, 0, len(wins))
	for _, w := range wins {
		text, err := p.tok.Decode(w, true)
		if err != nil {
			return nil, fmt.Errorf("decode window: %w", err)
		}
		chunks = append(chunks, text)
	}

	return chunks, nil
}
