package summarize

import (
	"context"
	"fmt"

	"longsum/internal/normalize"
)

// SummarizeDirect summarizes text in a single generation call. For
// ModeAuto the budget is resolved from the truncated input's token
// count.
func (p *Pipeline) SummarizeDirect(
	ctx context.Context,
	text string,
	mode Mode,
) (string, error) {
	normalized := normalize.Text(text)

	input, err := p.tok.EncodeTruncated(normalized, p.cfg.ModelInputCap)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}

	budget, err := ResolveDirect(mode, len(input))
	if err != nil {
		return "", err
	}

	return p.generate(ctx, input, budget, directBeams)
}
