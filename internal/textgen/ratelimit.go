package textgen

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

var _ Generator = (*RateLimitedGenerator)(nil)

// RateLimitedGenerator paces calls to a wrapped Generator so a shared
// model backend is not flooded, e.g. by parallel chunk summarization.
// The pipeline itself never retries or throttles; hosts wrap the
// capability instead.
type RateLimitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator allows one call per interval with the given
// burst. burst < 1 is treated as 1.
func NewRateLimitedGenerator(
	inner Generator,
	interval time.Duration,
	burst int,
) *RateLimitedGenerator {
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedGenerator{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (g *RateLimitedGenerator) Generate(
	ctx context.Context,
	input []int,
	params GenerateParams,
) ([]int, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	return g.inner.Generate(ctx, input, params)
}
