package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	// Room above MaxLength so the response is not cut mid-sentence
	// before the instructed limit is reached.
	openAIOutputTokenHeadroom = 2

	openAIInstructions = `You are the decoder of an abstractive summarization pipeline.

Rules:
- Summarize the provided text; output only the summary, nothing else.
- The summary must be between %d and %d tokens long.
- Never repeat the same phrase of %d or more words.
- Stay neutral and objective.
- Write in the same language as the input (Persian input gets a Persian summary).`
)

var _ Generator = (*OpenAIGenerator)(nil)

// OpenAIGenerator approximates the generation capability with OpenAI's
// Responses API for hosts without a self-hosted seq2seq model. The API
// exposes no beam-search or n-gram decoder knobs, so length and
// repetition constraints are carried in the instructions and
// MaxOutputTokens instead.
type OpenAIGenerator struct {
	client openai.Client
	tok    Tokenizer
}

// NewOpenAIGenerator builds a generator backed by OpenAI. The
// tokenizer bridges the pipeline's token sequences and the API's text
// payloads.
func NewOpenAIGenerator(apiKey string, tok Tokenizer) (*OpenAIGenerator, error) {
	if tok == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}

	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		tok:    tok,
	}, nil
}

func (g *OpenAIGenerator) Generate(
	ctx context.Context,
	input []int,
	params GenerateParams,
) ([]int, error) {
	text, err := g.tok.Decode(input, true)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	instructions := fmt.Sprintf(
		openAIInstructions,
		params.MinLength,
		params.MaxLength,
		params.NoRepeatNGramSize,
	)

	resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           openai.ChatModelGPT5Mini2025_08_07,
		MaxOutputTokens: openai.Int(int64(params.MaxLength * openAIOutputTokenHeadroom)),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	summary := strings.TrimSpace(resp.OutputText())
	if summary == "" {
		return nil, fmt.Errorf("output text is missing (status = %s)", resp.Status)
	}

	return g.tok.Encode(summary)
}
