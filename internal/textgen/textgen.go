// Package textgen defines the tokenizer and generation capabilities
// the summarization pipeline depends on, plus adapters for concrete
// backends. The pipeline never touches a model or vocabulary directly;
// it only sees these interfaces.
package textgen

import "context"

// Tokenizer converts text to and from model token identifiers. An
// implementation must be deterministic: identical text always encodes
// to the identical token sequence.
type Tokenizer interface {
	// Encode tokenizes text into token identifiers.
	Encode(text string) ([]int, error)
	// EncodeTruncated tokenizes text and truncates the result to at
	// most maxTokens tokens. maxTokens <= 0 means no limit.
	EncodeTruncated(text string, maxTokens int) ([]int, error)
	// Decode converts token identifiers back into text. When
	// skipSpecial is set, model-internal control tokens are dropped.
	Decode(tokens []int, skipSpecial bool) (string, error)
}

// GenerateParams configures one generation call. The backend must keep
// the output length within [MinLength, MaxLength] tokens.
type GenerateParams struct {
	MinLength         int
	MaxLength         int
	NumBeams          int
	NoRepeatNGramSize int
	EarlyStopping     bool
}

// Generator produces one output token sequence for one input token
// sequence. Single unpadded sequences make the attention mask
// all-ones, so the interface omits it.
type Generator interface {
	Generate(ctx context.Context, input []int, params GenerateParams) ([]int, error)
}
