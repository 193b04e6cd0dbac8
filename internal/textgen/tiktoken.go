package textgen

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the byte-pair encoding used when none is
// configured.
const DefaultEncoding = "cl100k_base"

var _ Tokenizer = (*TiktokenTokenizer)(nil)

// TiktokenTokenizer adapts a tiktoken byte-pair encoding to the
// Tokenizer capability.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding. An empty name falls
// back to DefaultEncoding.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}

	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Encode(text string) ([]int, error) {
	return t.enc.EncodeOrdinary(text), nil
}

func (t *TiktokenTokenizer) EncodeTruncated(
	text string,
	maxTokens int,
) ([]int, error) {
	tokens := t.enc.EncodeOrdinary(text)
	if maxTokens > 0 && len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	return tokens, nil
}

// Decode converts tokens back into text. Ordinary tiktoken encodings
// never emit special tokens, so skipSpecial is trivially satisfied.
func (t *TiktokenTokenizer) Decode(tokens []int, _ bool) (string, error) {
	return t.enc.Decode(tokens), nil
}
