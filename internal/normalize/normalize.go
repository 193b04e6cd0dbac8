// Package normalize canonicalizes Persian text before it is tokenized
// or counted. All downstream components must see the same normalized
// form, otherwise routing and summarization disagree on input length.
package normalize

import (
	"regexp"
	"strings"
)

// Options control which normalization steps run. The zero value
// enables every step, which is what the pipeline uses.
type Options struct {
	// KeepHalfSpace keeps U+200C (zero-width non-joiner) instead of
	// replacing it with an ordinary space.
	KeepHalfSpace bool
	// KeepSymbols keeps quotation, bracket, and list punctuation that
	// would otherwise be stripped.
	KeepSymbols bool
}

const zeroWidthNonJoiner = "‌"

// Arabic code points mapped to the Persian letters they render as.
// The table is fixed: changing it changes tokenization of every input.
var arabicToPersianReplacer = strings.NewReplacer(
	"ي", "ی", // ي → ی
	"ك", "ک", // ك → ک
	"ة", "ه", // ة → ه
	"ؤ", "و", // ؤ → و
	"إ", "ا", // إ → ا
	"أ", "ا", // أ → ا
)

var (
	// Sentence-terminal punctuation ('.' and '?') stays untouched.
	symbolRe     = regexp.MustCompile(`["'()\[\]{}*_,;:«»]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Text normalizes s with the default options.
func Text(s string) string {
	return TextWithOptions(s, Options{})
}

// TextWithOptions normalizes s. It is pure and idempotent; characters
// it does not recognize pass through unchanged.
func TextWithOptions(s string, opts Options) string {
	if !opts.KeepHalfSpace {
		s = strings.ReplaceAll(s, zeroWidthNonJoiner, " ")
	}

	s = arabicToPersianReplacer.Replace(s)

	if !opts.KeepSymbols {
		s = symbolRe.ReplaceAllString(s, "")
	}

	s = whitespaceRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
