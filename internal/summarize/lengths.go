package summarize

import (
	"errors"
	"math"
)

// Mode selects the output-verbosity tier.
type Mode string

const (
	ModeShort  Mode = "short"
	ModeMedium Mode = "medium"
	ModeLong   Mode = "long"
	ModeAuto   Mode = "auto"
)

// InputLengthUnknown marks an unresolved input token count. Only
// ModeAuto needs one; the fixed tiers ignore it.
const InputLengthUnknown = -1

var (
	ErrInvalidMode         = errors.New("invalid mode: choose short | medium | long | auto")
	ErrInputLengthRequired = errors.New("input length is required for auto mode")
)

// ParseMode validates a caller-supplied mode string. Unknown values
// never fall back to a default.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeShort, ModeMedium, ModeLong, ModeAuto:
		return m, nil
	default:
		return "", ErrInvalidMode
	}
}

// Budget bounds the token length of one generated summary.
type Budget struct {
	Min int
	Max int
}

// Auto mode targets a summary around a quarter of the input length,
// floored so very short inputs still get a readable summary and so
// Min never exceeds Max. Empirically chosen constants.
const autoRatio = 0.25

// ResolveChunked maps a mode to the per-chunk and final budgets of the
// two-stage path. inputLen is the whole normalized text's token count;
// the result depends on nothing else.
func ResolveChunked(mode Mode, inputLen int) (Budget, Budget, error) {
	switch mode {
	case ModeShort:
		return Budget{Min: 40, Max: 80}, Budget{Min: 60, Max: 120}, nil
	case ModeMedium:
		return Budget{Min: 60, Max: 120}, Budget{Min: 80, Max: 180}, nil
	case ModeLong:
		return Budget{Min: 80, Max: 160}, Budget{Min: 120, Max: 240}, nil
	case ModeAuto:
		if inputLen < 0 {
			return Budget{}, Budget{}, ErrInputLengthRequired
		}

		finalMax := max(100, int(math.Ceil(float64(inputLen)*autoRatio)))
		finalMin := max(60, finalMax*6/10)

		chunkMax := max(80, finalMax/2)
		chunkMin := max(40, chunkMax*6/10)

		return Budget{Min: chunkMin, Max: chunkMax},
			Budget{Min: finalMin, Max: finalMax},
			nil
	default:
		return Budget{}, Budget{}, ErrInvalidMode
	}
}

// ResolveDirect maps a mode to the single budget of the direct path.
// inputLen is the truncated input's token count.
func ResolveDirect(mode Mode, inputLen int) (Budget, error) {
	switch mode {
	case ModeShort:
		return Budget{Min: 40, Max: 80}, nil
	case ModeMedium:
		return Budget{Min: 70, Max: 160}, nil
	case ModeLong:
		return Budget{Min: 120, Max: 220}, nil
	case ModeAuto:
		if inputLen < 0 {
			return Budget{}, ErrInputLengthRequired
		}

		maxLen := max(60, int(math.Ceil(float64(inputLen)*autoRatio)))
		minLen := max(30, maxLen*6/10)

		return Budget{Min: minLen, Max: maxLen}, nil
	default:
		return Budget{}, ErrInvalidMode
	}
}
