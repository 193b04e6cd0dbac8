package summarize

// Default window geometry. The stride is size-overlap, so every token
// lands in at least one window and consecutive windows share exactly
// overlap tokens of context across chunk boundaries.
const (
	DefaultWindowTokens  = 450
	DefaultWindowOverlap = 50
)

// windows slides a fixed-size window across tokens. Assumes
// size > overlap >= 0; the pipeline constructor enforces that. An
// empty sequence still yields one empty window so the two-stage path
// runs uniformly even for empty input.
func windows(tokens []int, size, overlap int) [][]int {
	if len(tokens) == 0 {
		return [][]int{nil}
	}

	stride := size - overlap

	var out [][]int
	for start := 0; start < len(tokens); start += stride {
		end := min(start+size, len(tokens))
		out = append(out, tokens[start:end])
	}

	return out
}
