package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"longsum/internal/textgen"
)

// wordTokenizer treats every whitespace-separated word as one token,
// assigning identifiers in encounter order. Deterministic and
// reversible, which makes windowing assertions exact.
type wordTokenizer struct {
	mu          sync.Mutex
	ids         map[string]int
	vocab       []string
	encodeCalls int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: map[string]int{}}
}

func (t *wordTokenizer) Encode(text string) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.encodeCalls++

	words := strings.Fields(text)
	tokens := make([]int, 0, len(words))
	for _, w := range words {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.vocab)
			t.ids[w] = id
			t.vocab = append(t.vocab, w)
		}
		tokens = append(tokens, id)
	}

	return tokens, nil
}

func (t *wordTokenizer) EncodeTruncated(
	text string,
	maxTokens int,
) ([]int, error) {
	tokens, err := t.Encode(text)
	if err != nil {
		return nil, err
	}
	if maxTokens > 0 && len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	return tokens, nil
}

func (t *wordTokenizer) Decode(tokens []int, _ bool) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		words = append(words, t.vocab[id])
	}

	return strings.Join(words, " "), nil
}

func (t *wordTokenizer) encodeCallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.encodeCalls
}

type generatorCall struct {
	input  []int
	params textgen.GenerateParams
}

// echoGenerator returns its input truncated to MaxLength, recording
// every call. Deterministic stand-in for the model.
type echoGenerator struct {
	mu    sync.Mutex
	calls []generatorCall
	// failOnFirstToken aborts the call whose input starts with this
	// token id; negative disables it.
	failOnFirstToken int
	// stageOneDelay makes earlier chunks finish later, exercising
	// order preservation under parallel stage 1.
	stageOneDelay bool
}

var errGeneratorBroken = errors.New("generation backend is broken")

func newEchoGenerator() *echoGenerator {
	return &echoGenerator{failOnFirstToken: -1}
}

func (g *echoGenerator) Generate(
	_ context.Context,
	input []int,
	params textgen.GenerateParams,
) ([]int, error) {
	g.mu.Lock()
	g.calls = append(g.calls, generatorCall{input: input, params: params})
	g.mu.Unlock()

	if g.failOnFirstToken >= 0 &&
		len(input) > 0 &&
		input[0] == g.failOnFirstToken {
		return nil, errGeneratorBroken
	}

	if g.stageOneDelay && params.NumBeams == chunkBeams && len(input) > 0 {
		// First chunks sleep longest, so completion order inverts
		// chunk order.
		delay := time.Duration(1000-input[0]) * 50 * time.Microsecond
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	out := input
	if len(out) > params.MaxLength {
		out = out[:params.MaxLength]
	}

	return out, nil
}

func (g *echoGenerator) recordedCalls() []generatorCall {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]generatorCall(nil), g.calls...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestPipeline(
	t *testing.T,
	cfg Config,
) (*Pipeline, *wordTokenizer, *echoGenerator) {
	t.Helper()

	tok := newWordTokenizer()
	gen := newEchoGenerator()

	p, err := New(tok, gen, cfg, testLogger())
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	return p, tok, gen
}

func wordsText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	return strings.Join(words, " ")
}

func TestNewValidation(t *testing.T) {
	tok := newWordTokenizer()
	gen := newEchoGenerator()

	if _, err := New(nil, gen, Config{}, testLogger()); err == nil {
		t.Errorf("Expected error for missing tokenizer")
	}

	if _, err := New(tok, nil, Config{}, testLogger()); err == nil {
		t.Errorf("Expected error for missing generator")
	}

	cfg := Config{WindowTokens: 50, WindowOverlap: 50}
	if _, err := New(tok, gen, cfg, testLogger()); err == nil {
		t.Errorf("Expected error for overlap >= window size")
	}
}

func TestSummarizeInvalidModeFailsBeforeTokenization(t *testing.T) {
	p, tok, gen := newTestPipeline(t, Config{})

	_, err := p.Summarize(context.Background(), "some text", "bogus_mode")
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("Expected ErrInvalidMode, got %v", err)
	}

	if got := tok.encodeCallCount(); got != 0 {
		t.Errorf("Expected no tokenization, got %d encode calls", got)
	}
	if got := len(gen.recordedCalls()); got != 0 {
		t.Errorf("Expected no generation calls, got %d", got)
	}
}

func TestSummarizeRoutesShortInputDirect(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{})

	summary, err := p.Summarize(context.Background(), wordsText(300), "medium")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	calls := gen.recordedCalls()
	if len(calls) != 1 {
		t.Fatalf("Expected exactly one generation call, got %d", len(calls))
	}

	want := textgen.GenerateParams{
		MinLength:         70,
		MaxLength:         160,
		NumBeams:          5,
		NoRepeatNGramSize: 3,
		EarlyStopping:     true,
	}
	if calls[0].params != want {
		t.Errorf("Expected params %+v, got %+v", want, calls[0].params)
	}

	if len(calls[0].input) != 300 {
		t.Errorf("Expected 300 input tokens, got %d", len(calls[0].input))
	}

	wantSummary := strings.Join(strings.Fields(wordsText(300))[:160], " ")
	if summary != wantSummary {
		t.Errorf("Unexpected summary: %q", summary)
	}
}

func TestSummarizeRoutesLongInputChunked(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{})

	summary, err := p.Summarize(context.Background(), wordsText(1000), "medium")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	calls := gen.recordedCalls()
	if len(calls) != 4 {
		t.Fatalf("Expected 3 chunk calls and 1 merge call, got %d", len(calls))
	}

	wantChunk := textgen.GenerateParams{
		MinLength:         60,
		MaxLength:         120,
		NumBeams:          4,
		NoRepeatNGramSize: 3,
		EarlyStopping:     true,
	}
	wantStarts := []int{0, 400, 800}
	wantLens := []int{450, 450, 200}

	for i := 0; i < 3; i++ {
		if calls[i].params != wantChunk {
			t.Errorf("Chunk call %d: expected params %+v, got %+v",
				i, wantChunk, calls[i].params)
		}
		if calls[i].input[0] != wantStarts[i] {
			t.Errorf("Chunk call %d: expected first token %d, got %d",
				i, wantStarts[i], calls[i].input[0])
		}
		if len(calls[i].input) != wantLens[i] {
			t.Errorf("Chunk call %d: expected %d tokens, got %d",
				i, wantLens[i], len(calls[i].input))
		}
	}

	wantFinal := textgen.GenerateParams{
		MinLength:         80,
		MaxLength:         180,
		NumBeams:          5,
		NoRepeatNGramSize: 3,
		EarlyStopping:     true,
	}
	finalCall := calls[3]
	if finalCall.params != wantFinal {
		t.Errorf("Merge call: expected params %+v, got %+v",
			wantFinal, finalCall.params)
	}

	// Stage 2 sees the stage-1 echoes joined in chunk order: the
	// first 120 tokens of each window.
	var wantMerged []int
	for _, start := range wantStarts {
		for i := 0; i < 120; i++ {
			wantMerged = append(wantMerged, start+i)
		}
	}
	if len(finalCall.input) != len(wantMerged) {
		t.Fatalf("Merge call: expected %d input tokens, got %d",
			len(wantMerged), len(finalCall.input))
	}
	for i, token := range finalCall.input {
		if token != wantMerged[i] {
			t.Fatalf("Merge call: input diverges at %d: expected %d, got %d",
				i, wantMerged[i], token)
		}
	}

	// The final echo keeps the merged sequence's first 180 tokens:
	// all 120 of chunk 0 and the first 60 of chunk 1.
	if summary != decodeIDs(wantMerged[:180]) {
		t.Errorf("Unexpected summary: %q", summary)
	}
}

// decodeIDs maps wordsText token ids back to words; valid because ids
// are assigned in document order on the first full encode.
func decodeIDs(ids []int) string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = fmt.Sprintf("w%d", id)
	}

	return strings.Join(words, " ")
}

func TestSummarizeChunkedEmptyInput(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{})

	summary, err := p.SummarizeChunked(context.Background(), "", ModeShort)
	if err != nil {
		t.Fatalf("SummarizeChunked failed: %v", err)
	}

	if summary != "" {
		t.Errorf("Expected empty summary, got %q", summary)
	}

	calls := gen.recordedCalls()
	if len(calls) != 2 {
		t.Fatalf("Expected both stages to run once, got %d calls", len(calls))
	}

	if calls[0].params.NumBeams != chunkBeams {
		t.Errorf("Expected stage-1 call first, got beams %d",
			calls[0].params.NumBeams)
	}
	if calls[1].params.NumBeams != directBeams {
		t.Errorf("Expected stage-2 call last, got beams %d",
			calls[1].params.NumBeams)
	}
}

func TestSummarizeChunkedAutoBudgets(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{})

	if _, err := p.Summarize(context.Background(), wordsText(2000), "auto"); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	calls := gen.recordedCalls()
	if len(calls) != 6 {
		t.Fatalf("Expected 5 chunk calls and 1 merge call, got %d", len(calls))
	}

	for i := 0; i < 5; i++ {
		if calls[i].params.MinLength != 150 || calls[i].params.MaxLength != 250 {
			t.Errorf("Chunk call %d: expected budget (150,250), got (%d,%d)",
				i, calls[i].params.MinLength, calls[i].params.MaxLength)
		}
	}

	finalCall := calls[5]
	if finalCall.params.MinLength != 300 || finalCall.params.MaxLength != 500 {
		t.Errorf("Merge call: expected budget (300,500), got (%d,%d)",
			finalCall.params.MinLength, finalCall.params.MaxLength)
	}

	if len(finalCall.input) != DefaultModelInputCap {
		t.Errorf("Expected merged input truncated to %d tokens, got %d",
			DefaultModelInputCap, len(finalCall.input))
	}
}

func TestIsLongThresholdBoundary(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{RouteThreshold: 5})

	atThreshold, err := p.IsLong(wordsText(5))
	if err != nil {
		t.Fatalf("IsLong failed: %v", err)
	}
	if atThreshold {
		t.Errorf("Expected exactly-threshold input to route direct")
	}

	aboveThreshold, err := p.IsLong(wordsText(6))
	if err != nil {
		t.Fatalf("IsLong failed: %v", err)
	}
	if !aboveThreshold {
		t.Errorf("Expected above-threshold input to route chunked")
	}
}

func TestSummarizeChunkedOrderPreservedUnderParallelism(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{Concurrency: 4})
	gen.stageOneDelay = true

	summary, err := p.Summarize(context.Background(), wordsText(1000), "medium")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	calls := gen.recordedCalls()
	finalCall := calls[len(calls)-1]
	if finalCall.params.NumBeams != directBeams {
		t.Fatalf("Expected the last call to be the merge call")
	}

	// The merged sequence must follow document order no matter which
	// chunk finished first.
	wantFirstTokens := []int{0, 400, 800}
	for i, start := range wantFirstTokens {
		if got := finalCall.input[i*120]; got != start {
			t.Errorf("Merged segment %d: expected first token %d, got %d",
				i, start, got)
		}
	}

	var wantMerged []int
	for _, start := range wantFirstTokens {
		for i := 0; i < 120; i++ {
			wantMerged = append(wantMerged, start+i)
		}
	}
	if summary != decodeIDs(wantMerged[:180]) {
		t.Errorf("Unexpected summary: %q", summary)
	}
}

func TestSummarizeChunkedStageOneFailureAborts(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{})
	gen.failOnFirstToken = 400 // second chunk

	_, err := p.Summarize(context.Background(), wordsText(1000), "medium")
	if !errors.Is(err, errGeneratorBroken) {
		t.Fatalf("Expected generator error to propagate, got %v", err)
	}

	for _, call := range gen.recordedCalls() {
		if call.params.NumBeams == directBeams {
			t.Fatalf("Expected no merge call after a stage-1 failure")
		}
	}
}

func TestSummarizeCachesResults(t *testing.T) {
	p, _, gen := newTestPipeline(t, Config{
		CacheEntries: 16,
		CacheTTL:     time.Hour,
	})

	text := wordsText(100)

	first, err := p.Summarize(context.Background(), text, "short")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	second, err := p.Summarize(context.Background(), text, "short")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if first != second {
		t.Errorf("Expected identical cached summary, got %q vs %q",
			first, second)
	}

	if got := len(gen.recordedCalls()); got != 1 {
		t.Errorf("Expected one generation call across both requests, got %d", got)
	}

	// A different mode is a different cache entry.
	if _, err = p.Summarize(context.Background(), text, "long"); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got := len(gen.recordedCalls()); got != 2 {
		t.Errorf("Expected a fresh generation call for a new mode, got %d", got)
	}
}
