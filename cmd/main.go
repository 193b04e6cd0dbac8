package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"longsum/internal/config"
	"longsum/internal/summarize"
	"longsum/internal/textgen"
)

// Host for the summarization pipeline: reads a document on stdin,
// summarizes it at the mode given as the first argument (default
// auto), and prints the summary on stdout. Logs go to stderr so stdout
// stays clean.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cfg := config.LoadConfig()

	mode := string(summarize.ModeAuto)
	if len(os.Args) > 1 {
		mode = strings.TrimSpace(os.Args[1])
	}

	tokenizer, err := textgen.NewTiktokenTokenizer(cfg.TokenizerEncoding)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize tokenizer",
			"error", err,
			"encoding", cfg.TokenizerEncoding)

		os.Exit(1)
	}
	log.InfoContext(ctx, "Tokenizer is initialized",
		"encoding", cfg.TokenizerEncoding)

	generator, err := initGenerator(ctx, cfg, tokenizer, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize generator",
			"error", err)

		os.Exit(1)
	}

	if cfg.GenerateInterval > 0 {
		generator = textgen.NewRateLimitedGenerator(
			generator,
			cfg.GenerateInterval,
			1,
		)
		log.InfoContext(ctx, "Generation rate limiter is enabled",
			"intervalSeconds", cfg.GenerateInterval.Seconds())
	}

	pipeline, err := summarize.New(tokenizer, generator, summarize.Config{
		RouteThreshold: cfg.RouteThresholdTokens,
		WindowTokens:   cfg.WindowTokens,
		WindowOverlap:  cfg.WindowOverlap,
		ModelInputCap:  cfg.ModelInputCap,
		Concurrency:    cfg.StageOneConcurrency,
		CacheEntries:   cfg.CacheEntries,
		CacheTTL:       cfg.CacheTTL,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize pipeline",
			"error", err)

		os.Exit(1)
	}
	log.InfoContext(ctx, "Pipeline is initialized",
		"routeThresholdTokens", cfg.RouteThresholdTokens,
		"windowTokens", cfg.WindowTokens,
		"windowOverlap", cfg.WindowOverlap)

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read stdin",
			"error", err)

		os.Exit(1)
	}

	start := time.Now()

	summary, err := pipeline.Summarize(ctx, string(text), mode)
	if err != nil {
		log.ErrorContext(ctx, "Failed to summarize",
			"error", err,
			"mode", mode)

		os.Exit(1)
	}
	log.InfoContext(ctx, "Summary is ready",
		"mode", mode,
		"durationSeconds", time.Since(start).Seconds())

	fmt.Println(summary)
}

func initGenerator(
	ctx context.Context,
	cfg config.Config,
	tokenizer textgen.Tokenizer,
	log *slog.Logger,
) (textgen.Generator, error) {
	if url := strings.TrimSpace(cfg.HFAPIURL); url != "" {
		g, err := textgen.NewHFGenerator(textgen.HFConfig{
			URL:   url,
			Token: strings.TrimSpace(cfg.HFAPIToken),
		}, tokenizer)
		if err != nil {
			return nil, fmt.Errorf("create inference generator: %w", err)
		}

		log.InfoContext(ctx, "Inference generator is initialized",
			"provider", "huggingface")

		return g, nil
	}

	if apiKey := strings.TrimSpace(cfg.OpenAIAPIKey); apiKey != "" {
		g, err := textgen.NewOpenAIGenerator(apiKey, tokenizer)
		if err != nil {
			return nil, fmt.Errorf("create OpenAI generator: %w", err)
		}

		log.InfoContext(ctx, "OpenAI generator is initialized",
			"provider", "openai")

		return g, nil
	}

	return nil, fmt.Errorf(
		"no generation backend configured: set HF_API_URL or OPENAI_API_KEY",
	)
}
