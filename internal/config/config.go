package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	HFAPIURL     string `env:"HF_API_URL"`
	HFAPIToken   string `env:"HF_API_TOKEN"`

	TokenizerEncoding string `env:"TOKENIZER_ENCODING" envDefault:"cl100k_base"`

	RouteThresholdTokens int `env:"ROUTE_THRESHOLD_TOKENS" envDefault:"450"`
	WindowTokens         int `env:"WINDOW_TOKENS"          envDefault:"450"`
	WindowOverlap        int `env:"WINDOW_OVERLAP"         envDefault:"50"`
	ModelInputCap        int `env:"MODEL_INPUT_CAP"        envDefault:"512"`
	StageOneConcurrency  int `env:"STAGE_ONE_CONCURRENCY"  envDefault:"1"`

	GenerateInterval time.Duration `env:"GENERATE_INTERVAL" envDefault:"0s"`

	CacheEntries int           `env:"CACHE_ENTRIES" envDefault:"256"`
	CacheTTL     time.Duration `env:"CACHE_TTL"     envDefault:"1h"`
}

func LoadConfig() Config {
	var cfg Config
	env.Must(cfg, env.Parse(&cfg))
	return cfg
}
