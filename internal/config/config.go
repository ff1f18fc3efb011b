package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string  `env:"APP_ENV" envDefault:"local"`
	DetectorMethod string  `env:"DETECTOR_METHOD" envDefault:"transformer"`
	ClassifierURL  string  `env:"CLASSIFIER_URL" envDefault:"http://localhost:8000"`
	LLMAPIKey      string  `env:"LLM_API_KEY"`
	LLMModel       string  `env:"LLM_MODEL" envDefault:"gpt-4o"`
	LLMTemperature float32 `env:"LLM_TEMPERATURE" envDefault:"0"`
	RateLimitRPS   int     `env:"RATE_LIMIT_RPS" envDefault:"1"`
	EvalBatchSize  int     `env:"EVAL_BATCH_SIZE" envDefault:"10"`

	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"60s"`

	// Optional persistence of finalized evaluation runs.
	PostgresDSN string `env:"POSTGRES_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
