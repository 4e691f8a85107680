package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string `env:"PORT" env-default:"5000"`
	DataFile     string `env:"DATA_FILE" env-default:"data.json"`
	AllowOrigins string `env:"ALLOW_ORIGINS" env-default:"*"`

	OpenRouterKey     string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" env-default:"stepfun/step-3.5-flash:free"`

	DetectorBaseURL string `env:"DETECTOR_BASE_URL" env-default:"http://localhost:8600"`

	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`

	ReqTimeoutSec   int `env:"REQUEST_TIMEOUT_SECONDS" env-default:"30"`
	PollTimeoutSec  int `env:"TELEGRAM_POLL_TIMEOUT_SECONDS" env-default:"20"`
	TokenTTLHours   int `env:"TOKEN_TTL_HOURS" env-default:"720"`
	LinkCodeTTLMin  int `env:"LINK_CODE_TTL_MINUTES" env-default:"10"`
	BotSessionIdleM int `env:"BOT_SESSION_IDLE_MINUTES" env-default:"15"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
