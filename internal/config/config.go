package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/drivequiz.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	// RedisURL is optional; without it the token budget is unlimited.
	RedisURL string `env:"REDIS_URL"`

	GoogleMapsAPIKey string `env:"GOOGLE_MAPS_API_KEY"`
	MapsLanguage     string `env:"MAPS_LANGUAGE" envDefault:"ja"`

	OpenAIAPIKey           string  `env:"OPENAI_API_KEY"`
	OpenAIModel            string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIMaxTokens        int     `env:"OPENAI_MAX_TOKENS" envDefault:"500"`
	OpenAITemperature      float32 `env:"OPENAI_TEMPERATURE" envDefault:"0.7"`
	OpenAIDailyTokenBudget int64   `env:"OPENAI_DAILY_TOKEN_BUDGET" envDefault:"0"`

	SamplePoints       int `env:"SAMPLE_POINTS" envDefault:"5"`
	SearchRadiusMeters int `env:"SEARCH_RADIUS_METERS" envDefault:"3000"`
	MaxSpots           int `env:"MAX_SPOTS" envDefault:"5"`
	// MapsTimeout bounds each Google Maps request; ProviderTimeout bounds
	// one text generation call, which is slower.
	MapsTimeout     time.Duration `env:"MAPS_TIMEOUT" envDefault:"5s"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`
}

// Load reads the environment after merging in the given .env files. Missing
// files are skipped; variables already set in the environment win.
func Load(dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SamplePoints < 1 {
		return nil, fmt.Errorf("SAMPLE_POINTS must be positive, got %d", cfg.SamplePoints)
	}
	return &cfg, nil
}

// Generative reports whether quizzes can be composed by the text generation
// provider.
func (c *Config) Generative() bool { return c.OpenAIAPIKey != "" }

// LiveMaps reports whether routes and places come from Google Maps rather
// than the built-in sample route.
func (c *Config) LiveMaps() bool { return c.GoogleMapsAPIKey != "" }
