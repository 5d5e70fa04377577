// Package config loads bot settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string  `env:"TELEGRAM_TOKEN"`
	TelegramDebug bool    `env:"TELEGRAM_DEBUG"`
	SendRate      float64 `env:"TELEGRAM_SEND_RATE" envDefault:"25"`

	QuestionsPath     string `env:"QUIZ_QUESTIONS"          envDefault:"questions"`
	QuestionsEncoding string `env:"QUIZ_QUESTIONS_ENCODING" envDefault:"koi8-r"`
	Locale            string `env:"QUIZ_LOCALE"             envDefault:"ru"`
	Workers           int    `env:"QUIZ_WORKERS"            envDefault:"8"`
	HTTPAddr          string `env:"QUIZ_HTTP_ADDR"`

	StoreDriver string `env:"QUIZ_STORE"      envDefault:"bolt"`
	StorePath   string `env:"QUIZ_STORE_PATH" envDefault:"data/quiz.db"`

	LogFile       string `env:"QUIZ_LOG_FILE"`
	LogMaxSizeMB  int    `env:"QUIZ_LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"QUIZ_LOG_MAX_BACKUPS" envDefault:"3"`
}

// Load reads .env files (missing ones are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "bolt", "sqlite":
	default:
		return fmt.Errorf("QUIZ_STORE must be memory, bolt or sqlite, got %q", c.StoreDriver)
	}
	switch c.Locale {
	case "en", "ru":
	default:
		return fmt.Errorf("QUIZ_LOCALE must be en or ru, got %q", c.Locale)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("QUIZ_WORKERS must be positive, got %d", c.Workers)
	}
	if c.SendRate <= 0 {
		return fmt.Errorf("TELEGRAM_SEND_RATE must be positive, got %v", c.SendRate)
	}
	if c.QuestionsPath == "" {
		return errors.New("QUIZ_QUESTIONS is required")
	}
	return nil
}
