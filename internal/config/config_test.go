package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.StoreDriver)
	assert.Equal(t, "data/quiz.db", cfg.StorePath)
	assert.Equal(t, "koi8-r", cfg.QuestionsEncoding)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, 8, cfg.Workers)
	assert.InDelta(t, 25.0, cfg.SendRate, 0.001)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "TELEGRAM_TOKEN=from-file\nQUIZ_STORE=sqlite\nQUIZ_LOCALE=en\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("QUIZ_LOCALE", "ru")
	t.Setenv("QUIZ_WORKERS", "3")
	// godotenv sets these for the rest of the process; restore afterwards.
	t.Setenv("TELEGRAM_TOKEN", "")
	os.Unsetenv("TELEGRAM_TOKEN")
	t.Setenv("QUIZ_STORE", "")
	os.Unsetenv("QUIZ_STORE")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.TelegramToken)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "ru", cfg.Locale, "the real environment wins over .env")
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("QUIZ_WORKERS", "many")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		QuestionsPath: "questions",
		StoreDriver:   "memory",
		Locale:        "en",
		Workers:       1,
		SendRate:      1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "redis" }},
		{"unknown locale", func(c *Config) { c.Locale = "de" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"no send rate", func(c *Config) { c.SendRate = 0 }},
		{"no questions", func(c *Config) { c.QuestionsPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
