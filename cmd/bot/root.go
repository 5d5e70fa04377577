package main

import (
	"fmt"
	"io"

	"github.com/PoluyanbIch/quizbot/internal/config"
	"github.com/PoluyanbIch/quizbot/internal/logging"
	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/PoluyanbIch/quizbot/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg       config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:          "quizbot",
	Short:        "Chat trivia quiz bot",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		cfg = applyFlags(cmd, loaded)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logCloser = logging.Setup(logging.Options{
			File:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file (missing file is ignored)")
	rootCmd.PersistentFlags().String("questions", "", "Question file or directory (overrides QUIZ_QUESTIONS)")
	rootCmd.PersistentFlags().String("encoding", "", "Question file encoding: koi8-r, windows-1251 or utf-8")
	rootCmd.PersistentFlags().String("store", "", "Session store driver: memory, bolt or sqlite (overrides QUIZ_STORE)")
	rootCmd.PersistentFlags().String("store-path", "", "Session store file (overrides QUIZ_STORE_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(scoreCmd)
}

// applyFlags: явно заданные флаги важнее переменных окружения
func applyFlags(cmd *cobra.Command, c config.Config) config.Config {
	flags := cmd.Flags()
	if flags.Changed("questions") {
		c.QuestionsPath, _ = flags.GetString("questions")
	}
	if flags.Changed("encoding") {
		c.QuestionsEncoding, _ = flags.GetString("encoding")
	}
	if flags.Changed("store") {
		c.StoreDriver, _ = flags.GetString("store")
	}
	if flags.Changed("store-path") {
		c.StorePath, _ = flags.GetString("store-path")
	}
	return c
}

func openStore() (service.SessionStore, error) {
	store, err := storage.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}
