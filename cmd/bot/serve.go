package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PoluyanbIch/quizbot/internal/httpapi"
	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/PoluyanbIch/quizbot/internal/telegram"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and/or the HTTP API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
			return errors.New("TELEGRAM_TOKEN or QUIZ_HTTP_ADDR is required")
		}

		texts, err := service.TextsFor(cfg.Locale)
		if err != nil {
			return err
		}

		bank, err := service.LoadBank(cfg.QuestionsPath, cfg.QuestionsEncoding)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine := service.NewEngine(bank, store, texts)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 2)
		running := 0

		if cfg.HTTPAddr != "" {
			running++
			go func() { errc <- serveHTTP(ctx, cfg.HTTPAddr, engine, store) }()
		}

		if cfg.TelegramToken != "" {
			bot, err := telegram.NewBot(cfg.TelegramToken, engine, telegram.Options{
				Workers:  cfg.Workers,
				SendRate: cfg.SendRate,
				Debug:    cfg.TelegramDebug,
			})
			if err != nil {
				stop()
				return fmt.Errorf("connect to telegram: %w", err)
			}
			running++
			go func() {
				bot.Start(ctx)
				errc <- nil
			}()
		}

		log.Println("🤖 Bot is starting...")

		var firstErr error
		for i := 0; i < running; i++ {
			if err := <-errc; err != nil && firstErr == nil {
				firstErr = err
				stop()
			}
		}
		return firstErr
	},
}

func serveHTTP(ctx context.Context, addr string, engine *service.Engine, store service.SessionStore) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(engine, store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down HTTP server: %v", err)
		}
	}()

	log.Printf("HTTP API listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
