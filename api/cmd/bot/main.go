package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"techsync/api/internal/app"
	"techsync/api/internal/config"
	"techsync/api/internal/httpserver"
	"techsync/api/internal/llm"
	"techsync/api/internal/logging"
	"techsync/api/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	r := &telegram.Router{
		Bot:          bot,
		Assistant:    a.Assistant,
		Engines:      a.Engines,
		EngManager:   llm.NewManager(a.Default),
		Logger:       logger.With(zap.String("component", "telegram")),
		AskTimeout:   cfg.AskTimeout,
		AllowedChats: make(map[int64]struct{}, len(cfg.AllowedChats)),
	}
	for _, id := range cfg.AllowedChats {
		r.AllowedChats[id] = struct{}{}
	}
	if len(r.AllowedChats) == 0 {
		logger.Warn("TELEGRAM_ALLOWED_CHATS is empty; every chat will be refused")
	}

	mux := chi.NewRouter()
	mux.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if a.DB != nil {
			pctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.PingContext(pctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		path := telegram.WebhookPath(cfg.TelegramToken)
		wh, err := tgbotapi.NewWebhook(strings.TrimRight(webhookURL, "/") + path)
		if err != nil {
			return err
		}
		wh.DropPendingUpdates = true
		if _, err := bot.Request(wh); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		mux.Post(path, func(w http.ResponseWriter, req *http.Request) {
			upd, err := bot.HandleUpdate(req)
			if err != nil {
				logger.Warn("bad webhook update", zap.Error(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			go r.HandleUpdate(ctx, *upd)
		})
		logger.Info("webhook mode", zap.String("path", path))
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("delete webhook", zap.Error(err))
		}
		go telegram.RunPolling(ctx, bot, logger, func(upd tgbotapi.Update) {
			r.HandleUpdate(ctx, upd)
		})
		logger.Info("polling mode")
	}

	srv := httpserver.New(httpserver.Addr(cfg.Port), mux)
	errc := make(chan error, 1)
	go func() {
		logger.Info("health server listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
