package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-lessons/internal/ai"
	"github.com/p-n-ai/pai-lessons/internal/lesson"
	"github.com/p-n-ai/pai-lessons/internal/platform/cache"
	"github.com/p-n-ai/pai-lessons/internal/platform/config"
	"github.com/p-n-ai/pai-lessons/internal/platform/database"
	"github.com/p-n-ai/pai-lessons/internal/prompt"
	"github.com/p-n-ai/pai-lessons/internal/quizsession"
	"github.com/p-n-ai/pai-lessons/internal/web"
)

func main() {
	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	router, err := newRouter(cfg.AI)
	if err != nil {
		return err
	}
	slog.Info("AI providers registered", "providers", router.Names())

	tmpl := prompt.Default()
	if cfg.Prompt.Path != "" {
		if tmpl, err = prompt.Load(cfg.Prompt.Path); err != nil {
			return err
		}
	}

	checks := map[string]web.HealthChecker{}
	svcCfg := lesson.ServiceConfig{
		AI:      router,
		Prompt:  tmpl,
		Timeout: cfg.AI.Generation.Timeout(),
		Budget:  ai.NewInMemoryBudget(cfg.AI.Generation.DailyTokenBudget),
	}
	webCfg := web.Config{}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				return err
			}
		}
		store, err := lesson.NewPostgresStore(db.Pool)
		if err != nil {
			return err
		}
		svcCfg.Store = store
		svcCfg.Events = lesson.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
		slog.Info("lessons stored in postgres")
	} else {
		slog.Warn("LEARN_DATABASE_URL not set, lessons are kept in memory")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return err
		}
		defer c.Close()

		sessions, err := quizsession.NewRedisStore(c.Client, quizsession.DefaultTTL)
		if err != nil {
			return err
		}
		svcCfg.Budget = ai.NewRedisBudget(c.Client, "lessons", cfg.AI.Generation.DailyTokenBudget)
		webCfg.Sessions = sessions
		webCfg.QuizCache = c
		checks["cache"] = c
		slog.Info("quiz sessions stored in redis")
	}

	svc := lesson.NewService(svcCfg)
	webCfg.Lessons = svc
	webCfg.Checks = checks

	server, err := web.NewServer(webCfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		slog.Error("generation shutdown error", "error", err)
	}
	return nil
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newRouter registers every configured provider, cheapest first.
func newRouter(cfg config.AIConfig) (*ai.Router, error) {
	router := ai.NewRouter()

	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey, ai.WithGoogleModel(cfg.Google.Model)))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey))
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			return nil, err
		}
		router.Register("anthropic", p)
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL))
	}

	if !router.HasProvider() {
		return nil, ai.ErrNoProviders
	}
	return router, nil
}
