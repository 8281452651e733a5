// Package main is the entrypoint for the kbchat API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ragwidget/kbchat/internal/ai"
	"github.com/ragwidget/kbchat/internal/api"
	"github.com/ragwidget/kbchat/internal/api/handler"
	mw "github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/auth"
	"github.com/ragwidget/kbchat/internal/cache"
	"github.com/ragwidget/kbchat/internal/chat"
	"github.com/ragwidget/kbchat/internal/config"
	"github.com/ragwidget/kbchat/internal/docstore"
	"github.com/ragwidget/kbchat/internal/enrich"
	"github.com/ragwidget/kbchat/internal/kb"
	"github.com/ragwidget/kbchat/internal/notify"
	"github.com/ragwidget/kbchat/internal/provision"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/internal/tenant"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — a .env file is optional, real env wins
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create AI provider and tokenizer
	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	tok, err := kb.NewTokenizer()
	if err != nil {
		return fmt.Errorf("create tokenizer: %w", err)
	}

	// 6. Create stores
	pgStore := store.NewPostgresStore(pool)

	docs, err := docstore.New(cfg.Docs.DataDir)
	if err != nil {
		return fmt.Errorf("create document store: %w", err)
	}

	// 7. Build the core services
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	resolver := tenant.NewResolver(pgStore, tokens, cfg.Hosting.Marker, cfg.Hosting.DefaultTenantEmail)
	assembler := kb.NewAssembler(docs, tok, kb.DefaultTokenBudget)
	enricher := enrich.NewService(pgStore, docs, aiProvider, tok)
	engine := chat.NewEngine(assembler, aiProvider, pgStore, docs.Exists)
	notifier := notify.NewTelegram(cfg.Telegram)
	provisioner := provision.NewRunner(cfg.Provision.Script)

	// 8. Re-enrich documents edited on disk outside the upload path
	docEvents, err := docs.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch document store: %w", err)
	}
	go func() {
		for sub := range docEvents {
			t, err := pgStore.GetTenantBySubdomain(ctx, sub)
			if err != nil {
				slog.Warn("document changed for unknown subdomain", "subdomain", sub, "error", err)
				continue
			}
			content, err := docs.Load(sub)
			if err != nil {
				slog.Warn("read changed document", "subdomain", sub, "error", err)
				continue
			}
			enricher.Trigger(t.Email, sub, content)
		}
	}()

	// 9. Build router with dependencies
	authMW := mw.NewAuth(resolver)
	rateLimit := mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMin)

	deps := api.Dependencies{
		Auth:      authMW,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		PublicSettingsHandler: handler.NewPublicSettingsHandler(resolver, docs.Exists, redisCache),
		SuggestionsHandler:    handler.NewSuggestionsHandler(resolver),
		ChatHandler:           handler.NewChatHandler(resolver, engine),

		RegisterHandler: handler.NewRegisterHandler(pgStore, tokens, provisioner, notifier),
		LoginHandler:    handler.NewLoginHandler(pgStore, tokens),

		TenantSettingsGet:    handler.NewTenantSettingsGetHandler(),
		TenantSettingsUpdate: handler.NewTenantSettingsUpdateHandler(pgStore),
		DocumentGet:          handler.NewDocumentGetHandler(docs),
		DocumentUpdate:       handler.NewDocumentUpdateHandler(docs, enricher, notifier, redisCache),
		LogsGet:              handler.NewLogsGetHandler(pgStore),
		LogsClear:            handler.NewLogsClearHandler(pgStore),

		AdminTenantsHandler: handler.NewAdminTenantsHandler(pgStore, docs),
	}

	router := api.NewRouter(deps)

	// 10. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
