package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"callreview/analytics"
	"callreview/auth"
	"callreview/call"
	"callreview/chat"
	"callreview/coach"
	"callreview/config"
	"callreview/db"
	"callreview/migrations"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("bootstrap database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.Files); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	authRepo := auth.NewRepository(pool)

	seeded, err := auth.SeedDefaultUsers(ctx, authRepo)
	if err != nil {
		logger.Fatal("seed default users", zap.Error(err))
	}
	if seeded > 0 {
		logger.Info("seeded default users", zap.Int("count", seeded))
	}

	callRepo := call.NewRepository(pool)

	server := &Server{
		logger:           logger,
		authService:      auth.NewService(authRepo, cfg.JWTSecret, auth.WithTokenTTL(cfg.TokenTTL), auth.WithSigningAlgorithm(cfg.JWTAlgorithm)),
		callService:      call.NewService(callRepo),
		analyticsService: analytics.NewService(callRepo),
		chatService:      chat.NewService(chat.NewRepository(pool)),
		assistant:        coach.NewAssistant(cfg.OpenAIAPIKey),
	}

	logger.Info("listening",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("coach_configured", cfg.OpenAIAPIKey != ""),
	)

	if err := http.ListenAndServe(cfg.ListenAddr, server.Handler()); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
