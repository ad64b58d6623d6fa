// Package streaming собирает приложение стримингового сервиса: хранилище,
// миграции, кэш, клиент провайдера оплаты, сервисы и HTTP‑сервер.
package streaming

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/streaming-service/internal/cache"
	"github.com/magabrotheeeer/streaming-service/internal/config"
	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/migrations"
	"github.com/magabrotheeeer/streaming-service/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/streaming-service/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/streaming-service/internal/services/payment"
	subservice "github.com/magabrotheeeer/streaming-service/internal/services/subscription"
	videoservice "github.com/magabrotheeeer/streaming-service/internal/services/video"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// App — собранное приложение с запущенными зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создаёт приложение: подключает базу, накатывает миграции, снимает
// схемные возможности каталога, подключает Redis и провайдера оплаты,
// собирает сервисы и маршрутизатор.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = db.ProbeCapabilities(ctx); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	tokens := jwt.NewTokenMaker(
		cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL,
	)
	providerClient := paymentprovider.NewClient(
		cfg.PaymentProvider.APIURL, cfg.PaymentProvider.SecretKey)

	authService := authservice.NewAuthService(db, tokens,
		cfg.Lockout.MaxAttempts, cfg.Lockout.Cooldown)
	videoService := videoservice.NewVideoService(db, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, providerClient, logger)
	paymentService := paymentservice.NewPaymentService(db, providerClient,
		cfg.PaymentProvider.FrontendURL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, tokens, db,
		authService, videoService, subscriptionService, paymentService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP‑сервер и блокируется до его остановки или отмены ctx.
// При отмене сервер гасится с таймаутом, соединения с базой закрываются.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.Close()
		_ = a.cache.Db.Close()
		return err
	}
}
