package streaming

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/streaming-service/internal/config"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/payment/checkout"
	paymenthistory "github.com/magabrotheeeer/streaming-service/internal/http/handlers/payment/history"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/subscription/cancel"
	subhistory "github.com/magabrotheeeer/streaming-service/internal/http/handlers/subscription/history"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/subscription/planupdate"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/subscription/reactivate"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/video/bycategory"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/video/categories"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/video/genres"
	videolist "github.com/magabrotheeeer/streaming-service/internal/http/handlers/video/list"
	videoread "github.com/magabrotheeeer/streaming-service/internal/http/handlers/video/read"
	"github.com/magabrotheeeer/streaming-service/internal/http/handlers/video/suggestions"
	"github.com/magabrotheeeer/streaming-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/streaming-service/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/streaming-service/internal/services/payment"
	subservice "github.com/magabrotheeeer/streaming-service/internal/services/subscription"
	videoservice "github.com/magabrotheeeer/streaming-service/internal/services/video"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	cfg *config.Config,
	tokens jwt.Maker,
	users middlewarectx.UserProvider,
	authService *authservice.AuthService,
	videoService *videoservice.VideoService,
	subscriptionService *subservice.SubscriptionService,
	paymentService *paymentservice.PaymentService,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics,
		middlewarectx.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger),
	)

	authGate := middlewarectx.Auth(tokens, users, logger)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(authGate)

			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)

			// Каталог доступен по токену, просмотр записи — по подписке
			r.Get("/videos", videolist.New(logger, videoService).ServeHTTP)
			r.Get("/videos/categories", categories.New(logger, videoService).ServeHTTP)
			r.Get("/videos/genres", genres.New(logger, videoService).ServeHTTP)
			r.Get("/videos/search/suggestions", suggestions.New(logger, videoService).ServeHTTP)
			r.Get("/videos/category/{category}", bycategory.New(logger, videoService).ServeHTTP)

			r.Get("/subscriptions/status", status.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/history", subhistory.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/reactivate", reactivate.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/plan", planupdate.New(logger, subscriptionService).ServeHTTP)

			r.Post("/payments/create-checkout-session", checkout.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/history", paymenthistory.New(logger, paymentService).ServeHTTP)

			// Просмотр записи каталога требует активной подписки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireActiveSubscription)
				r.Get("/videos/{id}", videoread.New(logger, videoService).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации, подпись проверяется в обработчике)
		r.Post("/payments/webhook", webhook.New(logger, paymentService,
			cfg.PaymentProvider.WebhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New().ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
