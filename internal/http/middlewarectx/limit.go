package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
)

// RateLimit возвращает middleware с общим ограничителем частоты запросов.
// Параметры задаются конфигом при сборке приложения.
func RateLimit(rps float64, burst int, log *slog.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests", slog.String("remote", r.RemoteAddr))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.ErrorCode("Too many requests, please try again later.", "RATE_LIMITED"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
