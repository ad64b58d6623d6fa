package streaming

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/streaming-service/internal/config"
	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	cfg := &config.Config{
		RateLimit:       config.RateLimit{RPS: 1000, Burst: 1000},
		PaymentProvider: config.PaymentProvider{WebhookSecret: "whsec_test"},
	}
	tokens := jwt.NewTokenMaker("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := chi.NewRouter()
	// Сервисы не нужны: запросы без токена обязаны отбиваться до обработчиков.
	RegisterRoutes(r, log, cfg, tokens, nil, nil, nil, nil, nil)
	return r
}

func TestCatalogRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/videos",
		"/api/videos/categories",
		"/api/videos/genres",
		"/api/videos/search/suggestions",
		"/api/videos/category/action",
		"/api/videos/42",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "NO_AUTH_HEADER")
		})
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/subscriptions/status"},
		{http.MethodGet, "/api/subscriptions/history"},
		{http.MethodPost, "/api/subscriptions/cancel"},
		{http.MethodPost, "/api/subscriptions/reactivate"},
		{http.MethodPut, "/api/subscriptions/plan"},
		{http.MethodPost, "/api/payments/create-checkout-session"},
		{http.MethodGet, "/api/payments/history"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "NO_AUTH_HEADER")
		})
	}
}

func TestHealthIsOpen(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
