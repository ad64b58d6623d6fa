// Package suggestions реализует HTTP-обработчик подсказок поиска по каталогу.
package suggestions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики подсказок поиска.
type Service interface {
	Suggestions(ctx context.Context, query string) ([]string, error)
}

// Handler обрабатывает запросы подсказок поиска.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос подсказок поиска.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.video.suggestions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	suggestions, err := h.service.Suggestions(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		log.Error("failed to fetch suggestions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch suggestions"))
		return
	}

	render.JSON(w, r, map[string]any{"suggestions": suggestions})
}
