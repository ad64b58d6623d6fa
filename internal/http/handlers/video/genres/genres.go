// Package genres реализует HTTP-обработчик списка жанров каталога.
package genres

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики метаданных каталога.
type Service interface {
	Genres(ctx context.Context) ([]string, error)
}

// Handler обрабатывает запросы списка жанров.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос списка жанров.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.video.genres"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	genres, err := h.service.Genres(r.Context())
	if err != nil {
		log.Error("failed to list genres", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch genres"))
		return
	}

	render.JSON(w, r, map[string]any{"genres": genres})
}
