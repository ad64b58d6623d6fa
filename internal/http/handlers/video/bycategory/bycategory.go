// Package bycategory реализует HTTP-обработчик списка видео одной категории.
package bycategory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
)

// Service описывает интерфейс бизнес-логики листинга по категории.
type Service interface {
	ListByCategory(ctx context.Context, category string, page, limit int) ([]models.Video, error)
}

// Handler обрабатывает запросы списка видео одной категории.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос списка видео категории.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.video.bycategory"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	category := chi.URLParam(r, "category")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	videos, err := h.service.ListByCategory(r.Context(), category, page, limit)
	if err != nil {
		log.Error("failed to list videos by category", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch videos"))
		return
	}

	render.JSON(w, r, map[string]any{
		"category": category,
		"videos":   videos,
	})
}
