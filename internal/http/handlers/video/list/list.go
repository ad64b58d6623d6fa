// Package list реализует HTTP-обработчик списка видеокаталога с фильтрами
// и пагинацией. Применённые фильтры возвращаются в ответе как есть.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/video"
)

// Response — страница каталога с пагинацией и эхом применённых фильтров.
type Response struct {
	Videos     []models.Video    `json:"videos"`
	Pagination models.Pagination `json:"pagination"`
	Filters    map[string]string `json:"filters"`
}

// Service описывает интерфейс бизнес-логики листинга каталога.
type Service interface {
	List(ctx context.Context, p video.ListParams) (*video.ListResult, error)
}

// Handler обрабатывает запросы списка видеокаталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос списка каталога.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.video.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	params := video.ParseListParams(query.Get)

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		log.Error("failed to list videos", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch videos"))
		return
	}

	filters := map[string]string{}
	for _, key := range []string{"search", "category", "genre", "rating", "year", "duration", "sortBy"} {
		if v := query.Get(key); v != "" {
			filters[key] = v
		}
	}

	render.JSON(w, r, Response{
		Videos:     result.Videos,
		Pagination: result.Pagination,
		Filters:    filters,
	})
}
