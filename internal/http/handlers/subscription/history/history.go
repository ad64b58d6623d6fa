// Package history реализует HTTP-обработчик истории подписок пользователя.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/services/subscription"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Service описывает интерфейс бизнес-логики истории подписок.
type Service interface {
	GetHistory(ctx context.Context, userUID string, page, limit int) (*subscription.History, error)
}

// Handler обрабатывает запросы истории подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос истории подписок.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorCode("Authentication required.",
			middlewarectx.CodeAuthRequired))
		return
	}

	page, limit := parsePage(r.URL.Query().Get)

	history, err := h.service.GetHistory(r.Context(), user.UID, page, limit)
	if err != nil {
		log.Error("failed to get subscription history", sl.UID(user.UID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch subscription history"))
		return
	}

	render.JSON(w, r, history)
}

func parsePage(get func(string) string) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if v, err := strconv.Atoi(get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(get("limit")); err == nil && v > 0 {
		limit = v
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	return page, limit
}
