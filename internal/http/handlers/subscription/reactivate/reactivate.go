// Package reactivate реализует HTTP-обработчик снятия отложенной отмены
// подписки.
package reactivate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/services/subscription"
)

// Service описывает интерфейс бизнес-логики реактивации подписки.
type Service interface {
	Reactivate(ctx context.Context, userUID string) error
}

// Handler обрабатывает запросы на реактивацию подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос на реактивацию подписки.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.reactivate"

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

	if err := h.service.Reactivate(r.Context(), user.UID); err != nil {
		switch {
		case errors.Is(err, subscription.ErrNoSubscription):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorCode(
				"No subscription found", "NO_SUBSCRIPTION"))
		case errors.Is(err, subscription.ErrAlreadyActive):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorCode(
				"Subscription is already active", "ALREADY_ACTIVE"))
		case errors.Is(err, subscription.ErrProviderUnavailable):
			log.Error("provider reactivation failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorCode(
				"Failed to reactivate subscription", "PROVIDER_ERROR"))
		default:
			log.Error("reactivation failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to reactivate subscription"))
		}
		return
	}

	log.Info("subscription reactivated", sl.UID(user.UID))
	render.JSON(w, r, map[string]string{"message": "Subscription reactivated successfully"})
}
