// Package cancel реализует HTTP-обработчик отмены подписки.
//
// Отмена откладывается на конец оплаченного периода: строка остаётся
// активной и закрывается вебхуком провайдера по истечении периода.
package cancel

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

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	Cancel(ctx context.Context, userUID string) (*subscription.CancelResult, error)
}

// Handler обрабатывает запросы на отмену подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос на отмену подписки.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

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

	result, err := h.service.Cancel(r.Context(), user.UID)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrNoActiveSubscription):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorCode(
				"No active subscription found", "NO_ACTIVE_SUBSCRIPTION"))
		case errors.Is(err, subscription.ErrProviderUnavailable):
			log.Error("provider cancellation failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorCode(
				"Failed to cancel subscription", "PROVIDER_ERROR"))
		default:
			log.Error("cancellation failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to cancel subscription"))
		}
		return
	}

	log.Info("subscription cancellation scheduled", sl.UID(user.UID))
	render.JSON(w, r, map[string]any{
		"message":                     "Subscription will be cancelled at the end of the billing period",
		"cancellation_effective_date": result.EffectiveDate,
	})
}
