// Package planupdate реализует HTTP-обработчик смены тарифного плана
// активной подписки.
package planupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/streaming-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/services/subscription"
)

// Request — входные данные для смены плана.
type Request struct {
	PlanID string `json:"planId" validate:"required"`
}

// Service описывает интерфейс бизнес-логики смены плана.
type Service interface {
	ChangePlan(ctx context.Context, userUID, newPlanID string) error
}

// Handler обрабатывает запросы на смену тарифного плана.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает HTTP-запрос на смену тарифного плана.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.planupdate"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.ChangePlan(r.Context(), user.UID, req.PlanID); err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidPlan):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorCode("Invalid plan id", "INVALID_PLAN_ID"))
		case errors.Is(err, subscription.ErrNoActiveSubscription):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ErrorCode(
				"No active subscription found", "NO_ACTIVE_SUBSCRIPTION"))
		case errors.Is(err, subscription.ErrSamePlan):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorCode(
				"Already subscribed to this plan", "SAME_PLAN"))
		case errors.Is(err, subscription.ErrProviderUnavailable):
			log.Error("provider plan update failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorCode(
				"Failed to update plan", "PROVIDER_ERROR"))
		default:
			log.Error("plan update failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update plan"))
		}
		return
	}

	log.Info("subscription plan updated", sl.UID(user.UID),
		slog.String("plan", req.PlanID))
	render.JSON(w, r, map[string]string{"message": "Plan updated successfully"})
}
