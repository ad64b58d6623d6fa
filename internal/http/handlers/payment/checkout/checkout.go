// Package checkout реализует HTTP-обработчик создания сессии хостед‑чекаута
// у провайдера оплаты.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/payment"
)

// Request — входные данные для создания сессии оплаты.
type Request struct {
	PlanID   string `json:"planId"`
	PlanName string `json:"planName"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Interval string `json:"interval"`
}

// Service описывает интерфейс бизнес-логики создания чекаута.
type Service interface {
	CreateCheckout(ctx context.Context, user models.PublicUser, p payment.CheckoutParams) (*payment.CheckoutResult, error)
}

// Handler обрабатывает запросы на создание сессии оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос на создание сессии оплаты.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkout"

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
	if req.PlanID == "" || req.PlanName == "" || req.Price <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorCode(
			"planId, planName and price are required", "MISSING_REQUIRED_FIELDS"))
		return
	}

	// Цена клиента не является источником истины: сумма берётся из
	// серверного прейскуранта по идентификатору плана.
	price, known := models.PlanPricesCents[req.PlanID]
	if !known {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorCode("Invalid plan id", "INVALID_PLAN_ID"))
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), user, payment.CheckoutParams{
		PlanID:   req.PlanID,
		PlanName: req.PlanName,
		Price:    price,
		Currency: req.Currency,
		Interval: req.Interval,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidPlan):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorCode("Invalid plan id", "INVALID_PLAN_ID"))
		case errors.Is(err, payment.ErrExistingSubscription):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorCode(
				"You already have an active subscription", "EXISTING_SUBSCRIPTION"))
		case errors.Is(err, payment.ErrProviderUnavailable):
			log.Error("provider checkout failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorCode(
				"Failed to create checkout session", "PROVIDER_ERROR"))
		default:
			log.Error("checkout failed", sl.UID(user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create checkout session"))
		}
		return
	}

	log.Info("checkout session created", sl.UID(user.UID),
		slog.String("session_id", result.SessionID))
	render.JSON(w, r, result)
}
