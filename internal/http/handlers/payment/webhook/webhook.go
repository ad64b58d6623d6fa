// Package webhook реализует HTTP-обработчик вебхуков провайдера оплаты.
//
// Подпись сырого тела проверяется до любого чтения JSON. Событие с плохой
// подписью отвечает 400, событие с ошибкой обработки — 500, чтобы провайдер
// повторил доставку; обработчики идемпотентны.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/paymentprovider"
	"github.com/magabrotheeeer/streaming-service/internal/services/payment"
)

// SignatureHeader — заголовок с HMAC‑подписью тела вебхука.
const SignatureHeader = "Provider-Signature"

const maxBodySize = 1 << 20 // 1 MiB

// Service описывает интерфейс обработки событий вебхуков.
type Service interface {
	ProcessEvent(ctx context.Context, event payment.Event) error
}

// Handler обрабатывает вебхуки провайдера оплаты.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый Handler с переданным логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{log: log, service: service, webhookSecret: webhookSecret}
}

// ServeHTTP обрабатывает HTTP-запрос вебхука.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !paymentprovider.VerifySignature(h.webhookSecret, body, signature) {
		log.Warn("webhook signature verification failed")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ErrorCode(
			"Webhook signature verification failed", "INVALID_SIGNATURE"))
		return
	}

	var event payment.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode webhook event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	if err := h.service.ProcessEvent(r.Context(), event); err != nil {
		log.Error("webhook processing failed",
			slog.String("event", event.Type), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("webhook processing failed"))
		return
	}

	render.JSON(w, r, map[string]bool{"received": true})
}
