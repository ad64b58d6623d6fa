// Package logout реализует HTTP-обработчик выхода пользователя.
//
// Выход отзывает сохранённый refresh‑токен; уже выданный access‑токен
// продолжает действовать до собственного истечения.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/streaming-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, userUID string) error
}

// Handler обрабатывает запросы на выход пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP обрабатывает HTTP-запрос на выход.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	if err := h.service.Logout(r.Context(), user.UID); err != nil {
		log.Error("logout failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to logout"))
		return
	}

	log.Info("user logged out", sl.UID(user.UID))
	render.JSON(w, r, map[string]string{"message": "Logged out successfully"})
}
