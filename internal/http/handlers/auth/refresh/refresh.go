// Package refresh реализует HTTP-обработчик обмена refresh‑токена на новую
// пару токенов.
//
// Истёкший токен и токен, не совпавший с сохранённым, дают разные коды:
// по первому клиент отправляет пользователя на повторный вход, по второму
// показывает ошибку безопасности.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/auth"
)

// Request — входные данные для обновления пары токенов.
type Request struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Response — новая пара токенов.
type Response struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

// Service описывает интерфейс бизнес-логики обновления токенов.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
}

// Handler обрабатывает запросы на обновление пары токенов.
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

// ServeHTTP обрабатывает HTTP-запрос на обновление пары токенов.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	session, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.ErrorCode(
				"Refresh token expired. Please login again.", "TOKEN_EXPIRED"))
		case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrTokenNotActive):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.ErrorCode(
				"Invalid refresh token.", "INVALID_TOKEN"))
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			log.Warn("refresh rejected: token does not match stored value")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.ErrorCode(
				"Invalid or expired refresh token.", "INVALID_REFRESH_TOKEN"))
		default:
			log.Error("refresh failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to refresh tokens"))
		}
		return
	}

	log.Info("token pair refreshed", sl.UID(session.User.UID))
	render.JSON(w, r, Response{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		User:         session.User,
	})
}
