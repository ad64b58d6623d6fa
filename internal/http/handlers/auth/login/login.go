// Package login реализует HTTP-обработчик входа пользователя.
//
// Неверный email и неверный пароль дают одинаковый ответ 401 — по ответу
// сервера нельзя перечислять существующие аккаунты. Заблокированный аккаунт
// отвечает 423 с временем окончания блокировки.
package login

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
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/auth"
)

// Request — входные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response — результат успешного входа.
type Response struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// Handler обрабатывает запросы на вход пользователя.
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

// ServeHTTP обрабатывает HTTP-запрос на вход.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var locked *auth.AccountLockedError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Warn("login rejected: invalid credentials")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.ErrorCode(
				"Invalid email or password", "INVALID_CREDENTIALS"))
		case errors.As(err, &locked):
			log.Warn("login rejected: account locked",
				slog.Time("locked_until", locked.Until))
			render.Status(r, http.StatusLocked)
			render.JSON(w, r, response.ErrorCode(
				"Account temporarily locked due to too many failed login attempts. Please try again later.",
				"ACCOUNT_LOCKED"))
		default:
			log.Error("login failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to login"))
		}
		return
	}

	log.Info("user logged in", sl.UID(session.User.UID))
	render.JSON(w, r, Response{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		User:         session.User,
	})
}
