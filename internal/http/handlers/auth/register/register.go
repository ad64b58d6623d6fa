// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Handler валидирует тело запроса, создает пользователя через бизнес-логику
// и возвращает пару токенов с публичной проекцией пользователя.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/auth"
)

// Request — входные данные для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128,password_complexity"`
	Name     string `json:"name" validate:"required,min=2,max=50,name_charset"`
}

// Response — результат успешной регистрации.
type Response struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, email, password, name string) (*auth.Session, error)
}

// Handler обрабатывает запросы на регистрацию пользователя.
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
		validate: newValidator(),
	}
}

// newValidator собирает валидатор с доменными правилами пароля и имени.
func newValidator() *validator.Validate {
	v := validator.New()

	// Пароль: минимум по одному символу из каждого класса.
	_ = v.RegisterValidation("password_complexity", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		var lower, upper, digit, special bool
		for _, r := range s {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			case strings.ContainsRune("!@#$%^&*()_+-=[]{};':\"\\|,.<>/?", r):
				special = true
			}
		}
		return lower && upper && digit && special
	})

	// Имя: только буквы и пробелы.
	_ = v.RegisterValidation("name_charset", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) && r != ' ' {
				return false
			}
		}
		return true
	})
	return v
}

// ServeHTTP обрабатывает HTTP-запрос на регистрацию.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	session, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			log.Warn("registration rejected: email taken")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorCode(
				"User with this email already exists", "DUPLICATE_EMAIL"))
			return
		}
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", sl.UID(session.User.UID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		User:         session.User,
	})
}
