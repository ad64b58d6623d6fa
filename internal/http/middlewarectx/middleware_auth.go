// Package middlewarectx содержит HTTP middleware запросного уровня:
// проверку JWT с привязкой личности к контексту, проверку активной подписки,
// ограничитель частоты запросов и сбор метрик.
//
// Auth проверяет заголовок Authorization, валидирует access‑токен, находит
// пользователя и кладёт в контекст его публичную проекцию и claims токена.
// Middleware либо пропускает запрос с установленной личностью, либо
// отвечает отказом — третьего состояния нет. Любая неожиданная ошибка
// поиска пользователя закрывает запрос с 500, а не пропускает его дальше.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	jwtlib "github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/http/response"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserKey — ключ публичной проекции пользователя в контексте.
	UserKey Key = "user"
	// ClaimsKey — ключ claims access‑токена в контексте.
	ClaimsKey Key = "claims"
)

// Машиночитаемые коды отказа аутентификации и авторизации.
const (
	CodeNoAuthHeader          = "NO_AUTH_HEADER"
	CodeInvalidAuthFormat     = "INVALID_AUTH_FORMAT"
	CodeNoToken               = "NO_TOKEN"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeTokenNotActive        = "TOKEN_NOT_ACTIVE"
	CodeInvalidTokenStructure = "INVALID_TOKEN_STRUCTURE"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeAccountLocked         = "ACCOUNT_LOCKED"
	CodeDatabaseError         = "DATABASE_ERROR"
	CodeAuthRequired          = "AUTH_REQUIRED"
	CodeSubscriptionRequired  = "SUBSCRIPTION_REQUIRED"
)

// UserProvider описывает контракт поиска пользователя для middleware.
type UserProvider interface {
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// UserFromContext возвращает публичную проекцию пользователя из контекста.
func UserFromContext(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(UserKey).(models.PublicUser)
	return user, ok
}

// ClaimsFromContext возвращает claims access‑токена из контекста.
func ClaimsFromContext(ctx context.Context) (*jwtlib.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*jwtlib.Claims)
	return claims, ok
}

func reject(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	render.Status(r, status)
	render.JSON(w, r, response.ErrorCode(msg, code))
}

// Auth возвращает HTTP middleware, проверяющий access‑токен в заголовке
// Authorization и кладущий личность пользователя в контекст запроса.
func Auth(tokens jwtlib.Maker, users UserProvider, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Auth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, r, http.StatusUnauthorized,
					"Access denied. No authorization header provided.", CodeNoAuthHeader)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				reject(w, r, http.StatusUnauthorized,
					"Access denied. Invalid authorization format.", CodeInvalidAuthFormat)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == "" {
				reject(w, r, http.StatusUnauthorized,
					"Access denied. No token provided.", CodeNoToken)
				return
			}

			claims, err := tokens.ParseAccess(tokenStr)
			if err != nil {
				switch {
				case errors.Is(err, jwtlib.ErrTokenExpired):
					reject(w, r, http.StatusUnauthorized,
						"Access denied. Token expired.", CodeTokenExpired)
				case errors.Is(err, jwtlib.ErrTokenNotActive):
					reject(w, r, http.StatusUnauthorized,
						"Access denied. Token not active yet.", CodeTokenNotActive)
				default:
					reject(w, r, http.StatusUnauthorized,
						"Access denied. Invalid token.", CodeInvalidToken)
				}
				return
			}
			if claims.UserUID == "" {
				reject(w, r, http.StatusUnauthorized,
					"Access denied. Invalid token structure.", CodeInvalidTokenStructure)
				return
			}

			user, err := users.GetUserByUID(r.Context(), claims.UserUID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					log.Warn("authentication failed: user not found", sl.UID(claims.UserUID))
					reject(w, r, http.StatusUnauthorized,
						"Access denied. User not found.", CodeUserNotFound)
					return
				}
				log.Error("user lookup failed", sl.Err(err))
				reject(w, r, http.StatusInternalServerError,
					"Internal server error. Please try again later.", CodeDatabaseError)
				return
			}

			if user.IsLocked(timeNow()) {
				log.Warn("authentication failed: account locked", sl.UID(user.UID))
				reject(w, r, http.StatusLocked,
					"Account temporarily locked. Please try again later.", CodeAccountLocked)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user.Public())
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
