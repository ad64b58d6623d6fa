// Package jwt реализует выпуск и проверку пары JWT токенов (access + refresh)
// с пользовательскими claim полями.
//
// Maker определяет интерфейс для выпуска пары токенов и проверки каждого из них.
// TokenMaker — конкретная реализация с раздельными секретами и сроками жизни:
// утечка access‑токена не может быть переиспользована как refresh‑токен.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки проверки токена. Истечение срока и "токен ещё не активен"
// различаются от прочих причин: клиенту это нужно, чтобы решить,
// перелогиниваться или тихо повторить запрос.
var (
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotActive — токен ещё не вступил в силу (nbf в будущем).
	ErrTokenNotActive = errors.New("token not active yet")
	// ErrInvalidToken — некорректный токен: плохая подпись, формат или метод подписи.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims описывает полезную нагрузку токена: идентификатор пользователя
// плюс стандартные claims (iat, exp).
type Claims struct {
	UserUID              string `json:"user_uid"` // Идентификатор пользователя
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT
}

// TokenPair — пара токенов, выдаваемая при регистрации, входе и обновлении.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Maker описывает интерфейс для выпуска и проверки пары токенов.
type Maker interface {
	// GeneratePair выпускает новую пару токенов для пользователя.
	GeneratePair(userUID string) (TokenPair, error)
	// ParseAccess проверяет access‑токен и возвращает его claims.
	ParseAccess(tokenStr string) (*Claims, error)
	// ParseRefresh проверяет refresh‑токен и возвращает его claims.
	ParseRefresh(tokenStr string) (*Claims, error)
}

// TokenMaker реализует интерфейс Maker. Access и refresh токены подписываются
// разными секретами и живут разное время: access — минуты, refresh — дни.
type TokenMaker struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenMaker создаёт TokenMaker с заданными секретами и сроками жизни.
func NewTokenMaker(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenMaker {
	return &TokenMaker{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}
