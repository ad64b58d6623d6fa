// Package auth содержит логику бизнес-уровня для регистрации, входа,
// обновления пары токенов и логаута.
//
// Слой данных возвращает типизированные ошибки, и сервис переводит их
// в собственный набор: обработчики переключаются по ним явно, не разбирая
// внутренности. Сообщение "invalid email or password" намеренно одинаково
// для несуществующего email и неверного пароля — перечисление аккаунтов
// по ответам сервера невозможно.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/lib/password"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// Типизированные ошибки аутентификации.
var (
	// ErrEmailTaken — пользователь с таким email уже зарегистрирован.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials — неверная пара email/пароль. Возвращается и при
	// отсутствии пользователя: причины снаружи неразличимы.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken — refresh‑токен не совпадает с сохранённым:
	// он уже был обменян, отозван логаутом или пользователь не существует.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// AccountLockedError — аккаунт временно заблокирован после серии
// неудачных попыток входа.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return "account temporarily locked until " + e.Until.Format(time.RFC3339)
}

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	RecordFailedLogin(ctx context.Context, userUID string, attempts int, lockedUntil *time.Time) error
	ResetLoginState(ctx context.Context, userUID string) error
	SetRefreshToken(ctx context.Context, userUID, token string) error
	RotateRefreshToken(ctx context.Context, userUID, oldToken, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, userUID string) error
}

// Session — результат успешной аутентификации: пара токенов и публичная
// проекция пользователя.
type Session struct {
	Tokens jwt.TokenPair
	User   models.PublicUser
}

// AuthService отвечает за регистрацию, вход, ротацию refresh‑токенов и логаут.
type AuthService struct {
	users       UserRepository
	tokens      jwt.Maker
	maxAttempts int
	cooldown    time.Duration
	now         func() time.Time
}

// NewAuthService создает новый экземпляр AuthService с политикой блокировки:
// после maxAttempts неудачных попыток вход закрывается на cooldown.
func NewAuthService(users UserRepository, tokens jwt.Maker, maxAttempts int, cooldown time.Duration) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// NormalizeEmail приводит email к каноничному виду: нижний регистр без
// окружающих пробелов. Уникальность email проверяется по этому виду.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает нового пользователя, выпускает пару токенов и сохраняет
// refresh‑токен на строке пользователя.
func (s *AuthService) Register(ctx context.Context, email, rawPassword, name string) (*Session, error) {
	const op = "auth.Register"

	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:              email,
		Name:               name,
		PasswordHash:       hashed,
		SubscriptionStatus: models.SubscriptionNone,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.tokens.GeneratePair(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.SetRefreshToken(ctx, uid, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.UID = uid
	return &Session{Tokens: pair, User: user.Public()}, nil
}

// Login проверяет учетные данные и выдаёт новую пару токенов.
//
// Неудачная попытка увеличивает счётчик; по достижении порога аккаунт
// блокируется на время cooldown. Попытки на заблокированном аккаунте
// счётчик не двигают. Успешный вход сбрасывает счётчик, снимает блокировку
// и перезаписывает refresh‑токен — прежние сессии теряют refresh.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, &AccountLockedError{Until: *user.AccountLockedUntil}
	}

	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= s.maxAttempts {
			until := now.Add(s.cooldown)
			lockedUntil = &until
		}
		if recErr := s.users.RecordFailedLogin(ctx, user.UID, attempts, lockedUntil); recErr != nil {
			return nil, fmt.Errorf("%s: %w", op, recErr)
		}
		return nil, ErrInvalidCredentials
	}

	if err = s.users.ResetLoginState(ctx, user.UID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.tokens.GeneratePair(user.UID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.SetRefreshToken(ctx, user.UID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Session{Tokens: pair, User: user.Public()}, nil
}

// Refresh обменивает refresh‑токен на новую пару и ротирует сохранённый токен.
//
// Токен годен только если он криптографически валиден И совпадает со
// значением на строке пользователя. Обмен выполняется условным обновлением:
// из двух конкурентных запросов с одним токеном выигрывает ровно один,
// повтор уже использованного токена отклоняется до истечения его срока.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	const op = "auth.Refresh"

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		// jwt.ErrTokenExpired и jwt.ErrInvalidToken различаются: клиент
		// решает, перелогиниться или показать ошибку.
		return nil, err
	}
	if claims.UserUID == "" {
		return nil, jwt.ErrInvalidToken
	}

	pair, err := s.tokens.GeneratePair(claims.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rotated, err := s.users.RotateRefreshToken(ctx, claims.UserUID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !rotated {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetUserByUID(ctx, claims.UserUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Session{Tokens: pair, User: user.Public()}, nil
}

// Logout отзывает сохранённый refresh‑токен пользователя. Уже выданный
// access‑токен продолжает действовать до собственного истечения.
func (s *AuthService) Logout(ctx context.Context, userUID string) error {
	const op = "auth.Logout"

	if err := s.users.ClearRefreshToken(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
