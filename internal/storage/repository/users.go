package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/streaming-service/internal/models"
)

// uniqueViolation — код ошибки PostgreSQL для нарушения уникального индекса.
const uniqueViolation = "23505"

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Конфликт по email транслируется в ErrEmailTaken: уникальный индекс —
// последний рубеж против гонки двух одновременных регистраций.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "repository.CreateUser"

	var newUID string
	query := `INSERT INTO users (email, name, password_hash, subscription_status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid`
	err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.SubscriptionStatus).Scan(&newUID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

const userColumns = `uid, email, name, password_hash, subscription_status,
			  failed_login_attempts, account_locked_until, refresh_token, last_login`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var lockedUntil, lastLogin sql.NullTime
	var refreshToken sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.PasswordHash, &u.SubscriptionStatus,
		&u.FailedLoginAttempts, &lockedUntil, &refreshToken, &lastLogin); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		u.AccountLockedUntil = &lockedUntil.Time
	}
	if refreshToken.Valid {
		u.RefreshToken = &refreshToken.String
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по нормализованному email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUID возвращает пользователя по его UID.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "repository.GetUserByUID"

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// RecordFailedLogin сохраняет счётчик неудачных попыток и время блокировки.
// Две конкурентные неудачные попытки гонятся по счётчику (last-write-wins) —
// принятое ослабление, см. модель конкурентности.
func (s *Storage) RecordFailedLogin(ctx context.Context, userUID string, attempts int, lockedUntil *time.Time) error {
	const op = "repository.RecordFailedLogin"

	query := `UPDATE users
			  SET failed_login_attempts = $1, account_locked_until = $2
			  WHERE uid = $3`
	if _, err := s.DB.ExecContext(ctx, query, attempts, lockedUntil, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetLoginState сбрасывает счётчик неудачных попыток, снимает блокировку
// и фиксирует время успешного входа.
func (s *Storage) ResetLoginState(ctx context.Context, userUID string) error {
	const op = "repository.ResetLoginState"

	query := `UPDATE users
			  SET failed_login_attempts = 0, account_locked_until = NULL, last_login = now()
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetRefreshToken безусловно заменяет сохранённый refresh‑токен пользователя.
// Используется при регистрации и входе: прежние сессии теряют возможность
// обновления.
func (s *Storage) SetRefreshToken(ctx context.Context, userUID, token string) error {
	const op = "repository.SetRefreshToken"

	query := `UPDATE users SET refresh_token = $1 WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, token, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RotateRefreshToken условно заменяет refresh‑токен: обновление проходит
// только если сохранённое значение совпадает с предъявленным. Из двух
// конкурентных обновлений одного токена выигрывает ровно одно.
func (s *Storage) RotateRefreshToken(ctx context.Context, userUID, oldToken, newToken string) (bool, error) {
	const op = "repository.RotateRefreshToken"

	query := `UPDATE users SET refresh_token = $1
			  WHERE uid = $2 AND refresh_token = $3`
	result, err := s.DB.ExecContext(ctx, query, newToken, userUID, oldToken)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// ClearRefreshToken удаляет сохранённый refresh‑токен: все выданные
// refresh‑токены пользователя становятся непригодными.
func (s *Storage) ClearRefreshToken(ctx context.Context, userUID string) error {
	const op = "repository.ClearRefreshToken"

	query := `UPDATE users SET refresh_token = NULL WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetUserSubscriptionStatus обновляет флаг подписки на строке пользователя.
func (s *Storage) SetUserSubscriptionStatus(ctx context.Context, userUID, status string) error {
	const op = "repository.SetUserSubscriptionStatus"

	query := `UPDATE users SET subscription_status = $1 WHERE uid = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
