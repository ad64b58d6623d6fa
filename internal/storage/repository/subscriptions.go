package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/streaming-service/internal/models"
)

const subscriptionColumns = `id, user_uid, plan_type, status, provider_subscription_id,
			  current_period_start, current_period_end, created_at, updated_at`

func scanSubscription(scan func(dest ...any) error) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var providerID sql.NullString
	var periodStart, periodEnd sql.NullTime
	if err := scan(&sub.ID, &sub.UserUID, &sub.PlanType, &sub.Status, &providerID,
		&periodStart, &periodEnd, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if providerID.Valid {
		sub.ProviderSubscriptionID = &providerID.String
	}
	if periodStart.Valid {
		sub.CurrentPeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return sub, nil
}

// GetLatestSubscription возвращает последнюю по времени строку подписки пользователя.
func (s *Storage) GetLatestSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "repository.GetLatestSubscription"

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
			  WHERE user_uid = $1 ORDER BY created_at DESC LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// GetActiveSubscription возвращает активную строку подписки пользователя.
func (s *Storage) GetActiveSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "repository.GetActiveSubscription"

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
			  WHERE user_uid = $1 AND status = 'active'
			  ORDER BY created_at DESC LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListSubscriptions возвращает страницу истории подписок и общее число строк.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string, page, limit int) ([]models.Subscription, int, error) {
	const op = "repository.ListSubscriptions"

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_uid = $1`, userUID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE user_uid = $1
			  ORDER BY created_at DESC LIMIT %d OFFSET %d`, subscriptionColumns, limit, offset)
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// UpsertSubscription вставляет или обновляет строку подписки по паре
// (user_uid, provider_subscription_id). Повторная доставка вебхука
// приводит к тому же состоянию строки.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "repository.UpsertSubscription"

	query := `INSERT INTO subscriptions (user_uid, plan_type, status, provider_subscription_id,
			      current_period_start, current_period_end, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			  ON CONFLICT (user_uid, provider_subscription_id) DO UPDATE
			  SET plan_type = EXCLUDED.plan_type,
			      status = EXCLUDED.status,
			      current_period_start = EXCLUDED.current_period_start,
			      current_period_end = EXCLUDED.current_period_end,
			      updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, sub.UserUID, sub.PlanType, sub.Status,
		sub.ProviderSubscriptionID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionStatusByProviderID обновляет статус и границы периода
// строки, связанной с объектом подписки провайдера.
func (s *Storage) UpdateSubscriptionStatusByProviderID(ctx context.Context, providerSubID, status string, periodStart, periodEnd *int64) error {
	const op = "repository.UpdateSubscriptionStatusByProviderID"

	query := `UPDATE subscriptions
			  SET status = $1,
			      current_period_start = COALESCE(to_timestamp($2), current_period_start),
			      current_period_end = COALESCE(to_timestamp($3), current_period_end),
			      updated_at = now()
			  WHERE provider_subscription_id = $4`
	if _, err := s.DB.ExecContext(ctx, query, status, periodStart, periodEnd, providerSubID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionPlan меняет тарифный план активной подписки пользователя.
func (s *Storage) UpdateSubscriptionPlan(ctx context.Context, userUID, planType string) error {
	const op = "repository.UpdateSubscriptionPlan"

	query := `UPDATE subscriptions SET plan_type = $1, updated_at = now()
			  WHERE user_uid = $2 AND status = 'active'`
	if _, err := s.DB.ExecContext(ctx, query, planType, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TouchSubscription обновляет updated_at активной подписки пользователя.
func (s *Storage) TouchSubscription(ctx context.Context, userUID string) error {
	const op = "repository.TouchSubscription"

	query := `UPDATE subscriptions SET updated_at = now()
			  WHERE user_uid = $1 AND status = 'active'`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindUserByProviderSubscription возвращает UID владельца подписки провайдера.
func (s *Storage) FindUserByProviderSubscription(ctx context.Context, providerSubID string) (string, error) {
	const op = "repository.FindUserByProviderSubscription"

	var userUID string
	query := `SELECT user_uid FROM subscriptions WHERE provider_subscription_id = $1 LIMIT 1`
	err := s.DB.QueryRowContext(ctx, query, providerSubID).Scan(&userUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}
