package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/streaming-service/internal/models"
)

// InsertPayment записывает платёж. Конфликт по provider_payment_id молча
// игнорируется: повторная доставка вебхука не плодит дубликатов.
func (s *Storage) InsertPayment(ctx context.Context, p models.Payment) error {
	const op = "repository.InsertPayment"

	query := `INSERT INTO payments (user_uid, provider_payment_id, provider_subscription_id,
			      amount_cents, currency, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now())
			  ON CONFLICT (provider_payment_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, p.UserUID, p.ProviderPaymentID,
		p.ProviderSubscriptionID, p.AmountCents, p.Currency, p.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListPayments возвращает страницу истории платежей и общее число строк.
func (s *Storage) ListPayments(ctx context.Context, userUID string, page, limit int) ([]models.Payment, int, error) {
	const op = "repository.ListPayments"

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE user_uid = $1`, userUID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT id, user_uid, provider_payment_id, provider_subscription_id,
			      amount_cents, currency, status, created_at
			  FROM payments WHERE user_uid = $1
			  ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Payment
	for rows.Next() {
		var p models.Payment
		if err = rows.Scan(&p.ID, &p.UserUID, &p.ProviderPaymentID, &p.ProviderSubscriptionID,
			&p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}
