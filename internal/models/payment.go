package models

import "time"

// Статусы платежа.
const (
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment представляет запись о платеже, созданную обработчиком вебхуков
// провайдера оплаты. Сумма хранится в минимальных единицах валюты (центах).
type Payment struct {
	ID                     int64     `json:"id"`
	UserUID                string    `json:"-"`
	ProviderPaymentID      string    `json:"provider_payment_id"`
	ProviderSubscriptionID string    `json:"-"`
	AmountCents            int64     `json:"-"`
	Currency               string    `json:"currency"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"created_at"`
}
