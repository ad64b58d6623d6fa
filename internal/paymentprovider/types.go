// Package paymentprovider реализует HTTP‑клиент провайдера оплаты:
// хостед‑чекаут, объекты покупателя и подписки, проверку подписи вебхуков.
// Бизнес‑логика биллинга остаётся на стороне провайдера, сервис только
// создаёт сессии и синхронизирует статусы.
package paymentprovider

// Customer — объект покупателя на стороне провайдера.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// CheckoutSession — созданная сессия оплаты. URL ведёт на хостед‑страницу.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSessionRequest — параметры создания сессии оплаты подписки.
type CreateSessionRequest struct {
	CustomerID      string            `json:"customer"`
	PlanID          string            `json:"plan_id"`
	PlanName        string            `json:"plan_name"`
	UnitAmountCents int64             `json:"unit_amount"`
	Currency        string            `json:"currency"`
	Interval        string            `json:"interval"`
	SuccessURL      string            `json:"success_url"`
	CancelURL       string            `json:"cancel_url"`
	IdempotencyKey  string            `json:"-"`
	Metadata        map[string]string `json:"metadata"`
}

// Subscription — объект подписки на стороне провайдера. Временные метки —
// unix‑секунды, как их отдаёт API провайдера.
type Subscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	PlanID             string `json:"plan_id"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CanceledAt         *int64 `json:"canceled_at"`
}

// UpdateSubscriptionRequest — изменение подписки: отложенная отмена
// и/или смена тарифного плана.
type UpdateSubscriptionRequest struct {
	CancelAtPeriodEnd *bool  `json:"cancel_at_period_end,omitempty"`
	PlanID            string `json:"plan_id,omitempty"`
	UnitAmountCents   int64  `json:"unit_amount,omitempty"`
	Currency          string `json:"currency,omitempty"`
	Interval          string `json:"interval,omitempty"`
}

// customerList — ответ на поиск покупателя по email.
type customerList struct {
	Data []Customer `json:"data"`
}
