package models

import "time"

// Статусы подписки, общие для локальных строк и пользовательского флага.
const (
	SubscriptionNone      = "none"
	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionCancelled = "cancelled"
	SubscriptionPastDue   = "past_due"
)

// PlanPricesCents — цены тарифных планов в центах за месяц.
var PlanPricesCents = map[string]int64{
	"basic":   899,
	"premium": 1399,
	"family":  1799,
}

// ValidPlan сообщает, существует ли тарифный план с таким идентификатором.
func ValidPlan(planID string) bool {
	_, ok := PlanPricesCents[planID]
	return ok
}

// Subscription представляет строку подписки пользователя. Строка связывается
// с объектом подписки у провайдера оплаты через ProviderSubscriptionID;
// при наличии связки локальный статус сверяется с провайдером при чтении.
type Subscription struct {
	ID                     int64      `json:"-"`
	UserUID                string     `json:"-"`
	PlanType               string     `json:"plan_type"`
	Status                 string     `json:"status"`
	ProviderSubscriptionID *string    `json:"-"`
	CurrentPeriodStart     *time.Time `json:"current_period_start"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
