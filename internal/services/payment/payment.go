// Package payment содержит логику бизнес-уровня оплаты: создание сессии
// хостед‑чекаута и обработку событий вебхуков провайдера.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/paymentprovider"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// Типизированные ошибки оплаты.
var (
	// ErrInvalidPlan — неизвестный идентификатор тарифного плана.
	ErrInvalidPlan = errors.New("invalid plan id")
	// ErrExistingSubscription — у пользователя уже есть активная подписка.
	ErrExistingSubscription = errors.New("user already has an active subscription")
	// ErrProviderUnavailable — провайдер оплаты отказал в операции.
	ErrProviderUnavailable = errors.New("payment provider request failed")
)

// PaymentRepository описывает контракт слоя данных для платежей и подписок,
// затрагиваемых чекаутом и вебхуками.
type PaymentRepository interface {
	GetActiveSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub models.Subscription) error
	UpdateSubscriptionStatusByProviderID(ctx context.Context, providerSubID, status string, periodStart, periodEnd *int64) error
	FindUserByProviderSubscription(ctx context.Context, providerSubID string) (string, error)
	SetUserSubscriptionStatus(ctx context.Context, userUID, status string) error
	InsertPayment(ctx context.Context, p models.Payment) error
	ListPayments(ctx context.Context, userUID string, page, limit int) ([]models.Payment, int, error)
}

// ProviderClient описывает используемую часть клиента провайдера оплаты.
type ProviderClient interface {
	FindOrCreateCustomer(ctx context.Context, email, name, userUID string) (*paymentprovider.Customer, error)
	CreateCheckoutSession(ctx context.Context, req paymentprovider.CreateSessionRequest) (*paymentprovider.CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
}

// PaymentService реализует создание чекаута и обработку вебхуков.
type PaymentService struct {
	repo        PaymentRepository
	provider    ProviderClient
	frontendURL string
	log         *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, provider ProviderClient, frontendURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:        repo,
		provider:    provider,
		frontendURL: frontendURL,
		log:         log,
	}
}

// CheckoutParams — параметры создания сессии оплаты.
type CheckoutParams struct {
	PlanID   string
	PlanName string
	Price    int64 // в центах
	Currency string
	Interval string
}

// CheckoutResult — созданная сессия: адрес хостед‑страницы и идентификатор.
type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CreateCheckout создаёт сессию хостед‑чекаута для пользователя.
// Пользователь с активной подпиской второй чекаут не получает.
func (s *PaymentService) CreateCheckout(ctx context.Context, user models.PublicUser, p CheckoutParams) (*CheckoutResult, error) {
	const op = "payment.CreateCheckout"

	if !models.ValidPlan(p.PlanID) {
		return nil, ErrInvalidPlan
	}
	if _, err := s.repo.GetActiveSubscription(ctx, user.UID); err == nil {
		return nil, ErrExistingSubscription
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customer, err := s.provider.FindOrCreateCustomer(ctx, user.Email, user.Name, user.UID)
	if err != nil {
		s.log.Error("provider customer lookup failed", slog.String("user_uid", user.UID))
		return nil, ErrProviderUnavailable
	}

	if p.Currency == "" {
		p.Currency = "usd"
	}
	if p.Interval == "" {
		p.Interval = "month"
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateSessionRequest{
		CustomerID:      customer.ID,
		PlanID:          p.PlanID,
		PlanName:        p.PlanName,
		UnitAmountCents: p.Price,
		Currency:        p.Currency,
		Interval:        p.Interval,
		SuccessURL:      s.frontendURL + "/subscription?success=true&plan=" + p.PlanName,
		CancelURL:       s.frontendURL + "/subscription?cancelled=true",
		IdempotencyKey:  uuid.NewString(),
		Metadata: map[string]string{
			"user_uid":  user.UID,
			"plan_id":   p.PlanID,
			"plan_name": p.PlanName,
		},
	})
	if err != nil {
		return nil, ErrProviderUnavailable
	}
	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

// PaymentHistory — страница истории платежей.
type PaymentHistory struct {
	Payments   []PaymentView     `json:"payments"`
	Pagination models.Pagination `json:"pagination"`
}

// PaymentView — платёж в ответе API: сумма в основной валютной единице.
type PaymentView struct {
	models.Payment
	Amount float64 `json:"amount"`
}

// GetHistory возвращает страницу истории платежей пользователя.
func (s *PaymentService) GetHistory(ctx context.Context, userUID string, page, limit int) (*PaymentHistory, error) {
	const op = "payment.GetHistory"

	payments, total, err := s.repo.ListPayments(ctx, userUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, PaymentView{Payment: p, Amount: float64(p.AmountCents) / 100})
	}
	return &PaymentHistory{
		Payments:   views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}
