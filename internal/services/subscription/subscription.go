// Package subscription содержит логику бизнес-уровня управления подпиской:
// чтение статуса с оппортунистической сверкой с провайдером оплаты,
// историю, отмену, реактивацию и смену тарифного плана.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/paymentprovider"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// Типизированные ошибки управления подпиской.
var (
	// ErrNoSubscription — у пользователя нет ни одной строки подписки.
	ErrNoSubscription = errors.New("no subscription found")
	// ErrNoActiveSubscription — нет активной подписки для операции.
	ErrNoActiveSubscription = errors.New("no active subscription found")
	// ErrAlreadyActive — подписка уже активна, реактивация не нужна.
	ErrAlreadyActive = errors.New("subscription is already active")
	// ErrSamePlan — запрошенный план совпадает с текущим.
	ErrSamePlan = errors.New("already subscribed to this plan")
	// ErrInvalidPlan — неизвестный идентификатор тарифного плана.
	ErrInvalidPlan = errors.New("invalid plan id")
	// ErrProviderUnavailable — провайдер оплаты отказал в операции изменения.
	ErrProviderUnavailable = errors.New("payment provider request failed")
)

// SubscriptionRepository описывает контракт слоя данных подписок.
type SubscriptionRepository interface {
	GetLatestSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, userUID string, page, limit int) ([]models.Subscription, int, error)
	UpdateSubscriptionStatusByProviderID(ctx context.Context, providerSubID, status string, periodStart, periodEnd *int64) error
	UpdateSubscriptionPlan(ctx context.Context, userUID, planType string) error
	TouchSubscription(ctx context.Context, userUID string) error
	SetUserSubscriptionStatus(ctx context.Context, userUID, status string) error
}

// ProviderClient описывает используемую часть клиента провайдера оплаты.
type ProviderClient interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, req paymentprovider.UpdateSubscriptionRequest) (*paymentprovider.Subscription, error)
}

// SubscriptionService реализует операции управления подпиской.
type SubscriptionService struct {
	repo     SubscriptionRepository
	provider ProviderClient
	log      *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, provider ProviderClient, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, provider: provider, log: log}
}

// Status — статус подписки пользователя для ответа API.
type Status struct {
	PlanType          *string    `json:"plan_type"`
	Status            string     `json:"status"`
	ExpiresAt         *time.Time `json:"expires_at"`
	NextBillingDate   *time.Time `json:"next_billing_date"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CanceledAt        *time.Time `json:"canceled_at"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// GetStatus возвращает статус последней подписки пользователя.
//
// Если строка связана с объектом подписки провайдера, статус сверяется
// с провайдером: при расхождении локальные строки и флаг пользователя
// обновляются. Отказ провайдера не фатален — отдаются локальные данные.
func (s *SubscriptionService) GetStatus(ctx context.Context, userUID string) (*Status, error) {
	const op = "subscription.GetStatus"

	sub, err := s.repo.GetLatestSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &Status{Status: models.SubscriptionNone}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := &Status{
		PlanType:  &sub.PlanType,
		Status:    sub.Status,
		ExpiresAt: sub.CurrentPeriodEnd,
		CreatedAt: &sub.CreatedAt,
		UpdatedAt: &sub.UpdatedAt,
	}

	if sub.ProviderSubscriptionID != nil {
		s.reconcile(ctx, userUID, sub, status)
	}
	return status, nil
}

// reconcile подтягивает актуальное состояние подписки от провайдера
// и устраняет расхождение с локальными строками.
func (s *SubscriptionService) reconcile(ctx context.Context, userUID string, sub *models.Subscription, status *Status) {
	providerSub, err := s.provider.GetSubscription(ctx, *sub.ProviderSubscriptionID)
	if err != nil {
		s.log.Warn("provider subscription fetch failed, serving local data",
			sl.UID(userUID), sl.Err(err))
		return
	}

	if providerSub.Status != sub.Status {
		start, end := providerSub.CurrentPeriodStart, providerSub.CurrentPeriodEnd
		if err := s.repo.UpdateSubscriptionStatusByProviderID(ctx,
			*sub.ProviderSubscriptionID, providerSub.Status, &start, &end); err != nil {
			s.log.Error("failed to update diverged subscription", sl.Err(err))
		}
		userStatus := models.SubscriptionInactive
		if providerSub.Status == models.SubscriptionActive {
			userStatus = models.SubscriptionActive
		}
		if err := s.repo.SetUserSubscriptionStatus(ctx, userUID, userStatus); err != nil {
			s.log.Error("failed to update user subscription flag", sl.Err(err))
		}
		status.Status = providerSub.Status
	}

	// Провайдер — источник истины по границе периода: локальная копия
	// могла устареть до прихода вебхука.
	next := time.Unix(providerSub.CurrentPeriodEnd, 0).UTC()
	status.ExpiresAt = &next
	status.NextBillingDate = &next
	status.CancelAtPeriodEnd = providerSub.CancelAtPeriodEnd
	if providerSub.CanceledAt != nil {
		canceled := time.Unix(*providerSub.CanceledAt, 0).UTC()
		status.CanceledAt = &canceled
	}
}

// History — страница истории подписок.
type History struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	Pagination    models.Pagination     `json:"pagination"`
}

// GetHistory возвращает страницу истории подписок пользователя.
func (s *SubscriptionService) GetHistory(ctx context.Context, userUID string, page, limit int) (*History, error) {
	const op = "subscription.GetHistory"

	subs, total, err := s.repo.ListSubscriptions(ctx, userUID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return &History{
		Subscriptions: subs,
		Pagination:    models.NewPagination(page, limit, total),
	}, nil
}

// CancelResult — итог отмены: дата, с которой подписка перестанет действовать.
type CancelResult struct {
	EffectiveDate *time.Time `json:"cancellation_effective_date"`
}

// Cancel помечает активную подписку к отмене в конце оплаченного периода.
// Статус строки не меняется: подписка доживает период и закрывается
// вебхуком провайдера.
func (s *SubscriptionService) Cancel(ctx context.Context, userUID string) (*CancelResult, error) {
	const op = "subscription.Cancel"

	sub, err := s.repo.GetActiveSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sub.ProviderSubscriptionID != nil {
		cancelAtEnd := true
		if _, err = s.provider.UpdateSubscription(ctx, *sub.ProviderSubscriptionID,
			paymentprovider.UpdateSubscriptionRequest{CancelAtPeriodEnd: &cancelAtEnd}); err != nil {
			s.log.Error("provider cancellation failed", sl.UID(userUID), sl.Err(err))
			return nil, ErrProviderUnavailable
		}
	}

	if err = s.repo.TouchSubscription(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &CancelResult{EffectiveDate: sub.CurrentPeriodEnd}, nil
}

// Reactivate снимает отложенную отмену с последней подписки пользователя.
func (s *SubscriptionService) Reactivate(ctx context.Context, userUID string) error {
	const op = "subscription.Reactivate"

	sub, err := s.repo.GetLatestSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoSubscription
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status == models.SubscriptionActive {
		return ErrAlreadyActive
	}

	if sub.ProviderSubscriptionID != nil {
		cancelAtEnd := false
		if _, err = s.provider.UpdateSubscription(ctx, *sub.ProviderSubscriptionID,
			paymentprovider.UpdateSubscriptionRequest{CancelAtPeriodEnd: &cancelAtEnd}); err != nil {
			s.log.Error("provider reactivation failed", sl.UID(userUID), sl.Err(err))
			return ErrProviderUnavailable
		}
	}
	return nil
}

// ChangePlan переводит активную подписку на другой тарифный план.
func (s *SubscriptionService) ChangePlan(ctx context.Context, userUID, newPlanID string) error {
	const op = "subscription.ChangePlan"

	if !models.ValidPlan(newPlanID) {
		return ErrInvalidPlan
	}

	sub, err := s.repo.GetActiveSubscription(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoActiveSubscription
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.PlanType == newPlanID {
		return ErrSamePlan
	}

	if sub.ProviderSubscriptionID != nil {
		if _, err = s.provider.UpdateSubscription(ctx, *sub.ProviderSubscriptionID,
			paymentprovider.UpdateSubscriptionRequest{
				PlanID:          newPlanID,
				UnitAmountCents: models.PlanPricesCents[newPlanID],
				Currency:        "usd",
				Interval:        "month",
			}); err != nil {
			s.log.Error("provider plan update failed", sl.UID(userUID), sl.Err(err))
			return ErrProviderUnavailable
		}
	}

	if err = s.repo.UpdateSubscriptionPlan(ctx, userUID, newPlanID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
