package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// Типы событий вебхуков провайдера оплаты.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
)

// Event — событие вебхука. Объект события декодируется по типу.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// checkoutObject — сессия чекаута из события checkout.session.completed.
type checkoutObject struct {
	ID             string            `json:"id"`
	SubscriptionID string            `json:"subscription"`
	PaymentID      string            `json:"payment_intent"`
	AmountTotal    int64             `json:"amount_total"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
}

// subscriptionObject — объект подписки из событий customer.subscription.*.
type subscriptionObject struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

// invoiceObject — счёт из событий invoice.payment_*.
type invoiceObject struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription"`
	PaymentID      string `json:"payment_intent"`
	AmountPaid     int64  `json:"amount_paid"`
	AmountDue      int64  `json:"amount_due"`
	Currency       string `json:"currency"`
}

// ProcessEvent обрабатывает событие вебхука. Обработчики идемпотентны:
// повторная доставка того же события приводит базу в то же состояние.
// Неизвестные типы событий логируются и подтверждаются без обработки.
func (s *PaymentService) ProcessEvent(ctx context.Context, event Event) error {
	const op = "payment.ProcessEvent"

	log := s.log.With(slog.String("op", op), slog.String("event", event.Type))

	var err error
	switch event.Type {
	case EventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event.Data.Object)
	case EventSubscriptionCreated:
		// Строка создаётся обработчиком чекаута; событие только логируется.
		log.Info("subscription created at provider")
	case EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event.Data.Object)
	case EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event.Data.Object)
	case EventInvoicePaid:
		err = s.handleInvoicePaid(ctx, event.Data.Object)
	case EventInvoiceFailed:
		err = s.handleInvoiceFailed(ctx, event.Data.Object)
	default:
		log.Info("ignored webhook event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("webhook event processed")
	return nil
}

// handleCheckoutCompleted активирует подписку после успешного чекаута:
// строка подписки, запись платежа, флаг пользователя.
func (s *PaymentService) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session checkoutObject
	if err := json.Unmarshal(raw, &session); err != nil {
		return err
	}
	userUID := session.Metadata["user_uid"]
	planID := session.Metadata["plan_id"]
	if userUID == "" || session.SubscriptionID == "" {
		return errors.New("checkout session missing user_uid or subscription")
	}

	sub := models.Subscription{
		UserUID:                userUID,
		PlanType:               planID,
		Status:                 models.SubscriptionActive,
		ProviderSubscriptionID: &session.SubscriptionID,
	}
	// Границы периода подтягиваются от провайдера; без них строка
	// всё равно активируется.
	if providerSub, err := s.provider.GetSubscription(ctx, session.SubscriptionID); err != nil {
		s.log.Warn("provider subscription fetch failed during checkout", sl.Err(err))
	} else {
		sub.CurrentPeriodStart = unixPtr(providerSub.CurrentPeriodStart)
		sub.CurrentPeriodEnd = unixPtr(providerSub.CurrentPeriodEnd)
	}

	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	if session.PaymentID != "" {
		if err := s.repo.InsertPayment(ctx, models.Payment{
			UserUID:                userUID,
			ProviderPaymentID:      session.PaymentID,
			ProviderSubscriptionID: session.SubscriptionID,
			AmountCents:            session.AmountTotal,
			Currency:               session.Currency,
			Status:                 models.PaymentCompleted,
		}); err != nil {
			return err
		}
	}
	return s.repo.SetUserSubscriptionStatus(ctx, userUID, models.SubscriptionActive)
}

func (s *PaymentService) handleSubscriptionUpdated(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionObject
	if err := json.Unmarshal(raw, &sub); err != nil {
		return err
	}
	if err := s.repo.UpdateSubscriptionStatusByProviderID(ctx, sub.ID, sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd); err != nil {
		return err
	}
	return s.updateOwnerStatus(ctx, sub.ID, sub.Status == models.SubscriptionActive)
}

func (s *PaymentService) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub subscriptionObject
	if err := json.Unmarshal(raw, &sub); err != nil {
		return err
	}
	if err := s.repo.UpdateSubscriptionStatusByProviderID(ctx, sub.ID,
		models.SubscriptionCancelled, nil, nil); err != nil {
		return err
	}
	return s.updateOwnerStatus(ctx, sub.ID, false)
}

func (s *PaymentService) handleInvoicePaid(ctx context.Context, raw json.RawMessage) error {
	var invoice invoiceObject
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return err
	}
	userUID, err := s.repo.FindUserByProviderSubscription(ctx, invoice.SubscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("invoice for unknown subscription",
				slog.String("subscription", invoice.SubscriptionID))
			return nil
		}
		return err
	}
	return s.repo.InsertPayment(ctx, models.Payment{
		UserUID:                userUID,
		ProviderPaymentID:      invoice.PaymentID,
		ProviderSubscriptionID: invoice.SubscriptionID,
		AmountCents:            invoice.AmountPaid,
		Currency:               invoice.Currency,
		Status:                 models.PaymentCompleted,
	})
}

func (s *PaymentService) handleInvoiceFailed(ctx context.Context, raw json.RawMessage) error {
	var invoice invoiceObject
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return err
	}
	userUID, err := s.repo.FindUserByProviderSubscription(ctx, invoice.SubscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("failed invoice for unknown subscription",
				slog.String("subscription", invoice.SubscriptionID))
			return nil
		}
		return err
	}
	if err = s.repo.InsertPayment(ctx, models.Payment{
		UserUID:                userUID,
		ProviderPaymentID:      invoice.PaymentID,
		ProviderSubscriptionID: invoice.SubscriptionID,
		AmountCents:            invoice.AmountDue,
		Currency:               invoice.Currency,
		Status:                 models.PaymentFailed,
	}); err != nil {
		return err
	}
	return s.repo.UpdateSubscriptionStatusByProviderID(ctx, invoice.SubscriptionID,
		models.SubscriptionPastDue, nil, nil)
}

func (s *PaymentService) updateOwnerStatus(ctx context.Context, providerSubID string, active bool) error {
	userUID, err := s.repo.FindUserByProviderSubscription(ctx, providerSubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	status := models.SubscriptionInactive
	if active {
		status = models.SubscriptionActive
	}
	return s.repo.SetUserSubscriptionStatus(ctx, userUID, status)
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
