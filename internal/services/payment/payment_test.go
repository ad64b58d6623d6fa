package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/paymentprovider"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// MockPaymentRepository реализует интерфейс PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetActiveSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) UpsertSubscription(ctx context.Context, sub models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateSubscriptionStatusByProviderID(ctx context.Context, providerSubID, status string, periodStart, periodEnd *int64) error {
	args := m.Called(ctx, providerSubID, status, periodStart, periodEnd)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindUserByProviderSubscription(ctx context.Context, providerSubID string) (string, error) {
	args := m.Called(ctx, providerSubID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentRepository) SetUserSubscriptionStatus(ctx context.Context, userUID, status string) error {
	args := m.Called(ctx, userUID, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) InsertPayment(ctx context.Context, p models.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListPayments(ctx context.Context, userUID string, page, limit int) ([]models.Payment, int, error) {
	args := m.Called(ctx, userUID, page, limit)
	if res := args.Get(0); res != nil {
		return res.([]models.Payment), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

// MockProviderClient реализует интерфейс ProviderClient
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) FindOrCreateCustomer(ctx context.Context, email, name, userUID string) (*paymentprovider.Customer, error) {
	args := m.Called(ctx, email, name, userUID)
	if res := args.Get(0); res != nil {
		return res.(*paymentprovider.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProviderClient) CreateCheckoutSession(ctx context.Context, req paymentprovider.CreateSessionRequest) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*paymentprovider.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProviderClient) GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if res := args.Get(0); res != nil {
		return res.(*paymentprovider.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func testUser() models.PublicUser {
	return models.PublicUser{UID: "uid-1", Email: "user@example.com", Name: "Test User"}
}

func TestCreateCheckoutInvalidPlan(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProviderClient)
	svc := NewPaymentService(repo, provider, "http://front", testLogger())

	_, err := svc.CreateCheckout(context.Background(), testUser(),
		CheckoutParams{PlanID: "gold", Price: 999})
	assert.ErrorIs(t, err, ErrInvalidPlan)
	provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateCheckoutExistingSubscription(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProviderClient)
	repo.On("GetActiveSubscription", mock.Anything, "uid-1").
		Return(&models.Subscription{UserUID: "uid-1", Status: models.SubscriptionActive}, nil)

	svc := NewPaymentService(repo, provider, "http://front", testLogger())
	_, err := svc.CreateCheckout(context.Background(), testUser(),
		CheckoutParams{PlanID: "basic", PlanName: "Basic", Price: models.PlanPricesCents["basic"]})
	assert.ErrorIs(t, err, ErrExistingSubscription)
}

func TestCreateCheckoutSuccess(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProviderClient)
	repo.On("GetActiveSubscription", mock.Anything, "uid-1").Return(nil, repository.ErrNotFound)
	provider.On("FindOrCreateCustomer", mock.Anything, "user@example.com", "Test User", "uid-1").
		Return(&paymentprovider.Customer{ID: "cus_1"}, nil)
	provider.On("CreateCheckoutSession", mock.Anything,
		mock.MatchedBy(func(req paymentprovider.CreateSessionRequest) bool {
			return req.CustomerID == "cus_1" &&
				req.PlanID == "premium" &&
				req.UnitAmountCents == models.PlanPricesCents["premium"] &&
				req.Currency == "usd" &&
				req.Interval == "month" &&
				req.IdempotencyKey != "" &&
				req.Metadata["user_uid"] == "uid-1"
		})).Return(&paymentprovider.CheckoutSession{ID: "cs_1", URL: "https://pay/cs_1"}, nil)

	svc := NewPaymentService(repo, provider, "http://front", testLogger())
	result, err := svc.CreateCheckout(context.Background(), testUser(), CheckoutParams{
		PlanID:   "premium",
		PlanName: "Premium",
		Price:    models.PlanPricesCents["premium"],
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", result.SessionID)
	assert.Equal(t, "https://pay/cs_1", result.URL)
	provider.AssertExpectations(t)
}

func TestCreateCheckoutProviderFailure(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProviderClient)
	repo.On("GetActiveSubscription", mock.Anything, "uid-1").Return(nil, repository.ErrNotFound)
	provider.On("FindOrCreateCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	svc := NewPaymentService(repo, provider, "http://front", testLogger())
	_, err := svc.CreateCheckout(context.Background(), testUser(),
		CheckoutParams{PlanID: "basic", PlanName: "Basic", Price: models.PlanPricesCents["basic"]})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGetHistoryConvertsAmounts(t *testing.T) {
	repo := new(MockPaymentRepository)
	repo.On("ListPayments", mock.Anything, "uid-1", 1, 10).
		Return([]models.Payment{
			{ProviderPaymentID: "pi_1", AmountCents: 1399, Status: models.PaymentCompleted},
		}, 1, nil)

	svc := NewPaymentService(repo, new(MockProviderClient), "http://front", testLogger())
	history, err := svc.GetHistory(context.Background(), "uid-1", 1, 10)
	require.NoError(t, err)
	require.Len(t, history.Payments, 1)
	assert.Equal(t, 13.99, history.Payments[0].Amount)
}

func rawObject(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestProcessEventUnknownTypeAcked(t *testing.T) {
	repo := new(MockPaymentRepository)
	svc := NewPaymentService(repo, new(MockProviderClient), "http://front", testLogger())

	err := svc.ProcessEvent(context.Background(), Event{ID: "evt_1", Type: "charge.refunded"})
	assert.NoError(t, err)
}

func TestProcessEventCheckoutCompleted(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProviderClient)

	provider.On("GetSubscription", mock.Anything, "sub_1").
		Return(&paymentprovider.Subscription{
			ID: "sub_1", Status: models.SubscriptionActive,
			CurrentPeriodStart: 1750000000, CurrentPeriodEnd: 1752592000,
		}, nil)
	repo.On("UpsertSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
		return sub.UserUID == "uid-1" && sub.Status == models.SubscriptionActive &&
			sub.ProviderSubscriptionID != nil && *sub.ProviderSubscriptionID == "sub_1"
	})).Return(nil)
	repo.On("InsertPayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.ProviderPaymentID == "pi_1" && p.AmountCents == 1399 &&
			p.Status == models.PaymentCompleted
	})).Return(nil)
	repo.On("SetUserSubscriptionStatus", mock.Anything, "uid-1", models.SubscriptionActive).Return(nil)

	svc := NewPaymentService(repo, provider, "http://front", testLogger())

	event := Event{ID: "evt_1", Type: EventCheckoutCompleted}
	event.Data.Object = rawObject(t, map[string]any{
		"id":             "cs_1",
		"subscription":   "sub_1",
		"payment_intent": "pi_1",
		"amount_total":   1399,
		"currency":       "usd",
		"metadata":       map[string]string{"user_uid": "uid-1", "plan_id": "premium"},
	})

	require.NoError(t, svc.ProcessEvent(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestProcessEventCheckoutMissingMetadata(t *testing.T) {
	repo := new(MockPaymentRepository)
	svc := NewPaymentService(repo, new(MockProviderClient), "http://front", testLogger())

	event := Event{ID: "evt_1", Type: EventCheckoutCompleted}
	event.Data.Object = rawObject(t, map[string]any{"id": "cs_1"})

	assert.Error(t, svc.ProcessEvent(context.Background(), event))
	repo.AssertNotCalled(t, "UpsertSubscription", mock.Anything, mock.Anything)
}

func TestProcessEventSubscriptionDeleted(t *testing.T) {
	repo := new(MockPaymentRepository)
	repo.On("UpdateSubscriptionStatusByProviderID", mock.Anything, "sub_1",
		models.SubscriptionCancelled, (*int64)(nil), (*int64)(nil)).Return(nil)
	repo.On("FindUserByProviderSubscription", mock.Anything, "sub_1").Return("uid-1", nil)
	repo.On("SetUserSubscriptionStatus", mock.Anything, "uid-1", models.SubscriptionInactive).Return(nil)

	svc := NewPaymentService(repo, new(MockProviderClient), "http://front", testLogger())

	event := Event{ID: "evt_2", Type: EventSubscriptionDeleted}
	event.Data.Object = rawObject(t, map[string]any{"id": "sub_1", "status": "canceled"})

	require.NoError(t, svc.ProcessEvent(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestProcessEventInvoiceFailedMarksPastDue(t *testing.T) {
	repo := new(MockPaymentRepository)
	repo.On("FindUserByProviderSubscription", mock.Anything, "sub_1").Return("uid-1", nil)
	repo.On("InsertPayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.Status == models.PaymentFailed && p.AmountCents == 1399
	})).Return(nil)
	repo.On("UpdateSubscriptionStatusByProviderID", mock.Anything, "sub_1",
		models.SubscriptionPastDue, (*int64)(nil), (*int64)(nil)).Return(nil)

	svc := NewPaymentService(repo, new(MockProviderClient), "http://front", testLogger())

	event := Event{ID: "evt_3", Type: EventInvoiceFailed}
	event.Data.Object = rawObject(t, map[string]any{
		"id": "in_1", "subscription": "sub_1", "payment_intent": "pi_9",
		"amount_due": 1399, "currency": "usd",
	})

	require.NoError(t, svc.ProcessEvent(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestProcessEventInvoiceForUnknownSubscriptionAcked(t *testing.T) {
	repo := new(MockPaymentRepository)
	repo.On("FindUserByProviderSubscription", mock.Anything, "sub_ghost").
		Return("", repository.ErrNotFound)

	svc := NewPaymentService(repo, new(MockProviderClient), "http://front", testLogger())

	event := Event{ID: "evt_4", Type: EventInvoicePaid}
	event.Data.Object = rawObject(t, map[string]any{
		"id": "in_2", "subscription": "sub_ghost", "payment_intent": "pi_2",
		"amount_paid": 899, "currency": "usd",
	})

	// событие для неизвестной подписки подтверждается без ретраев
	assert.NoError(t, svc.ProcessEvent(context.Background(), event))
	repo.AssertNotCalled(t, "InsertPayment", mock.Anything, mock.Anything)
}
