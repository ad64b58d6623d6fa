package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	jwtlib "github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/storage/repository"
)

// MockMaker реализует интерфейс jwt.Maker
type MockMaker struct {
	mock.Mock
}

func (m *MockMaker) GeneratePair(userUID string) (jwtlib.TokenPair, error) {
	args := m.Called(userUID)
	return args.Get(0).(jwtlib.TokenPair), args.Error(1)
}

func (m *MockMaker) ParseAccess(token string) (*jwtlib.Claims, error) {
	args := m.Called(token)
	if res := args.Get(0); res != nil {
		return res.(*jwtlib.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMaker) ParseRefresh(token string) (*jwtlib.Claims, error) {
	args := m.Called(token)
	if res := args.Get(0); res != nil {
		return res.(*jwtlib.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserProvider реализует интерфейс UserProvider
type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		authHeader     string
		setupMocks     func(*MockMaker, *MockUserProvider)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "нет заголовка Authorization",
			authHeader:     "",
			setupMocks:     func(*MockMaker, *MockUserProvider) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeNoAuthHeader,
		},
		{
			name:           "не Bearer формат",
			authHeader:     "Basic abc123",
			setupMocks:     func(*MockMaker, *MockUserProvider) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeInvalidAuthFormat,
		},
		{
			name:           "Bearer без токена",
			authHeader:     "Bearer ",
			setupMocks:     func(*MockMaker, *MockUserProvider) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeNoToken,
		},
		{
			name:       "истёкший токен",
			authHeader: "Bearer expired-token",
			setupMocks: func(m *MockMaker, _ *MockUserProvider) {
				m.On("ParseAccess", "expired-token").Return(nil, jwtlib.ErrTokenExpired)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeTokenExpired,
		},
		{
			name:       "токен ещё не активен",
			authHeader: "Bearer early-token",
			setupMocks: func(m *MockMaker, _ *MockUserProvider) {
				m.On("ParseAccess", "early-token").Return(nil, jwtlib.ErrTokenNotActive)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeTokenNotActive,
		},
		{
			name:       "невалидный токен",
			authHeader: "Bearer bad-token",
			setupMocks: func(m *MockMaker, _ *MockUserProvider) {
				m.On("ParseAccess", "bad-token").Return(nil, jwtlib.ErrInvalidToken)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeInvalidToken,
		},
		{
			name:       "токен без user_uid",
			authHeader: "Bearer structless-token",
			setupMocks: func(m *MockMaker, _ *MockUserProvider) {
				m.On("ParseAccess", "structless-token").Return(&jwtlib.Claims{}, nil)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeInvalidTokenStructure,
		},
		{
			name:       "пользователь удалён",
			authHeader: "Bearer ghost-token",
			setupMocks: func(m *MockMaker, u *MockUserProvider) {
				m.On("ParseAccess", "ghost-token").Return(&jwtlib.Claims{UserUID: "ghost"}, nil)
				u.On("GetUserByUID", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeUserNotFound,
		},
		{
			name:       "ошибка базы закрывает запрос",
			authHeader: "Bearer db-token",
			setupMocks: func(m *MockMaker, u *MockUserProvider) {
				m.On("ParseAccess", "db-token").Return(&jwtlib.Claims{UserUID: "uid-1"}, nil)
				u.On("GetUserByUID", mock.Anything, "uid-1").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   CodeDatabaseError,
		},
		{
			name:       "заблокированный аккаунт",
			authHeader: "Bearer locked-token",
			setupMocks: func(m *MockMaker, u *MockUserProvider) {
				lockedUntil := time.Now().Add(10 * time.Minute)
				m.On("ParseAccess", "locked-token").Return(&jwtlib.Claims{UserUID: "uid-1"}, nil)
				u.On("GetUserByUID", mock.Anything, "uid-1").Return(&models.User{
					UID:                "uid-1",
					AccountLockedUntil: &lockedUntil,
				}, nil)
			},
			expectedStatus: http.StatusLocked,
			expectedCode:   CodeAccountLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maker := new(MockMaker)
			users := new(MockUserProvider)
			tt.setupMocks(maker, users)

			var called bool
			mw := Auth(maker, users, logger)(okHandler(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedCode)
			assert.False(t, called, "next handler must not run on rejection")
		})
	}
}

func TestAuthMiddlewareSuccess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	maker := new(MockMaker)
	users := new(MockUserProvider)
	maker.On("ParseAccess", "good-token").Return(&jwtlib.Claims{UserUID: "uid-1"}, nil)
	users.On("GetUserByUID", mock.Anything, "uid-1").Return(&models.User{
		UID:                "uid-1",
		Email:              "user@example.com",
		Name:               "Test User",
		PasswordHash:       "secret-hash",
		SubscriptionStatus: models.SubscriptionActive,
	}, nil)

	var gotUser models.PublicUser
	var gotClaims *jwtlib.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	Auth(maker, users, logger)(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uid-1", gotUser.UID)
	assert.Equal(t, "user@example.com", gotUser.Email)
	assert.Equal(t, "uid-1", gotClaims.UserUID)
	// в контекст попадает публичная проекция, хэш пароля наружу не выходит
	assert.False(t, strings.Contains(w.Body.String(), "secret-hash"))
}

func TestRequireActiveSubscription(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.PublicUser
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "нет личности в контексте",
			user:           nil,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   CodeAuthRequired,
		},
		{
			name:           "подписка не активна",
			user:           &models.PublicUser{UID: "uid-1", SubscriptionStatus: models.SubscriptionNone},
			expectedStatus: http.StatusForbidden,
			expectedCode:   CodeSubscriptionRequired,
		},
		{
			name:           "отменённая подписка не пропускает",
			user:           &models.PublicUser{UID: "uid-1", SubscriptionStatus: models.SubscriptionCancelled},
			expectedStatus: http.StatusForbidden,
			expectedCode:   CodeSubscriptionRequired,
		},
		{
			name:           "активная подписка пропускает",
			user:           &models.PublicUser{UID: "uid-1", SubscriptionStatus: models.SubscriptionActive},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			mw := RequireActiveSubscription(okHandler(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/videos/1", nil)
			if tt.user != nil {
				req = req.WithContext(context.WithValue(req.Context(), UserKey, *tt.user))
			}
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
				assert.False(t, called)
			} else {
				assert.True(t, called)
			}
		})
	}
}
