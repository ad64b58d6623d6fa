package login

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

	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/auth"
)

// MockService реализует интерфейс login.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if res := args.Get(0); res != nil {
		return res.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешный вход",
			body: `{"email":"user@example.com","password":"Str0ng!pass"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "Str0ng!pass").
					Return(&auth.Session{
						Tokens: jwt.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
						User:   models.PublicUser{UID: "uid-1", Email: "user@example.com"},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"refreshToken":"ref"`,
		},
		{
			name: "неверные учетные данные",
			body: `{"email":"user@example.com","password":"wrong"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "wrong").
					Return(nil, auth.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "INVALID_CREDENTIALS",
		},
		{
			name: "несуществующий email даёт тот же ответ",
			body: `{"email":"ghost@example.com","password":"whatever"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "ghost@example.com", "whatever").
					Return(nil, auth.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "INVALID_CREDENTIALS",
		},
		{
			name: "заблокированный аккаунт",
			body: `{"email":"user@example.com","password":"Str0ng!pass"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "Str0ng!pass").
					Return(nil, &auth.AccountLockedError{Until: time.Now().Add(10 * time.Minute)})
			},
			expectedStatus: http.StatusLocked,
			expectedBody:   "ACCOUNT_LOCKED",
		},
		{
			name:           "нет пароля в запросе",
			body:           `{"email":"user@example.com"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name: "внутренняя ошибка",
			body: `{"email":"user@example.com","password":"Str0ng!pass"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "user@example.com", "Str0ng!pass").
					Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "failed to login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
				strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
