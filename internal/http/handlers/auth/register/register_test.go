package register

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/streaming-service/internal/lib/jwt"
	"github.com/magabrotheeeer/streaming-service/internal/models"
	"github.com/magabrotheeeer/streaming-service/internal/services/auth"
)

// MockService реализует интерфейс register.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, email, password, name string) (*auth.Session, error) {
	args := m.Called(ctx, email, password, name)
	if res := args.Get(0); res != nil {
		return res.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"email":"user@example.com","password":"Str0ng!pass","name":"Test User"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "user@example.com", "Str0ng!pass", "Test User").
					Return(&auth.Session{
						Tokens: jwt.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
						User: models.PublicUser{
							UID: "uid-1", Email: "user@example.com", Name: "Test User",
							SubscriptionStatus: models.SubscriptionNone,
						},
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"accessToken":"acc"`,
		},
		{
			name:           "битое тело запроса",
			body:           `{not json`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "пароль без заглавной буквы",
			body:           `{"email":"user@example.com","password":"str0ng!pass","name":"Test User"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "password must contain",
		},
		{
			name:           "пароль без спецсимвола",
			body:           `{"email":"user@example.com","password":"Str0ngpass1","name":"Test User"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "password must contain",
		},
		{
			name:           "короткий пароль",
			body:           `{"email":"user@example.com","password":"S1!a","name":"Test User"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
		{
			name:           "имя с цифрами",
			body:           `{"email":"user@example.com","password":"Str0ng!pass","name":"User123"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "name can only contain letters and spaces",
		},
		{
			name:           "невалидный email",
			body:           `{"email":"not-an-email","password":"Str0ng!pass","name":"Test User"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "please provide a valid email address",
		},
		{
			name: "email уже занят",
			body: `{"email":"user@example.com","password":"Str0ng!pass","name":"Test User"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "user@example.com", "Str0ng!pass", "Test User").
					Return(nil, auth.ErrEmailTaken)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "DUPLICATE_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
				strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestRegisterResponseNeverLeaksPasswordHash(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mockService := new(MockService)
	mockService.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&auth.Session{
			Tokens: jwt.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
			User:   models.PublicUser{UID: "uid-1", Email: "user@example.com", Name: "Test User"},
		}, nil)

	handler := New(logger, mockService)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"user@example.com","password":"Str0ng!pass","name":"Test User"}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "hash")
}
