package refresh

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

// MockService реализует интерфейс refresh.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	args := m.Called(ctx, refreshToken)
	if res := args.Get(0); res != nil {
		return res.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRefreshHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное обновление пары",
			body: `{"refreshToken":"old-refresh"}`,
			setupMock: func(m *MockService) {
				m.On("Refresh", mock.Anything, "old-refresh").
					Return(&auth.Session{
						Tokens: jwt.TokenPair{AccessToken: "new-acc", RefreshToken: "new-ref"},
						User:   models.PublicUser{UID: "uid-1"},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"refreshToken":"new-ref"`,
		},
		{
			name: "истёкший refresh токен",
			body: `{"refreshToken":"expired"}`,
			setupMock: func(m *MockService) {
				m.On("Refresh", mock.Anything, "expired").Return(nil, jwt.ErrTokenExpired)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "TOKEN_EXPIRED",
		},
		{
			name: "криптографически невалидный токен",
			body: `{"refreshToken":"garbage"}`,
			setupMock: func(m *MockService) {
				m.On("Refresh", mock.Anything, "garbage").Return(nil, jwt.ErrInvalidToken)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "INVALID_TOKEN",
		},
		{
			name: "повтор уже обменянного токена",
			body: `{"refreshToken":"replayed"}`,
			setupMock: func(m *MockService) {
				m.On("Refresh", mock.Anything, "replayed").Return(nil, auth.ErrInvalidRefreshToken)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "INVALID_REFRESH_TOKEN",
		},
		{
			name:           "нет токена в теле",
			body:           `{}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh",
				strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
