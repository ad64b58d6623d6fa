package middlewarectx

import (
	"net/http"
	"time"

	"github.com/magabrotheeeer/streaming-service/internal/models"
)

// timeNow вынесено для подмены в тестах блокировки.
var timeNow = time.Now

// RequireActiveSubscription — чистый предикат поверх личности из контекста:
// пропускает запрос только при статусе подписки ровно "active".
// Ставится после Auth; побочных эффектов не имеет.
func RequireActiveSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			reject(w, r, http.StatusUnauthorized,
				"Authentication required.", CodeAuthRequired)
			return
		}
		if user.SubscriptionStatus != models.SubscriptionActive {
			reject(w, r, http.StatusForbidden,
				"Active subscription required to access this content.", CodeSubscriptionRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}
