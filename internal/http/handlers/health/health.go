// Package health реализует HTTP-обработчик проверки живости сервиса.
package health

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Handler отвечает на запросы проверки живости.
type Handler struct{}

// New создает новый Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP обрабатывает HTTP-запрос проверки живости.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
