// Package models содержит доменные модели сервиса: пользователей,
// видеокаталог, подписки и платежи. Структуры используются в бизнес‑логике
// и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                 string     // Уникальный идентификатор пользователя
	Email               string     // Электронная почта (хранится нормализованной, уникальная)
	Name                string     // Отображаемое имя
	PasswordHash        string     // Bcrypt‑хэш пароля
	SubscriptionStatus  string     // Статус подписки: none, active, inactive, cancelled, past_due
	FailedLoginAttempts int        // Счётчик неудачных попыток входа
	AccountLockedUntil  *time.Time // Время окончания блокировки, nil если не заблокирован
	RefreshToken        *string    // Текущий refresh‑токен, nil после логаута
	LastLogin           *time.Time // Время последнего успешного входа
}

// IsLocked сообщает, заблокирован ли аккаунт на данный момент.
// Аккаунт заблокирован тогда и только тогда, когда account_locked_until
// установлен и находится в будущем. Блокировка не зависит от статуса подписки.
func (u *User) IsLocked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}

// PublicUser — публичная проекция пользователя для ответов API.
// Хэш пароля и служебные поля наружу не отдаются никогда.
type PublicUser struct {
	UID                string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	SubscriptionStatus string `json:"subscription_status"`
}

// Public возвращает публичную проекцию пользователя.
func (u *User) Public() PublicUser {
	return PublicUser{
		UID:                u.UID,
		Email:              u.Email,
		Name:               u.Name,
		SubscriptionStatus: u.SubscriptionStatus,
	}
}
