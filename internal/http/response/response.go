// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Тела ошибок имеют вид
// {message, code, errors?}; смысл несут HTTP‑статусы: 400 валидация,
// 401 аутентификация, 403 авторизация, 404 не найдено, 423 блокировка,
// 429 превышение лимита, 500 внутренняя ошибка.
package response

import (
	"fmt"

	"github.com/go-playground/validator"
)

// ErrorResponse описывает стандартную структуру JSON‑ответа с ошибкой.
// Code — машиночитаемый код ошибки (опционально).
// Errors — список нарушений по полям (только для ошибок валидации).
type ErrorResponse struct {
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError — одно нарушение валидации конкретного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error возвращает ErrorResponse с переданным сообщением без кода.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Message: msg}
}

// ErrorCode возвращает ErrorResponse с сообщением и машиночитаемым кодом.
func ErrorCode(msg, code string) ErrorResponse {
	return ErrorResponse{Message: msg, Code: code}
}

// ValidationError формирует ответ 400 на основе ошибок валидации.
// Перечисляются все нарушенные поля, чтобы клиент мог показать их разом.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	fieldErrs := make([]FieldError, 0, len(errs))

	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = fmt.Sprintf("field %s is a required field", err.Field())
		case "email":
			msg = "please provide a valid email address"
		case "min":
			msg = fmt.Sprintf("field %s is too short", err.Field())
		case "max":
			msg = fmt.Sprintf("field %s is too long", err.Field())
		case "name_charset":
			msg = "name can only contain letters and spaces"
		case "password_complexity":
			msg = "password must contain at least one lowercase letter, one uppercase letter, one number, and one special character"
		default:
			msg = fmt.Sprintf("field %s is not valid", err.Field())
		}
		fieldErrs = append(fieldErrs, FieldError{Field: err.Field(), Message: msg})
	}
	return ErrorResponse{
		Message: "Validation failed",
		Errors:  fieldErrs,
	}
}
