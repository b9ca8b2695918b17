// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// FromError сопоставляет доменную ошибку с HTTP-статусом и сообщением для пользователя.
// Неизвестные ошибки превращаются в 500 с сообщением fallback.
func FromError(err error, fallback string) (int, ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, Error("not found")
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden, Error("you are not allowed to perform this action")
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusForbidden, Error(models.ErrQuotaExceeded.Error())
	case errors.Is(err, models.ErrFeatureGated):
		return http.StatusForbidden, Error(models.ErrFeatureGated.Error())
	case errors.Is(err, models.ErrEventFull):
		return http.StatusConflict, Error(models.ErrEventFull.Error())
	case errors.Is(err, models.ErrDuplicateRegistration):
		return http.StatusConflict, Error(models.ErrDuplicateRegistration.Error())
	case errors.Is(err, models.ErrDuplicateQRCode):
		return http.StatusConflict, Error("could not issue a ticket, please retry")
	case errors.Is(err, models.ErrInvalidCode):
		return http.StatusUnprocessableEntity, Error(models.ErrInvalidCode.Error())
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, Error(validationMessage(err))
	default:
		return http.StatusInternalServerError, Error(fallback)
	}
}

// validationMessage оставляет от цепочки обёрток только текст после ErrValidation.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, models.ErrValidation.Error()); i >= 0 {
		return msg[i:]
	}
	return msg
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "gtefield":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must not be earlier than %s", err.Field(), err.Param()))
		case "hexcolor":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a hex color", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
