package models

import "time"

// RegistrationStatus состояние регистрации. Переход confirmed -> cancelled односторонний.
type RegistrationStatus string

const (
	StatusConfirmed RegistrationStatus = "confirmed"
	StatusCancelled RegistrationStatus = "cancelled"
)

// Registration одна попытка регистрации пользователя на событие.
type Registration struct {
	ID            string             `json:"id"`
	EventID       string             `json:"eventId"`
	UserID        string             `json:"userId"`
	AttendeeName  string             `json:"attendeeName"`
	AttendeeEmail string             `json:"attendeeEmail"`
	QRCode        string             `json:"qrCode"`
	Status        RegistrationStatus `json:"status"`
	CheckedIn     bool               `json:"checkedIn"`
	CheckedInAt   *time.Time         `json:"checkedInAt,omitempty"`
	RegisteredAt  time.Time          `json:"registeredAt"`
}

// Confirmed сообщает, что регистрация не отменена.
func (r *Registration) Confirmed() bool {
	return r.Status == StatusConfirmed
}

// RegistrationWithEvent регистрация вместе со снимком события.
type RegistrationWithEvent struct {
	Registration
	Event *Event `json:"event"`
}

// RegisterRequest тело запроса регистрации на событие.
type RegisterRequest struct {
	AttendeeName  string `json:"attendeeName" validate:"required"`
	AttendeeEmail string `json:"attendeeEmail" validate:"required,email"`
}

// CheckInRequest тело запроса отметки посетителя.
type CheckInRequest struct {
	QRCode string `json:"qrCode" validate:"required"`
}

// CheckInResult результат сканирования кода. Повторное сканирование
// возвращает Success=false без ошибки.
type CheckInResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Registration *Registration `json:"registration"`
}
