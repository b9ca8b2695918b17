package models

import "time"

// Ключи маршрутизации уведомлений в обменнике notifications.
const (
	RoutingTicketIssued    = "ticket.issued"
	RoutingTicketCancelled = "ticket.cancelled"
	RoutingEventReminder   = "event.reminder"
)

// TicketNotification сообщение для рассылки билета, отмены или напоминания.
type TicketNotification struct {
	RegistrationID string    `json:"registration_id"`
	QRCode         string    `json:"qr_code"`
	AttendeeName   string    `json:"attendee_name"`
	AttendeeEmail  string    `json:"attendee_email"`
	EventTitle     string    `json:"event_title"`
	EventSlug      string    `json:"event_slug"`
	StartDate      time.Time `json:"start_date"`
	Venue          string    `json:"venue,omitempty"`
	City           string    `json:"city,omitempty"`
}

// NewTicketNotification собирает сообщение из регистрации и её события.
func NewTicketNotification(reg *Registration, event *Event) TicketNotification {
	n := TicketNotification{
		RegistrationID: reg.ID,
		QRCode:         reg.QRCode,
		AttendeeName:   reg.AttendeeName,
		AttendeeEmail:  reg.AttendeeEmail,
	}
	if event != nil {
		n.EventTitle = event.Title
		n.EventSlug = event.Slug
		n.StartDate = event.StartDate
		n.Venue = event.Venue
		n.City = event.City
	}
	return n
}
