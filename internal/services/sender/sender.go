// Package services содержит рассылку писем о билетах, отменах и напоминаниях.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/lib/smtp"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

const dateLayout = "02.01.2006 15:04 MST"

// SenderService отправляет письма по сообщениям из очередей уведомлений.
type SenderService struct {
	relay smtp.Relay
	log   *slog.Logger
	now   func() time.Time
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, relay smtp.Relay) *SenderService {
	return &SenderService{
		relay: relay,
		log:   log,
		now:   time.Now,
	}
}

// Handlers возвращает обработчики сообщений по именам очередей.
func (s *SenderService) Handlers() map[string]func([]byte) error {
	return map[string]func([]byte) error{
		rabbitmq.QueueTicketIssued:    s.SendTicketIssued,
		rabbitmq.QueueTicketCancelled: s.SendTicketCancelled,
		rabbitmq.QueueEventReminder:   s.SendEventReminder,
	}
}

// SendTicketIssued отправляет посетителю билет с кодом для входа.
func (s *SenderService) SendTicketIssued(body []byte) error {
	msg, err := s.decode(body)
	if err != nil {
		return err
	}
	subject := "Ваш билет: " + msg.EventTitle
	text := fmt.Sprintf("Здравствуйте, %s!\n\nВы зарегистрированы на событие «%s».\nНачало: %s\n%s\nКод билета: %s\n\nПокажите этот код на входе.",
		msg.AttendeeName, msg.EventTitle, msg.StartDate.Format(dateLayout), place(msg), msg.QRCode)
	return s.sendEmail([]string{msg.AttendeeEmail}, subject, text)
}

// SendTicketCancelled подтверждает отмену регистрации.
func (s *SenderService) SendTicketCancelled(body []byte) error {
	msg, err := s.decode(body)
	if err != nil {
		return err
	}
	subject := "Регистрация отменена: " + msg.EventTitle
	text := fmt.Sprintf("Здравствуйте, %s!\n\nВаша регистрация на событие «%s» отменена. Билет %s больше не действителен.",
		msg.AttendeeName, msg.EventTitle, msg.QRCode)
	return s.sendEmail([]string{msg.AttendeeEmail}, subject, text)
}

// SendEventReminder напоминает о скором начале события.
func (s *SenderService) SendEventReminder(body []byte) error {
	msg, err := s.decode(body)
	if err != nil {
		return err
	}
	subject := "Скоро начало: " + msg.EventTitle
	text := fmt.Sprintf("Здравствуйте, %s!\n\nСобытие «%s» начинается %s.\n%s\nКод билета: %s",
		msg.AttendeeName, msg.EventTitle, msg.StartDate.Format(dateLayout), place(msg), msg.QRCode)
	return s.sendEmail([]string{msg.AttendeeEmail}, subject, text)
}

func (s *SenderService) decode(body []byte) (*models.TicketNotification, error) {
	var msg models.TicketNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("Failed to unmarshal message body", sl.Err(err))
		return nil, fmt.Errorf("error unmarshalling message: %w: %w", rabbitmq.ErrPoisonMessage, err)
	}
	if strings.TrimSpace(msg.AttendeeEmail) == "" {
		return nil, fmt.Errorf("message %s has no recipient: %w", msg.RegistrationID, rabbitmq.ErrPoisonMessage)
	}
	return &msg, nil
}

func place(msg *models.TicketNotification) string {
	switch {
	case msg.Venue != "" && msg.City != "":
		return "Место: " + msg.Venue + ", " + msg.City
	case msg.Venue != "":
		return "Место: " + msg.Venue
	case msg.City != "":
		return "Город: " + msg.City
	default:
		return "Онлайн"
	}
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	session, err := s.relay.Open()
	if err != nil {
		s.log.Error("failed to connect to SMTP relay", sl.Err(err))
		return err
	}

	err = smtp.Deliver(session, smtp.Message{
		From:    s.relay.Sender(),
		To:      to,
		Subject: subject,
		Body:    bodyText,
		Date:    s.now(),
	})
	if err != nil {
		s.log.Error("failed to deliver email", slog.Any("to", to), sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
