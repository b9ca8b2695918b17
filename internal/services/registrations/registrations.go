// Package services содержит бизнес-логику регистраций: запись на событие, отмену
// и списки. После фиксации изменений сбрасывается кеш события и публикуются
// уведомления о билете.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/eventhub/internal/cache"
	"github.com/magabrotheeeer/eventhub/internal/lib/qrcode"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/metrics"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// RegistrationRepository определяет методы хранилища для работы с регистрациями.
type RegistrationRepository interface {
	RegisterForEvent(ctx context.Context, reg models.Registration) (*models.RegistrationWithEvent, error)
	CancelRegistration(ctx context.Context, registrationID, callerID string) (*models.RegistrationWithEvent, bool, error)
	GetRegistrationByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error)
	ListRegistrationsByUser(ctx context.Context, userID string) ([]*models.RegistrationWithEvent, error)
}

// Invalidator удаляет ключи кеша.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Debouncer откладывает вызов по ключу, схлопывая серию вызовов в один.
type Debouncer interface {
	Trigger(key string, fn func())
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// RegistrationService реализует Registration Ledger.
type RegistrationService struct {
	repo      RegistrationRepository
	cache     Invalidator
	debouncer Debouncer
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewRegistrationService создает новый экземпляр RegistrationService.
// publisher может быть nil, тогда уведомления не отправляются.
func NewRegistrationService(repo RegistrationRepository, cache Invalidator, debouncer Debouncer, publisher Publisher, log *slog.Logger) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		cache:     cache,
		debouncer: debouncer,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Register записывает пользователя на событие и возвращает регистрацию с кодом билета.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string, req models.RegisterRequest) (*models.Registration, error) {
	const op = "services.registrations.Register"

	name := strings.TrimSpace(req.AttendeeName)
	email := strings.TrimSpace(req.AttendeeEmail)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%s: %w: attendee name and email are required", op, models.ErrValidation)
	}

	now := s.now().UTC()
	rw, err := s.repo.RegisterForEvent(ctx, models.Registration{
		ID:            uuid.NewString(),
		EventID:       eventID,
		UserID:        userID,
		AttendeeName:  name,
		AttendeeEmail: email,
		QRCode:        qrcode.Generate(now),
		Status:        models.StatusConfirmed,
		RegisteredAt:  now,
	})
	if err != nil {
		metrics.Registrations.WithLabelValues(registrationResult(err)).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.Registrations.WithLabelValues(metrics.ResultSuccess).Inc()

	s.log.Info("registration created",
		slog.String("registration_id", rw.ID),
		slog.String("event_id", eventID),
		slog.Int("registration_count", rw.Event.RegistrationCount))

	s.invalidateLater(rw.Event.Slug)
	s.notify(ctx, models.RoutingTicketIssued, rw)

	reg := rw.Registration
	return &reg, nil
}

// Cancel отменяет регистрацию владельца. Повторная отмена ничего не меняет и не является ошибкой.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID, callerID string) error {
	const op = "services.registrations.Cancel"

	rw, changed, err := s.repo.CancelRegistration(ctx, registrationID, callerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		s.log.Info("registration already cancelled", slog.String("registration_id", registrationID))
		return nil
	}
	metrics.Cancellations.Inc()

	s.log.Info("registration cancelled",
		slog.String("registration_id", registrationID),
		slog.Int("registration_count", rw.Event.RegistrationCount))

	s.invalidateLater(rw.Event.Slug)
	s.notify(ctx, models.RoutingTicketCancelled, rw)
	return nil
}

// CheckRegistration возвращает регистрацию пользователя на событие или nil, если её нет.
func (s *RegistrationService) CheckRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	const op = "services.registrations.CheckRegistration"
	reg, err := s.repo.GetRegistrationByEventAndUser(ctx, eventID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reg, nil
}

// ListForUser возвращает регистрации пользователя со снимками событий, последние первыми.
func (s *RegistrationService) ListForUser(ctx context.Context, userID string) ([]*models.RegistrationWithEvent, error) {
	const op = "services.registrations.ListForUser"
	regs, err := s.repo.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return regs, nil
}

// invalidateLater сбрасывает снимок события в кеше после серии изменений счётчика.
func (s *RegistrationService) invalidateLater(eventSlug string) {
	if eventSlug == "" {
		return
	}
	key := cache.EventSlugKey(eventSlug)
	s.debouncer.Trigger(key, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
		}
	})
}

// notify публикует уведомление. Ошибка публикации не отменяет зафиксированную операцию.
func (s *RegistrationService) notify(ctx context.Context, routingKey string, rw *models.RegistrationWithEvent) {
	if s.publisher == nil {
		return
	}
	msg := models.NewTicketNotification(&rw.Registration, rw.Event)
	if err := s.publisher.Publish(ctx, routingKey, msg); err != nil {
		metrics.NotificationsPublished.WithLabelValues(routingKey, metrics.ResultError).Inc()
		s.log.Error("failed to publish notification",
			slog.String("routing_key", routingKey),
			slog.String("registration_id", rw.ID),
			sl.Err(err))
		return
	}
	metrics.NotificationsPublished.WithLabelValues(routingKey, metrics.ResultSuccess).Inc()
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, models.ErrEventFull):
		return metrics.ResultFull
	case errors.Is(err, models.ErrDuplicateRegistration), errors.Is(err, models.ErrDuplicateQRCode):
		return metrics.ResultDuplicate
	default:
		return metrics.ResultError
	}
}
