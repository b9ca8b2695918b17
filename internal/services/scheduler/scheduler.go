// Package services содержит планировщик напоминаний о начале событий.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/metrics"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// ReminderRepository определяет методы хранилища для поиска и отметки напоминаний.
type ReminderRepository interface {
	FindRemindersDue(ctx context.Context, from, to time.Time) ([]*models.TicketNotification, error)
	MarkReminderSent(ctx context.Context, registrationID string, at time.Time) error
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService периодически публикует напоминания о событиях,
// которые начинаются в пределах window.
type SchedulerService struct {
	repo      ReminderRepository
	publisher Publisher
	interval  time.Duration
	window    time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo ReminderRepository, publisher Publisher, interval, window time.Duration, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		window:    window,
		log:       log,
		now:       time.Now,
	}
}

// Run выполняет проход сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.runSendReminders(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runSendReminders(ctx)
		}
	}
}

// runSendReminders публикует напоминания и возвращает число отправленных.
// Регистрация помечается только после успешной публикации.
func (s *SchedulerService) runSendReminders(ctx context.Context) int {
	s.log.Info("starting search for upcoming events")
	now := s.now()
	due, err := s.repo.FindRemindersDue(ctx, now, now.Add(s.window))
	if err != nil {
		s.log.Error("failed to find reminders", sl.Err(err))
		return 0
	}
	if len(due) == 0 {
		s.log.Info("no reminders due")
		return 0
	}
	s.log.Info("found reminders", "count", len(due))

	sent := 0
	for _, n := range due {
		if err := s.publisher.Publish(ctx, models.RoutingEventReminder, n); err != nil {
			metrics.NotificationsPublished.WithLabelValues(models.RoutingEventReminder, metrics.ResultError).Inc()
			s.log.Error("failed to publish message", slog.String("registration_id", n.RegistrationID), sl.Err(err))
			continue
		}
		metrics.NotificationsPublished.WithLabelValues(models.RoutingEventReminder, metrics.ResultSuccess).Inc()
		if err := s.repo.MarkReminderSent(ctx, n.RegistrationID, now); err != nil {
			s.log.Error("failed to mark reminder", slog.String("registration_id", n.RegistrationID), sl.Err(err))
			continue
		}
		sent++
	}
	return sent
}
