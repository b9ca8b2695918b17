// Package services содержит Check-in Processor: отметку посетителя по коду билета.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/metrics"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Сообщения результата сканирования.
const (
	MessageCheckedIn        = "Check-in successful"
	MessageAlreadyCheckedIn = "Already checked in"
)

// CheckInRepository определяет метод хранилища для отметки посетителя.
type CheckInRepository interface {
	CheckIn(ctx context.Context, qrCode, organizerID string, at time.Time) (*models.Registration, bool, error)
}

// CheckInService отмечает посетителей по коду билета.
type CheckInService struct {
	repo CheckInRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewCheckInService создает новый экземпляр CheckInService.
func NewCheckInService(repo CheckInRepository, log *slog.Logger) *CheckInService {
	return &CheckInService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// CheckIn отмечает приход посетителя. Повторное сканирование того же кода возвращает
// результат с Success=false без ошибки.
func (s *CheckInService) CheckIn(ctx context.Context, qrCode, callerID string) (*models.CheckInResult, error) {
	const op = "services.checkin.CheckIn"

	code := strings.TrimSpace(qrCode)
	if code == "" {
		metrics.CheckIns.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCode)
	}

	reg, already, err := s.repo.CheckIn(ctx, code, callerID, s.now().UTC())
	if err != nil {
		if errors.Is(err, models.ErrInvalidCode) {
			metrics.CheckIns.WithLabelValues(metrics.ResultInvalid).Inc()
		} else {
			metrics.CheckIns.WithLabelValues(metrics.ResultError).Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if already {
		metrics.CheckIns.WithLabelValues(metrics.ResultAlready).Inc()
		s.log.Info("duplicate scan", slog.String("registration_id", reg.ID))
		return &models.CheckInResult{Success: false, Message: MessageAlreadyCheckedIn, Registration: reg}, nil
	}

	metrics.CheckIns.WithLabelValues(metrics.ResultSuccess).Inc()
	s.log.Info("attendee checked in", slog.String("registration_id", reg.ID), slog.String("event_id", reg.EventID))
	return &models.CheckInResult{Success: true, Message: MessageCheckedIn, Registration: reg}, nil
}
