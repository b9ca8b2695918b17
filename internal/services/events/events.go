// Package services содержит бизнес-логику событий: создание с проверкой квоты
// и платных функций, чтение через кеш, удаление и панель организатора.
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
	"github.com/magabrotheeeer/eventhub/internal/dashboard"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/lib/slug"
	"github.com/magabrotheeeer/eventhub/internal/metrics"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// EventRepository определяет методы хранилища для работы с событиями.
type EventRepository interface {
	// CreateEvent сохраняет событие; authorize вызывается под блокировкой строки организатора.
	CreateEvent(ctx context.Context, event models.Event, authorize func(organizer *models.User) error) (*models.Event, error)
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*models.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error)
	// DeleteEvent удаляет событие с регистрациями и возвращает удалённое событие.
	DeleteEvent(ctx context.Context, eventID, callerID string) (*models.Event, error)
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]*models.Registration, error)

	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUpcomingEvents(ctx context.Context, from time.Time, categories []string, limit int) ([]*models.Event, error)
	ListEventsByLocation(ctx context.Context, city, state string, from time.Time, limit int) ([]*models.Event, error)
	ListPopularEvents(ctx context.Context, from time.Time, limit int) ([]*models.Event, error)
	CountEventsByCategory(ctx context.Context, from time.Time) (map[string]int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// SetNX записывает значение, только если ключа ещё нет.
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
}

// cachedEvent запись кеша по слагу. Deleted помечает удалённое событие, чтобы
// запоздавшее заполнение после промаха не вернуло его в кеш.
type cachedEvent struct {
	Event   *models.Event `json:"event,omitempty"`
	Deleted bool          `json:"deleted,omitempty"`
}

// EventService реализует Event Store и Dashboard Aggregator.
type EventService struct {
	repo     EventRepository
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewEventService создает новый экземпляр EventService.
func NewEventService(repo EventRepository, cache Cache, cacheTTL time.Duration, log *slog.Logger) *EventService {
	return &EventService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
		now:      time.Now,
	}
}

// CreateEvent создаёт событие от имени организатора. Без Pro действует лимит
// models.FreeEventLimit событий и доступен только цвет темы по умолчанию.
func (s *EventService) CreateEvent(ctx context.Context, organizerID string, req models.CreateEventRequest) (*models.Event, error) {
	const op = "services.events.CreateEvent"

	event, err := s.buildEvent(organizerID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	requestedTheme := event.ThemeColor

	authorize := func(organizer *models.User) error {
		if organizer.HasPro {
			return nil
		}
		if organizer.FreeEventsCreated >= models.FreeEventLimit {
			return models.ErrQuotaExceeded
		}
		if !strings.EqualFold(requestedTheme, models.DefaultThemeColor) {
			return models.ErrFeatureGated
		}
		return nil
	}

	created, err := s.repo.CreateEvent(ctx, event, authorize)
	if errors.Is(err, models.ErrSlugTaken) {
		// одно и то же название в ту же миллисекунду
		event.Slug = slug.WithSuffix(event.Slug, uuid.NewString()[:8])
		s.log.Warn("slug collision, retrying", slog.String("slug", event.Slug))
		created, err = s.repo.CreateEvent(ctx, event, authorize)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.EventsCreated.Inc()
	s.log.Info("event created", slog.String("event_id", created.ID), slog.String("slug", created.Slug))
	return created, nil
}

func (s *EventService) buildEvent(organizerID string, req models.CreateEventRequest) (models.Event, error) {
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return models.Event{}, fmt.Errorf("%w: title is required", models.ErrValidation)
	case req.Capacity < 1:
		return models.Event{}, fmt.Errorf("%w: capacity must be positive", models.ErrValidation)
	case req.EndDate.Before(req.StartDate):
		return models.Event{}, fmt.Errorf("%w: end date is before start date", models.ErrValidation)
	case !req.TicketType.Valid():
		return models.Event{}, fmt.Errorf("%w: unknown ticket type %q", models.ErrValidation, req.TicketType)
	case !req.LocationType.Valid():
		return models.Event{}, fmt.Errorf("%w: unknown location type %q", models.ErrValidation, req.LocationType)
	}

	price := req.TicketPrice
	if req.TicketType == models.TicketPaid {
		if price == nil || *price <= 0 {
			return models.Event{}, fmt.Errorf("%w: paid events need a positive ticket price", models.ErrValidation)
		}
	} else {
		price = nil
	}

	theme := strings.TrimSpace(req.ThemeColor)
	if theme == "" {
		theme = models.DefaultThemeColor
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	now := s.now()
	return models.Event{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  req.Description,
		Slug:         slug.New(title, now),
		OrganizerID:  organizerID,
		Category:     req.Category,
		Tags:         req.Tags,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Timezone:     timezone,
		LocationType: req.LocationType,
		Venue:        req.Venue,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Country:      req.Country,
		Capacity:     req.Capacity,
		TicketType:   req.TicketType,
		TicketPrice:  price,
		CoverImage:   req.CoverImage,
		ThemeColor:   theme,
	}, nil
}

// GetEventBySlug возвращает событие по слагу, сначала из кеша.
func (s *EventService) GetEventBySlug(ctx context.Context, eventSlug string) (*models.Event, error) {
	const op = "services.events.GetEventBySlug"
	key := cache.EventSlugKey(eventSlug)

	var cached cachedEvent
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read event from cache", slog.String("key", key), sl.Err(err))
	}
	switch {
	case found && cached.Deleted:
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case found && cached.Event != nil:
		return cached.Event, nil
	}

	event, err := s.repo.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// NX: пометку об удалении, записанную после чтения из базы, не перезаписываем
	if _, err := s.cache.SetNX(ctx, key, cachedEvent{Event: event}, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache event", slog.String("key", key), sl.Err(err))
	}
	return event, nil
}

// GetMyEvents возвращает события организатора, новые первыми.
func (s *EventService) GetMyEvents(ctx context.Context, organizerID string) ([]*models.Event, error) {
	const op = "services.events.GetMyEvents"
	events, err := s.repo.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// DeleteEvent удаляет событие организатора вместе с регистрациями и помечает слаг удалённым в кеше.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	const op = "services.events.DeleteEvent"
	deleted, err := s.repo.DeleteEvent(ctx, eventID, callerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := cache.EventSlugKey(deleted.Slug)
	if err := s.cache.Set(ctx, key, cachedEvent{Deleted: true}, s.cacheTTL); err != nil {
		s.log.Warn("failed to mark event deleted in cache", slog.String("key", key), sl.Err(err))
	}
	metrics.EventsDeleted.Inc()
	s.log.Info("event deleted", slog.String("event_id", eventID))
	return nil
}

// GetDashboard возвращает событие и статистику регистраций. Только для организатора.
func (s *EventService) GetDashboard(ctx context.Context, eventID, callerID string) (*models.Dashboard, error) {
	const op = "services.events.GetDashboard"
	event, regs, err := s.organizerView(ctx, eventID, callerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Dashboard{
		Event: event,
		Stats: dashboard.Compute(event, regs, s.now()),
	}, nil
}

// GetEventRegistrations возвращает все регистрации события в любом статусе. Только для организатора.
func (s *EventService) GetEventRegistrations(ctx context.Context, eventID, callerID string) ([]*models.Registration, error) {
	const op = "services.events.GetEventRegistrations"
	_, regs, err := s.organizerView(ctx, eventID, callerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return regs, nil
}

func (s *EventService) organizerView(ctx context.Context, eventID, callerID string) (*models.Event, []*models.Registration, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if event.OrganizerID != callerID {
		return nil, nil, models.ErrUnauthorized
	}
	regs, err := s.repo.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return event, regs, nil
}
