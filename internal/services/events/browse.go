package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Размеры подборок по умолчанию и верхняя граница limit.
const (
	DefaultFeaturedLimit = 3
	DefaultNearbyLimit   = 4
	DefaultPopularLimit  = 6
	MaxBrowseLimit       = 50
)

func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit > MaxBrowseLimit:
		return MaxBrowseLimit
	}
	return limit
}

// GetFeaturedEvents возвращает ближайшие события. Если у пользователя есть интересы,
// сначала ищутся события этих категорий; при пустом результате подборка берётся из всех.
func (s *EventService) GetFeaturedEvents(ctx context.Context, userID string, limit int) ([]*models.Event, error) {
	const op = "services.events.GetFeaturedEvents"
	limit = clampLimit(limit, DefaultFeaturedLimit)
	now := s.now()

	user, err := s.browsingUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user != nil && len(user.Interests) > 0 {
		events, err := s.repo.ListUpcomingEvents(ctx, now, user.Interests, limit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(events) > 0 {
			return events, nil
		}
	}

	events, err := s.repo.ListUpcomingEvents(ctx, now, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// GetEventsByLocation возвращает предстоящие события в городе. Без city берётся
// город из онбординга пользователя; если его нет, результат пустой.
func (s *EventService) GetEventsByLocation(ctx context.Context, userID, city, state string, limit int) ([]*models.Event, error) {
	const op = "services.events.GetEventsByLocation"
	limit = clampLimit(limit, DefaultNearbyLimit)
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)

	if city == "" {
		user, err := s.browsingUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if user == nil || user.Location == nil || user.Location.City == "" {
			return []*models.Event{}, nil
		}
		city, state = user.Location.City, user.Location.State
	}

	events, err := s.repo.ListEventsByLocation(ctx, city, state, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// GetPopularEvents возвращает предстоящие события с наибольшим числом регистраций.
func (s *EventService) GetPopularEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	const op = "services.events.GetPopularEvents"
	events, err := s.repo.ListPopularEvents(ctx, s.now(), clampLimit(limit, DefaultPopularLimit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// GetCategoryCounts возвращает число предстоящих событий по категориям.
func (s *EventService) GetCategoryCounts(ctx context.Context) (map[string]int, error) {
	const op = "services.events.GetCategoryCounts"
	counts, err := s.repo.CountEventsByCategory(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

// browsingUser возвращает nil для неизвестного пользователя: подборки работают и без профиля.
func (s *EventService) browsingUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
