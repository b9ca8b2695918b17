package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

// ListUpcomingEvents возвращает события, начинающиеся не раньше from, ближайшие первыми.
// Непустой categories ограничивает выборку этими категориями.
func (s *Storage) ListUpcomingEvents(ctx context.Context, from time.Time, categories []string, limit int) ([]*models.Event, error) {
	const op = "storage.ListUpcomingEvents"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	events, err := s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE start_date >= $1 AND (cardinality($2::text[]) = 0 OR category = ANY($2::text[]))
		 ORDER BY start_date ASC, id
		 LIMIT $3`, from, nonNil(categories), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// ListEventsByLocation возвращает предстоящие события в городе без учёта регистра.
// Пустой state совпадает с любым регионом.
func (s *Storage) ListEventsByLocation(ctx context.Context, city, state string, from time.Time, limit int) ([]*models.Event, error) {
	const op = "storage.ListEventsByLocation"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	events, err := s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE start_date >= $1 AND LOWER(city) = LOWER($2) AND ($3 = '' OR LOWER(state) = LOWER($3))
		 ORDER BY start_date ASC, id
		 LIMIT $4`, from, city, state, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// ListPopularEvents возвращает предстоящие события с наибольшим числом регистраций.
func (s *Storage) ListPopularEvents(ctx context.Context, from time.Time, limit int) ([]*models.Event, error) {
	const op = "storage.ListPopularEvents"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	events, err := s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE start_date >= $1
		 ORDER BY registration_count DESC, start_date ASC, id
		 LIMIT $2`, from, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// CountEventsByCategory считает предстоящие события по категориям.
// Категории без событий в результат не попадают.
func (s *Storage) CountEventsByCategory(ctx context.Context, from time.Time) (map[string]int, error) {
	const op = "storage.CountEventsByCategory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM events WHERE start_date >= $1 GROUP BY category`, from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}
