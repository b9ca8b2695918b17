package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

const eventColumns = `id, title, description, slug, organizer_id, organizer_name, category, tags,
	start_date, end_date, timezone, location_type, venue, address, city, state, country,
	capacity, ticket_type, ticket_price, cover_image, theme_color, registration_count,
	created_at, updated_at`

const eventColumnsPrefixed = `e.id, e.title, e.description, e.slug, e.organizer_id, e.organizer_name,
	e.category, e.tags, e.start_date, e.end_date, e.timezone, e.location_type, e.venue, e.address,
	e.city, e.state, e.country, e.capacity, e.ticket_type, e.ticket_price, e.cover_image,
	e.theme_color, e.registration_count, e.created_at, e.updated_at`

func eventDest(e *models.Event, price *sql.NullFloat64) []any {
	return []any{&e.ID, &e.Title, &e.Description, &e.Slug, &e.OrganizerID, &e.OrganizerName,
		&e.Category, stringArray(&e.Tags), &e.StartDate, &e.EndDate, &e.Timezone, &e.LocationType,
		&e.Venue, &e.Address, &e.City, &e.State, &e.Country, &e.Capacity, &e.TicketType, price,
		&e.CoverImage, &e.ThemeColor, &e.RegistrationCount, &e.CreatedAt, &e.UpdatedAt}
}

func finishEvent(e *models.Event, price sql.NullFloat64) *models.Event {
	if price.Valid {
		p := price.Float64
		e.TicketPrice = &p
	}
	e.Tags = nonNil(e.Tags)
	return e
}

func scanEvent(row rowScanner) (*models.Event, error) {
	e := &models.Event{}
	var price sql.NullFloat64
	if err := row.Scan(eventDest(e, &price)...); err != nil {
		return nil, err
	}
	return finishEvent(e, price), nil
}

// CreateEvent сохраняет событие от имени организатора. Строка организатора блокируется
// на время транзакции, authorize получает её актуальное состояние и может отклонить
// создание (квота, платные функции). Счётчик free_events_created увеличивается вместе
// со вставкой события.
func (s *Storage) CreateEvent(ctx context.Context, event models.Event, authorize func(organizer *models.User) error) (*models.Event, error) {
	const op = "storage.CreateEvent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var created *models.Event
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		organizer, err := scanUser(tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, event.OrganizerID))
		if err != nil {
			return mapError(err)
		}
		if authorize != nil {
			if err := authorize(organizer); err != nil {
				return err
			}
		}
		if event.OrganizerName == "" {
			event.OrganizerName = organizer.Name
		}

		var price sql.NullFloat64
		if event.TicketPrice != nil {
			price = sql.NullFloat64{Float64: *event.TicketPrice, Valid: true}
		}
		query := `INSERT INTO events (id, title, description, slug, organizer_id, organizer_name,
				      category, tags, start_date, end_date, timezone, location_type, venue, address,
				      city, state, country, capacity, ticket_type, ticket_price, cover_image, theme_color,
				      registration_count)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
				      $18, $19, $20, $21, $22, 0)
				  RETURNING ` + eventColumns
		created, err = scanEvent(tx.QueryRowContext(ctx, query,
			event.ID, event.Title, event.Description, event.Slug, event.OrganizerID, event.OrganizerName,
			event.Category, nonNil(event.Tags), event.StartDate, event.EndDate, event.Timezone,
			string(event.LocationType), event.Venue, event.Address, event.City, event.State, event.Country,
			event.Capacity, string(event.TicketType), price, event.CoverImage, event.ThemeColor))
		if err != nil {
			return mapError(err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET free_events_created = free_events_created + 1, updated_at = NOW() WHERE id = $1`,
			event.OrganizerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetEvent возвращает событие по ID.
func (s *Storage) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	const op = "storage.GetEvent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	e, err := scanEvent(s.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return e, nil
}

// GetEventBySlug возвращает событие по точному совпадению слага.
func (s *Storage) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	const op = "storage.GetEventBySlug"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	e, err := scanEvent(s.DB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return e, nil
}

// ListEventsByOrganizer возвращает события организатора, новые первыми.
func (s *Storage) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	const op = "storage.ListEventsByOrganizer"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	events, err := s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (s *Storage) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent удаляет событие вместе со всеми его регистрациями и уменьшает счётчик
// free_events_created организатора (не ниже нуля). Все шаги выполняются в одной транзакции.
func (s *Storage) DeleteEvent(ctx context.Context, eventID, callerID string) (*models.Event, error) {
	const op = "storage.DeleteEvent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var deleted *models.Event
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// строка вызывающего блокируется до события, как в CreateEvent
		var lockedID string
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE id = $1 FOR UPDATE`, callerID).Scan(&lockedID); err != nil {
			err = mapError(err)
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrUnauthorized
			}
			return err
		}

		e, err := scanEvent(tx.QueryRowContext(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
		if err != nil {
			return mapError(err)
		}
		if e.OrganizerID != callerID {
			return models.ErrUnauthorized
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET free_events_created = GREATEST(free_events_created - 1, 0), updated_at = NOW()
			 WHERE id = $1`, e.OrganizerID); err != nil {
			return err
		}
		deleted = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}
