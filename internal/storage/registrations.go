package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

const registrationColumns = `id, event_id, user_id, attendee_name, attendee_email, qr_code, status,
	checked_in, checked_in_at, registered_at`

const registrationColumnsPrefixed = `r.id, r.event_id, r.user_id, r.attendee_name, r.attendee_email,
	r.qr_code, r.status, r.checked_in, r.checked_in_at, r.registered_at`

func registrationDest(r *models.Registration, checkedInAt *sql.NullTime) []any {
	return []any{&r.ID, &r.EventID, &r.UserID, &r.AttendeeName, &r.AttendeeEmail, &r.QRCode,
		&r.Status, &r.CheckedIn, checkedInAt, &r.RegisteredAt}
}

func finishRegistration(r *models.Registration, checkedInAt sql.NullTime) *models.Registration {
	if checkedInAt.Valid {
		t := checkedInAt.Time
		r.CheckedInAt = &t
	}
	return r
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	r := &models.Registration{}
	var checkedInAt sql.NullTime
	if err := row.Scan(registrationDest(r, &checkedInAt)...); err != nil {
		return nil, err
	}
	return finishRegistration(r, checkedInAt), nil
}

func scanRegistrationWithEvent(row rowScanner) (*models.RegistrationWithEvent, error) {
	rw := &models.RegistrationWithEvent{Event: &models.Event{}}
	var checkedInAt sql.NullTime
	var price sql.NullFloat64
	dest := append(registrationDest(&rw.Registration, &checkedInAt), eventDest(rw.Event, &price)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	finishRegistration(&rw.Registration, checkedInAt)
	finishEvent(rw.Event, price)
	return rw, nil
}

// RegisterForEvent создаёт подтверждённую регистрацию и увеличивает registration_count.
//
// Строка события блокируется FOR UPDATE, поэтому проверка вместимости, проверка
// существующей регистрации (в любом статусе), вставка и инкремент счётчика видят одно
// согласованное состояние. Уникальные ограничения (event_id, user_id) и qr_code
// дополнительно защищают от дубликатов.
func (s *Storage) RegisterForEvent(ctx context.Context, reg models.Registration) (*models.RegistrationWithEvent, error) {
	const op = "storage.RegisterForEvent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var result *models.RegistrationWithEvent
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		event, err := scanEvent(tx.QueryRowContext(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, reg.EventID))
		if err != nil {
			return mapError(err)
		}
		if event.Full() {
			return models.ErrEventFull
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)`,
			reg.EventID, reg.UserID).Scan(&exists); err != nil {
			return mapError(err)
		}
		if exists {
			return models.ErrDuplicateRegistration
		}

		query := `INSERT INTO registrations (id, event_id, user_id, attendee_name, attendee_email,
				      qr_code, status, checked_in, registered_at)
				  VALUES ($1, $2, $3, $4, $5, $6, 'confirmed', FALSE, $7)
				  RETURNING ` + registrationColumns
		created, err := scanRegistration(tx.QueryRowContext(ctx, query,
			reg.ID, reg.EventID, reg.UserID, reg.AttendeeName, reg.AttendeeEmail, reg.QRCode, reg.RegisteredAt))
		if err != nil {
			return mapError(err)
		}

		if err := tx.QueryRowContext(ctx,
			`UPDATE events SET registration_count = registration_count + 1, updated_at = NOW()
			 WHERE id = $1
			 RETURNING registration_count, updated_at`, reg.EventID).
			Scan(&event.RegistrationCount, &event.UpdatedAt); err != nil {
			return mapError(err)
		}

		result = &models.RegistrationWithEvent{Registration: *created, Event: event}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CancelRegistration переводит регистрацию в статус cancelled и уменьшает registration_count
// (не ниже нуля). Отмена уже отменённой регистрации ничего не меняет и возвращает changed=false.
func (s *Storage) CancelRegistration(ctx context.Context, registrationID, callerID string) (*models.RegistrationWithEvent, bool, error) {
	const op = "storage.CancelRegistration"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	var (
		result  *models.RegistrationWithEvent
		changed bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var eventID string
		if err := tx.QueryRowContext(ctx,
			`SELECT event_id FROM registrations WHERE id = $1`, registrationID).Scan(&eventID); err != nil {
			return mapError(err)
		}

		// событие блокируется раньше регистрации, как в DeleteEvent
		event, err := scanEvent(tx.QueryRowContext(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
		if err != nil {
			return mapError(err)
		}
		reg, err := scanRegistration(tx.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, registrationID))
		if err != nil {
			return mapError(err)
		}
		if reg.UserID != callerID {
			return models.ErrUnauthorized
		}
		result = &models.RegistrationWithEvent{Registration: *reg, Event: event}
		if !reg.Confirmed() {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE registrations SET status = 'cancelled' WHERE id = $1`, registrationID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`UPDATE events SET registration_count = GREATEST(registration_count - 1, 0), updated_at = NOW()
			 WHERE id = $1
			 RETURNING registration_count, updated_at`, eventID).
			Scan(&event.RegistrationCount, &event.UpdatedAt); err != nil {
			return err
		}
		result.Status = models.StatusCancelled
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return result, changed, nil
}

// CheckIn отмечает приход посетителя по коду билета. Строка регистрации блокируется,
// поэтому повторные и одновременные сканирования одного кода не отмечают его дважды:
// для уже отмеченной регистрации возвращается already=true без изменений.
// Код отменённой регистрации считается недействительным.
func (s *Storage) CheckIn(ctx context.Context, qrCode, organizerID string, at time.Time) (*models.Registration, bool, error) {
	const op = "storage.CheckIn"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	var (
		result  *models.Registration
		already bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		reg, err := scanRegistration(tx.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE qr_code = $1 FOR UPDATE`, qrCode))
		if err != nil {
			if mapped := mapError(err); mapped == models.ErrNotFound {
				return models.ErrInvalidCode
			}
			return err
		}
		if !reg.Confirmed() {
			return models.ErrInvalidCode
		}

		var eventOrganizer string
		if err := tx.QueryRowContext(ctx,
			`SELECT organizer_id FROM events WHERE id = $1`, reg.EventID).Scan(&eventOrganizer); err != nil {
			return mapError(err)
		}
		if eventOrganizer != organizerID {
			return models.ErrUnauthorized
		}

		if reg.CheckedIn {
			result, already = reg, true
			return nil
		}

		updated, err := scanRegistration(tx.QueryRowContext(ctx,
			`UPDATE registrations SET checked_in = TRUE, checked_in_at = $2
			 WHERE id = $1
			 RETURNING `+registrationColumns, reg.ID, at))
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return result, already, nil
}

// GetRegistration возвращает регистрацию по ID.
func (s *Storage) GetRegistration(ctx context.Context, registrationID string) (*models.Registration, error) {
	const op = "storage.GetRegistration"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	r, err := scanRegistration(s.DB.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, registrationID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return r, nil
}

// GetRegistrationByEventAndUser возвращает регистрацию пользователя на событие в любом статусе.
func (s *Storage) GetRegistrationByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	const op = "storage.GetRegistrationByEventAndUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	r, err := scanRegistration(s.DB.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return r, nil
}

// ListRegistrationsByUser возвращает регистрации пользователя со снимками событий,
// последние регистрации первыми.
func (s *Storage) ListRegistrationsByUser(ctx context.Context, userID string) ([]*models.RegistrationWithEvent, error) {
	const op = "storage.ListRegistrationsByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+registrationColumnsPrefixed+`, `+eventColumnsPrefixed+`
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.user_id = $1
		 ORDER BY r.registered_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	result := make([]*models.RegistrationWithEvent, 0)
	for rows.Next() {
		rw, err := scanRegistrationWithEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListRegistrationsByEvent возвращает все регистрации события в любом статусе.
func (s *Storage) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	const op = "storage.ListRegistrationsByEvent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	result := make([]*models.Registration, 0)
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindRemindersDue возвращает подтверждённые регистрации на события, начинающиеся
// в интервале [from, to], по которым напоминание ещё не отправлялось.
func (s *Storage) FindRemindersDue(ctx context.Context, from, to time.Time) ([]*models.TicketNotification, error) {
	const op = "storage.FindRemindersDue"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+registrationColumnsPrefixed+`, `+eventColumnsPrefixed+`
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.status = 'confirmed' AND r.reminder_sent_at IS NULL
		   AND e.start_date BETWEEN $1 AND $2
		 ORDER BY e.start_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.TicketNotification, 0)
	for rows.Next() {
		rw, err := scanRegistrationWithEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		n := models.NewTicketNotification(&rw.Registration, rw.Event)
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkReminderSent запоминает время отправки напоминания.
func (s *Storage) MarkReminderSent(ctx context.Context, registrationID string, at time.Time) error {
	const op = "storage.MarkReminderSent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE registrations SET reminder_sent_at = $2 WHERE id = $1`, registrationID, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
