package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

const userColumns = `id, token_identifier, name, email, image_url, has_completed_onboarding,
	interests, location_city, location_state, location_country, free_events_created, has_pro,
	created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var city, state, country sql.NullString
	if err := row.Scan(&u.ID, &u.TokenIdentifier, &u.Name, &u.Email, &u.ImageURL,
		&u.HasCompletedOnboarding, stringArray(&u.Interests), &city, &state, &country,
		&u.FreeEventsCreated, &u.HasPro, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if city.Valid || country.Valid {
		u.Location = &models.Location{City: city.String, State: state.String, Country: country.String}
	}
	u.Interests = nonNil(u.Interests)
	return u, nil
}

// UpsertUser создаёт пользователя при первом обращении или обновляет его профиль,
// если имя, почта или аватар изменились.
func (s *Storage) UpsertUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	const op = "storage.UpsertUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO users (token_identifier, name, email, image_url)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (token_identifier) DO UPDATE
			  SET name = EXCLUDED.name, email = EXCLUDED.email, image_url = EXCLUDED.image_url,
			      updated_at = NOW()
			  WHERE users.name IS DISTINCT FROM EXCLUDED.name
			     OR users.email IS DISTINCT FROM EXCLUDED.email
			     OR users.image_url IS DISTINCT FROM EXCLUDED.image_url
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		identity.TokenIdentifier, identity.Name, identity.Email, identity.ImageURL))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	// профиль не изменился, ON CONFLICT не вернул строку
	u, err = scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE token_identifier = $1`, identity.TokenIdentifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// CompleteOnboarding сохраняет город и интересы пользователя.
func (s *Storage) CompleteOnboarding(ctx context.Context, userID string, location models.Location, interests []string) (*models.User, error) {
	const op = "storage.CompleteOnboarding"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET location_city = $2, location_state = NULLIF($3, ''), location_country = $4,
			      interests = $5, has_completed_onboarding = TRUE, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		userID, location.City, location.State, location.Country, nonNil(interests)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// SetPro меняет признак Pro-тарифа.
func (s *Storage) SetPro(ctx context.Context, userID string, hasPro bool) (*models.User, error) {
	const op = "storage.SetPro"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users SET has_pro = $2, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID, hasPro))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}
