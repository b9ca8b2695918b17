// Package storage реализует хранилище eventhub на PostgreSQL.
//
// Все изменяющие операции над событиями и регистрациями выполняются в одной
// транзакции с блокировкой строки события (SELECT ... FOR UPDATE), поэтому
// проверка вместимости, проверка уникальности и изменение счётчика
// registration_count не могут перемежаться с конкурентными вызовами.
// Порядок блокировок во всех транзакциях: users -> events -> registrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeInvalidTextRepr     = "22P02"
	constraintSlug          = "events_slug_key"
	constraintEventUser     = "registrations_event_user_key"
	constraintQRCode        = "registrations_qr_code_key"
	constraintRegistrations = "events_registration_count_check"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'registrations'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table registrations missing")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// withTx выполняет fn в транзакции и фиксирует её, если fn не вернула ошибку.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// stringArray возвращает sql.Scanner для колонки TEXT[].
func stringArray(dst *[]string) sql.Scanner {
	return pgtype.NewMap().SQLScanner(dst)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// mapError переводит ошибки PostgreSQL и database/sql в доменные.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintSlug:
				return fmt.Errorf("%w: %s", models.ErrSlugTaken, pgErr.Detail)
			case constraintEventUser:
				return models.ErrDuplicateRegistration
			case constraintQRCode:
				return models.ErrDuplicateQRCode
			}
		case codeCheckViolation:
			if pgErr.ConstraintName == constraintRegistrations {
				return models.ErrEventFull
			}
		case codeInvalidTextRepr:
			// некорректный uuid в запросе равносилен отсутствию записи
			return models.ErrNotFound
		}
	}
	return err
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
