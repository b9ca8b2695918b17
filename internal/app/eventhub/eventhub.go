package eventhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/eventhub/internal/cache"
	"github.com/magabrotheeeer/eventhub/internal/config"
	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eventhub/internal/lib/debounce"
	"github.com/magabrotheeeer/eventhub/internal/lib/jwt"
	"github.com/magabrotheeeer/eventhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/migrations"
	checkinservice "github.com/magabrotheeeer/eventhub/internal/services/checkin"
	eventsservice "github.com/magabrotheeeer/eventhub/internal/services/events"
	registrationsservice "github.com/magabrotheeeer/eventhub/internal/services/registrations"
	usersservice "github.com/magabrotheeeer/eventhub/internal/services/users"
	"github.com/magabrotheeeer/eventhub/internal/storage"
)

// App HTTP API eventhub вместе с его ресурсами.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	debouncer *debounce.Debouncer
	conn      *amqp.Connection
	ch        *amqp.Channel
}

// New подключает хранилище, кеш и брокер, накатывает миграции и собирает маршруты.
// Без RABBITMQ_URL уведомления не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.eventhub.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		debouncer: debounce.New(cfg.InvalidationDelay),
	}

	var publisher registrationsservice.Publisher
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(app.ch, rabbitmq.NotificationsExchange)
	} else {
		logger.Warn("rabbitmq url is empty, ticket notifications are disabled")
	}

	services := Services{
		Users:         usersservice.NewUserService(db, logger),
		Events:        eventsservice.NewEventService(db, cacheRedis, cfg.EventCacheTTL, logger),
		Registrations: registrationsservice.NewRegistrationService(db, cacheRedis, app.debouncer, publisher, logger),
		CheckIn:       checkinservice.NewCheckInService(db, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(
		router,
		logger,
		services,
		jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		middlewarectx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		db,
	)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// Run обслуживает HTTP до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close освобождает ресурсы. Отложенные сбросы кеша выполняются до закрытия redis.
func (a *App) close() {
	if a.debouncer != nil {
		a.debouncer.Stop()
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
