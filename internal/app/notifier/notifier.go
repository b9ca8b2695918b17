// Package notifier содержит приложение рассылки: слушает очереди уведомлений
// и отправляет посетителям письма о билетах и напоминания.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/eventhub/internal/config"
	"github.com/magabrotheeeer/eventhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/eventhub/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей всех очередей и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for queue, handler := range a.senderService.Handlers() {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, queue, a.logger, handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			a.close()
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", queue))
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	a.close()

	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
