package rabbitmq

import "github.com/magabrotheeeer/eventhub/internal/models"

// NotificationsExchange direct-обменник, в который публикуются все уведомления.
const NotificationsExchange = "notifications"

// Имена очередей воркера рассылки.
const (
	QueueTicketIssued    = "notification.ticket_issued"
	QueueTicketCancelled = "notification.ticket_cancelled"
	QueueEventReminder   = "notification.event_reminder"
)

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает notifier.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueTicketIssued, RoutingKey: models.RoutingTicketIssued},
		{QueueName: QueueTicketCancelled, RoutingKey: models.RoutingTicketCancelled},
		{QueueName: QueueEventReminder, RoutingKey: models.RoutingEventReminder},
	}
}
