package rabbitmq

// Exchange общий direct-exchange для всех событий сервиса.
const Exchange = "notifications"

// Ключи маршрутизации событий.
const (
	RoutingReminder         = "reminder"
	RoutingNotificationSent = "notification.sent"
	RoutingPickupBooked     = "pickup.booked"
)

// Очереди, которые читает notification-sender.
const (
	QueueReminders         = "notifications.reminder"
	QueueNotificationsSent = "notifications.sent"
	QueuePickupBooked      = "pickup.booked"
)

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, объявляемые при старте.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueReminders, RoutingKey: RoutingReminder},
		{QueueName: QueueNotificationsSent, RoutingKey: RoutingNotificationSent},
		{QueueName: QueuePickupBooked, RoutingKey: RoutingPickupBooked},
	}
}
