package models

import (
	"time"
)

// NotificationType канал рассылки.
type NotificationType string

// Каналы рассылки.
const (
	NotificationEmail NotificationType = "email"
	NotificationPush  NotificationType = "push"
	NotificationSMS   NotificationType = "sms"
)

// IsValid сообщает, известен ли канал.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationEmail, NotificationPush, NotificationSMS:
		return true
	}
	return false
}

// NotificationStatus статус рассылки. Sent конечный, отмены отправки нет.
type NotificationStatus string

// Статусы рассылки.
const (
	NotificationDraft     NotificationStatus = "draft"
	NotificationScheduled NotificationStatus = "scheduled"
	NotificationSent      NotificationStatus = "sent"
)

// Notification маркетинговая или сервисная рассылка.
// OpenRate и ClickRate заполняются внешней аналитикой после отправки.
type Notification struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Message       string             `json:"message"`
	Type          NotificationType   `json:"type"`
	Status        NotificationStatus `json:"status"`
	Recipients    int                `json:"recipients"`
	ScheduledDate *time.Time         `json:"scheduled_date,omitempty"`
	SentDate      *time.Time         `json:"sent_date,omitempty"`
	OpenRate      *float64           `json:"open_rate,omitempty"`
	ClickRate     *float64           `json:"click_rate,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// DummyNotification тело запроса на создание рассылки. ScheduledDate в формате RFC3339.
type DummyNotification struct {
	Title         string `json:"title" validate:"required"`
	Message       string `json:"message" validate:"required"`
	Type          string `json:"type" validate:"required,oneof=email push sms"`
	Recipients    int    `json:"recipients" validate:"min=0"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
}

// NotificationSentEvent событие об отправке рассылки для воркера отправки.
type NotificationSentEvent struct {
	NotificationID string           `json:"notification_id"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	Recipients     []string         `json:"recipients"`
}

// DummySchedule тело запроса на планирование рассылки.
type DummySchedule struct {
	ScheduledDate string `json:"scheduled_date" validate:"required"`
}
