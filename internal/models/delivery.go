package models

import (
	"fmt"
	"time"
)

// DeliveryStatus статус доставки.
type DeliveryStatus string

// Статусы доставки. Delivered, Failed и Cancelled конечные.
const (
	DeliveryScheduled      DeliveryStatus = "scheduled"
	DeliveryInTransit      DeliveryStatus = "in_transit"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryFailed         DeliveryStatus = "failed"
	DeliveryCancelled      DeliveryStatus = "cancelled"
	DeliverySkipped        DeliveryStatus = "skipped"
	DeliveryRescheduled    DeliveryStatus = "rescheduled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryScheduled,
	DeliveryInTransit,
	DeliveryOutForDelivery,
	DeliveryDelivered,
	DeliveryFailed,
	DeliveryCancelled,
	DeliverySkipped,
	DeliveryRescheduled,
}

// IsValid сообщает, известен ли статус.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, является ли статус конечным.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryFailed || s == DeliveryCancelled
}

// ParseDeliveryStatus преобразует строку в DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	s := DeliveryStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid delivery status %q", value)
	}
	return s, nil
}

// DeliveryType способ получения заказа.
type DeliveryType string

// Способы получения.
const (
	DeliveryTypeHome   DeliveryType = "home_delivery"
	DeliveryTypePickup DeliveryType = "pickup_point"
)

// SkipReason причина пропуска доставки.
type SkipReason string

// Причины пропуска. Для SkipOther обязателен свободный текст.
const (
	SkipVacation             SkipReason = "vacation"
	SkipBusinessTrip         SkipReason = "business_trip"
	SkipTemporarilyNotNeeded SkipReason = "temporarily_not_needed"
	SkipAddressChange        SkipReason = "address_change"
	SkipOther                SkipReason = "other"
)

// IsValid сообщает, известна ли причина.
func (r SkipReason) IsValid() bool {
	switch r {
	case SkipVacation, SkipBusinessTrip, SkipTemporarilyNotNeeded, SkipAddressChange, SkipOther:
		return true
	}
	return false
}

// RescheduleReason причина переноса доставки.
type RescheduleReason string

// Причины переноса.
const (
	RescheduleNotAvailable     RescheduleReason = "not_available"
	RescheduleAddressChange    RescheduleReason = "address_change"
	ReschedulePreferenceChange RescheduleReason = "preference_change"
	RescheduleEmergency        RescheduleReason = "emergency"
	RescheduleOther            RescheduleReason = "other"
)

// IsValid сообщает, известна ли причина.
func (r RescheduleReason) IsValid() bool {
	switch r {
	case RescheduleNotAvailable, RescheduleAddressChange, ReschedulePreferenceChange, RescheduleEmergency, RescheduleOther:
		return true
	}
	return false
}

// Recipient получатель доставки.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// DeliveryItem позиция доставки.
type DeliveryItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// Driver данные водителя, назначенного на доставку.
type Driver struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Vehicle string `json:"vehicle"`
}

// Delivery представляет одну доставку по подписке или разовому заказу.
// Пропуск и перенос записываются в поля самой доставки, история не хранится.
type Delivery struct {
	ID                string           `json:"id"`
	SubscriptionID    string           `json:"subscription_id,omitempty"`
	UserID            string           `json:"user_id"`
	OrderID           string           `json:"order_id,omitempty"`
	DeliveryType      DeliveryType     `json:"delivery_type"`
	PickupPointID     string           `json:"pickup_point_id,omitempty"`
	Status            DeliveryStatus   `json:"status"`
	ScheduledDate     time.Time        `json:"scheduled_date"`
	TimeSlotID        string           `json:"time_slot_id,omitempty"`
	EstimatedTime     string           `json:"estimated_time,omitempty"`
	DeliveryAddress   string           `json:"delivery_address"`
	Recipient         Recipient        `json:"recipient"`
	Items             []DeliveryItem   `json:"items"`
	Driver            *Driver          `json:"driver,omitempty"`
	Attempts          int              `json:"attempts"`
	MaxAttempts       int              `json:"max_attempts"`
	SkipReason        SkipReason       `json:"skip_reason,omitempty"`
	SkipCustomReason  string           `json:"skip_custom_reason,omitempty"`
	SkippedAt         *time.Time       `json:"skipped_at,omitempty"`
	RescheduledFrom   *time.Time       `json:"rescheduled_from,omitempty"`
	RescheduledTo     *time.Time       `json:"rescheduled_to,omitempty"`
	RescheduledReason RescheduleReason `json:"rescheduled_reason,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DummySkip тело запроса на пропуск доставки.
type DummySkip struct {
	Reason       string `json:"reason" validate:"required,oneof=vacation business_trip temporarily_not_needed address_change other"`
	CustomReason string `json:"custom_reason,omitempty"`
}

// DummyReschedule тело запроса на перенос доставки. NewDate в формате 2006-01-02.
type DummyReschedule struct {
	NewDate       string `json:"new_date" validate:"required"`
	NewTimeSlotID string `json:"new_time_slot_id,omitempty"`
	Reason        string `json:"reason" validate:"required,oneof=not_available address_change preference_change emergency other"`
}

// DummyDispatch тело запроса от службы диспетчеризации.
type DummyDispatch struct {
	Status string  `json:"status" validate:"required"`
	Driver *Driver `json:"driver,omitempty"`
}

// DeliveryReminder сообщение о предстоящей доставке, уходящее в очередь напоминаний.
type DeliveryReminder struct {
	DeliveryID    string `json:"delivery_id"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Name          string `json:"name"`
	Date          string `json:"date"`
	EstimatedTime string `json:"estimated_time"`
	Address       string `json:"address"`
}

// ReminderFor собирает напоминание о доставке d.
func ReminderFor(d Delivery) DeliveryReminder {
	return DeliveryReminder{
		DeliveryID:    d.ID,
		Email:         d.Recipient.Email,
		Phone:         d.Recipient.Phone,
		Name:          d.Recipient.Name,
		Date:          d.ScheduledDate.Format(time.DateOnly),
		EstimatedTime: d.EstimatedTime,
		Address:       d.DeliveryAddress,
	}
}
