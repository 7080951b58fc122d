package models

import (
	"strings"
	"time"
)

// DayHours часы работы пункта выдачи в один день недели.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// PickupPoint пункт самовывоза. CurrentLoad ведёт внешняя система бронирования.
type PickupPoint struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Address        string              `json:"address"`
	City           string              `json:"city"`
	OperatingHours map[string]DayHours `json:"operating_hours"`
	Capacity       int                 `json:"capacity"`
	CurrentLoad    int                 `json:"current_load"`
	Features       []string            `json:"features"`
}

// IsOpenOn сообщает, работает ли пункт в день недели указанной даты.
// Отсутствие расписания на день считается выходным.
func (p PickupPoint) IsOpenOn(date time.Time) bool {
	hours, ok := p.OperatingHours[weekdayKey(date.Weekday())]
	return ok && !hours.Closed
}

// IsFull сообщает, достигнута ли вместимость пункта.
func (p PickupPoint) IsFull() bool {
	return p.CurrentLoad >= p.Capacity
}

func weekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// DummyBooking тело запроса на бронирование пункта выдачи. Date в формате 2006-01-02.
type DummyBooking struct {
	DeliveryID string `json:"delivery_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
}

// PickupBookedEvent событие о бронировании для внешней системы учёта загрузки.
type PickupBookedEvent struct {
	PickupPointID string `json:"pickup_point_id"`
	DeliveryID    string `json:"delivery_id"`
	UserID        string `json:"user_id"`
	Date          string `json:"date"`
}
