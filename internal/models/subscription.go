package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus статус подписки клиента.
type SubscriptionStatus string

// Статусы подписки. Cancelled конечный.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// IsValid сообщает, известен ли статус.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionActive, SubscriptionPaused, SubscriptionCancelled:
		return true
	}
	return false
}

// ParseSubscriptionStatus преобразует строку в SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	s := SubscriptionStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid subscription status %q", value)
	}
	return s, nil
}

// Subscription представляет подписку клиента на план доставки.
type Subscription struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	PlanID           string             `json:"plan_id"`
	Status           SubscriptionStatus `json:"status"`
	Quantity         int                `json:"quantity"`
	NextDeliveryDate *time.Time         `json:"next_delivery_date,omitempty"`
	Address          string             `json:"address"`
	Frequency        Frequency          `json:"frequency"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// OneOffOrder разовый заказ клиента вне подписки.
type OneOffOrder struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
