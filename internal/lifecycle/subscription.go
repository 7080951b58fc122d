package lifecycle

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// SubscriptionAction действие клиента над подпиской.
type SubscriptionAction string

// Действия над подпиской.
const (
	ActionPause  SubscriptionAction = "pause"
	ActionResume SubscriptionAction = "resume"
	ActionCancel SubscriptionAction = "cancel"
)

// SubscriptionTarget возвращает статус, в который переводит действие из текущего статуса.
func SubscriptionTarget(from models.SubscriptionStatus, action SubscriptionAction) (models.SubscriptionStatus, error) {
	switch {
	case action == ActionPause && from == models.SubscriptionActive:
		return models.SubscriptionPaused, nil
	case action == ActionResume && from == models.SubscriptionPaused:
		return models.SubscriptionActive, nil
	case action == ActionCancel && (from == models.SubscriptionActive || from == models.SubscriptionPaused):
		return models.SubscriptionCancelled, nil
	}
	return from, fmt.Errorf("%w: cannot %s subscription in status %s", ErrInvalidTransition, action, from)
}

// ApplySubscription применяет действие к подписке.
func ApplySubscription(s models.Subscription, action SubscriptionAction, now time.Time) (models.Subscription, error) {
	to, err := SubscriptionTarget(s.Status, action)
	if err != nil {
		return s, err
	}
	next := s
	next.Status = to
	next.UpdatedAt = now
	return next, nil
}
