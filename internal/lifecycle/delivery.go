package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// SkipRequest параметры пропуска доставки.
type SkipRequest struct {
	Reason       models.SkipReason
	CustomReason string
}

// Validate проверяет причину пропуска. Для причины "other" обязателен непустой текст.
func (r SkipRequest) Validate() error {
	if !r.Reason.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReason, r.Reason)
	}
	if r.Reason == models.SkipOther && strings.TrimSpace(r.CustomReason) == "" {
		return ErrCustomReasonRequired
	}
	return nil
}

// RescheduleRequest параметры переноса доставки.
type RescheduleRequest struct {
	NewDate       time.Time
	NewTimeSlotID string
	Reason        models.RescheduleReason
}

// Validate проверяет причину и дату переноса относительно now.
func (r RescheduleRequest) Validate(now time.Time) error {
	if !r.Reason.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReason, r.Reason)
	}
	if !truncateDay(r.NewDate).After(truncateDay(now)) {
		return ErrDateNotInFuture
	}
	return nil
}

// CanCustomerChange сообщает, может ли клиент пропустить или перенести доставку в этом статусе.
func CanCustomerChange(status models.DeliveryStatus) bool {
	return status == models.DeliveryScheduled || status == models.DeliveryRescheduled
}

// Skip переводит доставку в статус skipped.
func Skip(d models.Delivery, req SkipRequest, now time.Time) (models.Delivery, error) {
	if !CanCustomerChange(d.Status) {
		return d, fmt.Errorf("%w: cannot skip delivery in status %s", ErrInvalidTransition, d.Status)
	}
	if err := req.Validate(); err != nil {
		return d, err
	}

	next := cloneDelivery(d)
	skippedAt := now
	next.Status = models.DeliverySkipped
	next.SkipReason = req.Reason
	next.SkipCustomReason = ""
	if req.Reason == models.SkipOther {
		next.SkipCustomReason = strings.TrimSpace(req.CustomReason)
	}
	next.SkippedAt = &skippedAt
	next.UpdatedAt = now
	return next, nil
}

// Reschedule переносит доставку на новую дату. Хранятся только последние
// значения полей переноса, предыдущие переносы теряются.
func Reschedule(d models.Delivery, req RescheduleRequest, now time.Time) (models.Delivery, error) {
	if !CanCustomerChange(d.Status) {
		return d, fmt.Errorf("%w: cannot reschedule delivery in status %s", ErrInvalidTransition, d.Status)
	}
	if err := req.Validate(now); err != nil {
		return d, err
	}

	next := cloneDelivery(d)
	from := d.ScheduledDate
	to := req.NewDate
	next.Status = models.DeliveryRescheduled
	next.RescheduledFrom = &from
	next.ScheduledDate = req.NewDate
	next.RescheduledTo = &to
	next.RescheduledReason = req.Reason
	if req.NewTimeSlotID != "" {
		next.TimeSlotID = req.NewTimeSlotID
	}
	next.UpdatedAt = now
	return next, nil
}

var dispatchTransitions = map[models.DeliveryStatus][]models.DeliveryStatus{
	models.DeliveryScheduled:      {models.DeliveryInTransit, models.DeliveryCancelled},
	models.DeliveryRescheduled:    {models.DeliveryInTransit, models.DeliveryCancelled},
	models.DeliveryInTransit:      {models.DeliveryOutForDelivery, models.DeliveryFailed},
	models.DeliveryOutForDelivery: {models.DeliveryDelivered, models.DeliveryFailed},
	models.DeliverySkipped:        {models.DeliveryCancelled},
}

// Advance применяет переход, пришедший от службы диспетчеризации.
// Переход в failed из движущегося статуса увеличивает счётчик попыток.
func Advance(d models.Delivery, to models.DeliveryStatus, driver *models.Driver, now time.Time) (models.Delivery, error) {
	if !to.IsValid() {
		return d, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	allowed := false
	for _, candidate := range dispatchTransitions[d.Status] {
		if candidate == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return d, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}

	next := cloneDelivery(d)
	if to == models.DeliveryFailed {
		next.Attempts++
	}
	if driver != nil {
		drv := *driver
		next.Driver = &drv
	}
	next.Status = to
	next.UpdatedAt = now
	return next, nil
}

func cloneDelivery(d models.Delivery) models.Delivery {
	next := d
	if d.Items != nil {
		next.Items = append([]models.DeliveryItem(nil), d.Items...)
	}
	return next
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}
