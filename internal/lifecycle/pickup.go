package lifecycle

import (
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// BookPickup переводит доставку на получение в пункте самовывоза p в день date.
// date должен совпадать с днём доставки, график пункта проверяется именно по нему.
// Загрузку пункта функция не меняет: её ведёт внешняя система бронирования.
func BookPickup(d models.Delivery, p models.PickupPoint, date time.Time, now time.Time) (models.Delivery, error) {
	if !CanCustomerChange(d.Status) {
		return d, ErrInvalidTransition
	}
	if truncateDay(date).Before(truncateDay(now)) {
		return d, ErrDateNotInFuture
	}
	if !truncateDay(date).Equal(truncateDay(d.ScheduledDate)) {
		return d, ErrBookingDateMismatch
	}
	if p.IsFull() {
		return d, ErrCapacityReached
	}
	if !p.IsOpenOn(date) {
		return d, ErrPointClosed
	}

	next := cloneDelivery(d)
	next.DeliveryType = models.DeliveryTypePickup
	next.PickupPointID = p.ID
	next.UpdatedAt = now
	return next, nil
}
