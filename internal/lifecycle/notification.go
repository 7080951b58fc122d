package lifecycle

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// ScheduleNotification переводит черновик рассылки в запланированные на дату at.
func ScheduleNotification(n models.Notification, at time.Time) (models.Notification, error) {
	if n.Status == models.NotificationSent {
		return n, fmt.Errorf("%w: notification already sent", ErrInvalidTransition)
	}
	next := n
	scheduled := at
	next.Status = models.NotificationScheduled
	next.ScheduledDate = &scheduled
	return next, nil
}

// SendNotification отмечает рассылку отправленной. Отметка окончательная.
// Показатели открытий и переходов обнуляются до прихода данных аналитики.
func SendNotification(n models.Notification, now time.Time) (models.Notification, error) {
	if n.Status != models.NotificationDraft && n.Status != models.NotificationScheduled {
		return n, fmt.Errorf("%w: cannot send notification in status %s", ErrInvalidTransition, n.Status)
	}
	next := n
	sentDate := now
	zero := 0.0
	zeroClick := 0.0
	next.Status = models.NotificationSent
	next.SentDate = &sentDate
	next.OpenRate = &zero
	next.ClickRate = &zeroClick
	return next, nil
}
