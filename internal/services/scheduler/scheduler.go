// Package scheduler выполняет периодические задачи:
// напоминания о завтрашних доставках и отправку запланированных рассылок.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Названия задач в метриках.
const (
	JobReminders     = "delivery_reminders"
	JobNotifications = "scheduled_notifications"
)

const reminderMarkTTL = 48 * time.Hour

// DeliveryRepository отдаёт доставки на день.
type DeliveryRepository interface {
	ListDeliveriesOn(ctx context.Context, date time.Time) ([]models.Delivery, error)
}

// Marker ставит отметку об уже выполненном действии.
type Marker interface {
	// Once возвращает true, если отметки не было и она поставлена сейчас.
	Once(ctx context.Context, key string, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// NotificationDispatcher отправляет рассылки, срок которых наступил.
type NotificationDispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

// Intervals периоды запуска задач.
type Intervals struct {
	Reminders     time.Duration
	Notifications time.Duration
}

// Service запускает периодические задачи.
type Service struct {
	deliveries    DeliveryRepository
	marks         Marker
	publisher     rabbitmq.EventPublisher
	notifications NotificationDispatcher
	timeout       time.Duration
	metrics       *metrics.Metrics
	log           *slog.Logger
	now           func() time.Time
}

// New создает новый экземпляр Service. timeout ограничивает одну публикацию.
func New(
	deliveries DeliveryRepository,
	marks Marker,
	publisher rabbitmq.EventPublisher,
	notifications NotificationDispatcher,
	timeout time.Duration,
	m *metrics.Metrics,
	log *slog.Logger,
) *Service {
	return &Service{
		deliveries:    deliveries,
		marks:         marks,
		publisher:     publisher,
		notifications: notifications,
		timeout:       timeout,
		metrics:       m,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run выполняет задачи сразу и затем по расписанию, пока ctx не отменён.
func (s *Service) Run(ctx context.Context, every Intervals) {
	s.runReminders(ctx)
	s.runNotifications(ctx)

	reminders := time.NewTicker(every.Reminders)
	defer reminders.Stop()
	notifications := time.NewTicker(every.Notifications)
	defer notifications.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-reminders.C:
			s.runReminders(ctx)
		case <-notifications.C:
			s.runNotifications(ctx)
		}
	}
}

func (s *Service) runReminders(ctx context.Context) {
	started := time.Now()
	sent, err := s.RemindTomorrow(ctx)
	s.metrics.Job(JobReminders, started, err)
	if err != nil {
		s.log.Error("failed to send delivery reminders", sl.Err(err))
		return
	}
	s.log.Info("delivery reminders published", slog.Int("count", sent))
}

func (s *Service) runNotifications(ctx context.Context) {
	started := time.Now()
	sent, err := s.notifications.DispatchDue(ctx)
	s.metrics.Job(JobNotifications, started, err)
	if err != nil {
		s.log.Error("failed to dispatch scheduled notifications", sl.Err(err))
	}
	if sent > 0 {
		s.log.Info("scheduled notifications sent", slog.Int("count", sent))
	}
}

// RemindTomorrow публикует напоминания о доставках на завтра.
// Каждая доставка получает не больше одного напоминания на дату, даже при повторных запусках.
// Возвращает число опубликованных напоминаний.
func (s *Service) RemindTomorrow(ctx context.Context) (int, error) {
	tomorrow := s.now().AddDate(0, 0, 1)
	deliveries, err := s.deliveries.ListDeliveriesOn(ctx, tomorrow)
	if err != nil {
		return 0, err
	}
	if len(deliveries) == 0 {
		s.log.Info("no deliveries scheduled for tomorrow")
		return 0, nil
	}

	published := 0
	for _, d := range deliveries {
		reminder := models.ReminderFor(d)
		key := cache.ReminderKey(d.ID, reminder.Date)
		first, err := s.marks.Once(ctx, key, reminderMarkTTL)
		if err != nil {
			s.log.Warn("failed to mark reminder, publishing anyway", slog.String("delivery_id", d.ID), sl.Err(err))
			first = true
		}
		if !first {
			continue
		}
		if err := s.publish(ctx, reminder); err != nil {
			s.log.Error("failed to publish reminder", slog.String("delivery_id", d.ID), sl.Err(err))
			s.metrics.PublishFailed(rabbitmq.RoutingReminder)
			if err := s.marks.Invalidate(ctx, key); err != nil {
				s.log.Warn("failed to drop reminder mark", slog.String("delivery_id", d.ID), sl.Err(err))
			}
			continue
		}
		published++
	}
	return published, nil
}

func (s *Service) publish(ctx context.Context, reminder models.DeliveryReminder) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.publisher.Publish(ctx, rabbitmq.RoutingReminder, reminder)
}
