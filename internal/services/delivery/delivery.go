// Package delivery содержит операции клиента над доставками (пропуск и перенос)
// и приём переходов от службы диспетчеризации.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Repository определяет методы доставок в хранилище.
type Repository interface {
	GetDelivery(ctx context.Context, id string) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, userID string, limit, offset int) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, d models.Delivery) error
}

// Notifier публикует события без ожидания результата.
type Notifier interface {
	Notify(routingKey string, message any)
}

// Service реализует работу с доставками.
type Service struct {
	repo     Repository
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, notifier Notifier, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает доставки. Клиент видит только свои, сотрудники все.
func (s *Service) List(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Delivery, error) {
	userID := actor.ID
	if actor.IsStaff() {
		userID = ""
	}
	deliveries, err := s.repo.ListDeliveries(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "deliveries")
	}
	return deliveries, nil
}

// Skip пропускает доставку.
func (s *Service) Skip(ctx context.Context, actor models.Actor, id string, req models.DummySkip) (*models.Delivery, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Skip(*current, lifecycle.SkipRequest{
		Reason:       models.SkipReason(req.Reason),
		CustomReason: req.CustomReason,
	}, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}
	if err := s.save(ctx, *current, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Reschedule переносит доставку и отправляет клиенту напоминание о новой дате.
// Ошибка отправки напоминания не влияет на результат переноса.
func (s *Service) Reschedule(ctx context.Context, actor models.Actor, id string, req models.DummyReschedule) (*models.Delivery, error) {
	newDate, err := time.Parse(time.DateOnly, req.NewDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "new_date must be in format 2006-01-02")
	}
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Reschedule(*current, lifecycle.RescheduleRequest{
		NewDate:       newDate,
		NewTimeSlotID: req.NewTimeSlotID,
		Reason:        models.RescheduleReason(req.Reason),
	}, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}
	if err := s.save(ctx, *current, next); err != nil {
		return nil, err
	}

	s.notifier.Notify(rabbitmq.RoutingReminder, models.ReminderFor(next))
	return &next, nil
}

// Dispatch применяет переход от службы диспетчеризации.
func (s *Service) Dispatch(ctx context.Context, id string, req models.DummyDispatch) (*models.Delivery, error) {
	to, err := models.ParseDeliveryStatus(req.Status)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	current, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "delivery")
	}
	next, err := lifecycle.Advance(*current, to, req.Driver, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}
	if err := s.save(ctx, *current, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *Service) load(ctx context.Context, actor models.Actor, id string) (*models.Delivery, error) {
	d, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "delivery")
	}
	if !actor.Owns(d.UserID) {
		return nil, apperr.NotFound("delivery not found")
	}
	return d, nil
}

func (s *Service) save(ctx context.Context, current, next models.Delivery) error {
	if err := s.repo.UpdateDelivery(ctx, next); err != nil {
		return apperr.FromStorage(err, apperr.KindMutation, "delivery")
	}
	s.metrics.Transition("delivery", string(current.Status), string(next.Status))
	s.log.Info("delivery status changed",
		slog.String("id", next.ID),
		slog.String("from", string(current.Status)),
		slog.String("to", string(next.Status)),
	)
	return nil
}
