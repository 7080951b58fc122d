// Package notification ведёт маркетинговые и сервисные рассылки:
// черновики, планирование и отправку.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Repository определяет методы рассылок в хранилище.
type Repository interface {
	CreateNotification(ctx context.Context, n models.Notification) (string, error)
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	ListDueNotifications(ctx context.Context, now time.Time) ([]models.Notification, error)
	UpdateNotification(ctx context.Context, n models.Notification) error
	// ListCustomerEmails возвращает адреса получателей email-рассылок.
	ListCustomerEmails(ctx context.Context) ([]string, error)
}

// Notifier публикует события без ожидания результата.
type Notifier interface {
	Notify(routingKey string, message any)
}

// Service реализует работу с рассылками.
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

// Create создаёт черновик или, если задана дата, запланированную рассылку.
func (s *Service) Create(ctx context.Context, req models.DummyNotification) (*models.Notification, error) {
	n := models.Notification{
		Title:      req.Title,
		Message:    req.Message,
		Type:       models.NotificationType(req.Type),
		Status:     models.NotificationDraft,
		Recipients: req.Recipients,
		CreatedAt:  s.now(),
	}
	if !n.Type.IsValid() {
		return nil, apperr.New(apperr.KindValidation, "invalid notification type "+req.Type)
	}
	if req.ScheduledDate != "" {
		at, err := s.parseFuture(req.ScheduledDate)
		if err != nil {
			return nil, err
		}
		if n, err = lifecycle.ScheduleNotification(n, at); err != nil {
			return nil, lifecycle.AppError(err)
		}
	}

	id, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "notification")
	}
	n.ID = id
	return &n, nil
}

// List возвращает все рассылки.
func (s *Service) List(ctx context.Context) ([]models.Notification, error) {
	list, err := s.repo.ListNotifications(ctx)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "notifications")
	}
	return list, nil
}

// Update изменяет рассылку до отправки. Пустая дата оставляет статус без изменений.
func (s *Service) Update(ctx context.Context, id string, req models.DummyNotification) (*models.Notification, error) {
	current, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "notification")
	}
	if current.Status == models.NotificationSent {
		return nil, lifecycle.AppError(fmt.Errorf("%w: notification already sent", lifecycle.ErrInvalidTransition))
	}
	next := *current
	next.Title = req.Title
	next.Message = req.Message
	next.Type = models.NotificationType(req.Type)
	next.Recipients = req.Recipients
	if !next.Type.IsValid() {
		return nil, apperr.New(apperr.KindValidation, "invalid notification type "+req.Type)
	}
	if req.ScheduledDate != "" {
		at, err := s.parseFuture(req.ScheduledDate)
		if err != nil {
			return nil, err
		}
		if next, err = lifecycle.ScheduleNotification(next, at); err != nil {
			return nil, lifecycle.AppError(err)
		}
	}
	if err := s.repo.UpdateNotification(ctx, next); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "notification")
	}
	return &next, nil
}

// Schedule переводит черновик в запланированные на дату scheduledDate (RFC3339).
func (s *Service) Schedule(ctx context.Context, id, scheduledDate string) (*models.Notification, error) {
	at, err := s.parseFuture(scheduledDate)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "notification")
	}
	next, err := lifecycle.ScheduleNotification(*current, at)
	if err != nil {
		return nil, lifecycle.AppError(err)
	}
	if err := s.repo.UpdateNotification(ctx, next); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "notification")
	}
	s.metrics.Transition("notification", string(current.Status), string(next.Status))
	return &next, nil
}

func (s *Service) parseFuture(value string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.KindValidation, err, "scheduled_date must be RFC3339")
	}
	if !at.After(s.now()) {
		return time.Time{}, apperr.New(apperr.KindValidation, "scheduled_date must be in the future")
	}
	return at.UTC(), nil
}

// SendNow отправляет рассылку. Отправленную рассылку повторно отправить нельзя.
// После сохранения публикуется событие для воркера отправки.
func (s *Service) SendNow(ctx context.Context, id string) (*models.Notification, error) {
	current, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "notification")
	}
	next, err := lifecycle.SendNotification(*current, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}

	event := models.NotificationSentEvent{
		NotificationID: next.ID,
		Title:          next.Title,
		Message:        next.Message,
		Type:           next.Type,
	}
	// получатели загружаются до смены статуса: отправленную рассылку повторить нельзя
	if next.Type == models.NotificationEmail {
		emails, err := s.repo.ListCustomerEmails(ctx)
		if err != nil {
			s.log.Error("failed to load recipients", slog.String("notification_id", id), sl.Err(err))
			return nil, apperr.FromStorage(err, apperr.KindFetch, "recipients")
		}
		event.Recipients = emails
	}

	if err := s.repo.UpdateNotification(ctx, next); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "notification")
	}
	s.metrics.Transition("notification", string(current.Status), string(next.Status))

	s.notifier.Notify(rabbitmq.RoutingNotificationSent, event)
	return &next, nil
}

// DispatchDue отправляет запланированные рассылки, срок которых наступил.
// Возвращает число отправленных рассылок.
func (s *Service) DispatchDue(ctx context.Context) (int, error) {
	due, err := s.repo.ListDueNotifications(ctx, s.now())
	if err != nil {
		return 0, apperr.FromStorage(err, apperr.KindFetch, "notifications")
	}
	sent := 0
	var errs []error
	for _, n := range due {
		if _, err := s.SendNow(ctx, n.ID); err != nil {
			s.log.Error("failed to send scheduled notification", slog.String("notification_id", n.ID), sl.Err(err))
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
