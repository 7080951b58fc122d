// Package pickup отдаёт пункты самовывоза и бронирует их под доставку.
package pickup

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Repository определяет методы пунктов выдачи и доставок в хранилище.
type Repository interface {
	ListPickupPoints(ctx context.Context, city string) ([]models.PickupPoint, error)
	GetPickupPoint(ctx context.Context, id string) (*models.PickupPoint, error)
	GetDelivery(ctx context.Context, id string) (*models.Delivery, error)
	UpdateDelivery(ctx context.Context, d models.Delivery) error
}

// Notifier публикует события без ожидания результата.
type Notifier interface {
	Notify(routingKey string, message any)
}

// Service реализует работу с пунктами выдачи.
type Service struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает пункты выдачи, при непустом city только в этом городе.
func (s *Service) List(ctx context.Context, city string) ([]models.PickupPoint, error) {
	points, err := s.repo.ListPickupPoints(ctx, city)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "pickup points")
	}
	return points, nil
}

// Book переводит доставку клиента на получение в пункте pointID.
// Загрузка пункта не меняется, учёт ведёт внешняя система по событию pickup.booked.
func (s *Service) Book(ctx context.Context, actor models.Actor, pointID string, req models.DummyBooking) (*models.Delivery, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "date must be in format 2006-01-02")
	}
	point, err := s.repo.GetPickupPoint(ctx, pointID)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "pickup point")
	}
	current, err := s.repo.GetDelivery(ctx, req.DeliveryID)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "delivery")
	}
	if !actor.Owns(current.UserID) {
		return nil, apperr.NotFound("delivery not found")
	}

	next, err := lifecycle.BookPickup(*current, *point, date, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}
	if err := s.repo.UpdateDelivery(ctx, next); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "delivery")
	}
	s.log.Info("pickup point booked",
		slog.String("delivery_id", next.ID),
		slog.String("pickup_point_id", point.ID),
		slog.String("date", req.Date),
	)

	s.notifier.Notify(rabbitmq.RoutingPickupBooked, models.PickupBookedEvent{
		PickupPointID: point.ID,
		DeliveryID:    next.ID,
		UserID:        next.UserID,
		Date:          req.Date,
	})
	return &next, nil
}
