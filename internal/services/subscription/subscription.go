// Package subscription содержит бизнес-логику подписок: чтение через кеш
// и смену статуса (пауза, возобновление, отмена) с откатом кеша при ошибке.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/command"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Repository определяет методы для работы с подписками в хранилище.
type Repository interface {
	// GetSubscription возвращает подписку по ID.
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	// ListSubscriptions возвращает подписки пользователя, для пустого userID все.
	ListSubscriptions(ctx context.Context, userID string, limit, offset int) ([]models.Subscription, error)
	// UpdateSubscriptionStatus сохраняет новый статус.
	UpdateSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus, updatedAt time.Time) error
	// ListOneOffOrders возвращает разовые заказы пользователя.
	ListOneOffOrders(ctx context.Context, userID string) ([]models.OneOffOrder, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует бизнес-логику работы с подписками, включая кеширование.
type Service struct {
	repo    Repository
	cache   Cache
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает подписки. Клиент видит только свои, сотрудники все.
func (s *Service) List(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Subscription, error) {
	userID := actor.ID
	if actor.IsStaff() {
		userID = ""
	}
	subs, err := s.repo.ListSubscriptions(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "subscriptions")
	}
	return subs, nil
}

// Orders возвращает разовые заказы пользователя.
func (s *Service) Orders(ctx context.Context, actor models.Actor) ([]models.OneOffOrder, error) {
	orders, err := s.repo.ListOneOffOrders(ctx, actor.ID)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "orders")
	}
	return orders, nil
}

// Get возвращает подписку по ID, используя кеш или репозиторий.
func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.Subscription, error) {
	var result models.Subscription
	cacheKey := cache.SubscriptionKey(id)
	found, err := s.cache.Get(ctx, cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if !found {
		stored, err := s.repo.GetSubscription(ctx, id)
		if err != nil {
			return nil, apperr.FromStorage(err, apperr.KindFetch, "subscription")
		}
		result = *stored
		if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey), sl.Err(err))
		}
	}
	if !actor.Owns(result.UserID) {
		return nil, apperr.NotFound("subscription not found")
	}
	return &result, nil
}

// Change применяет действие к подписке. Новое состояние сразу пишется в кеш;
// если сохранение в хранилище не удалось, кеш откатывается к прежнему
// значению, а вызывающий получает ошибку изменения.
func (s *Service) Change(ctx context.Context, actor models.Actor, id string, action lifecycle.SubscriptionAction) (*models.Subscription, error) {
	const op = "subscription.Change"
	current, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "subscription")
	}
	if !actor.Owns(current.UserID) {
		return nil, apperr.NotFound("subscription not found")
	}

	next, err := lifecycle.ApplySubscription(*current, action, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}

	cacheKey := cache.SubscriptionKey(id)
	cmd := command.New(*current, next, func(ctx context.Context, sub models.Subscription) error {
		return s.cache.Set(ctx, cacheKey, sub, 0)
	})
	applyErr, err := cmd.Execute(ctx, func(ctx context.Context) error {
		return s.repo.UpdateSubscriptionStatus(ctx, id, next.Status, next.UpdatedAt)
	})
	if applyErr != nil {
		s.log.Warn("failed to publish optimistic state", slog.String("op", op), slog.String("key", cacheKey), sl.Err(applyErr))
	}
	if err != nil {
		s.log.Error("subscription update failed, rolled back", slog.String("op", op), slog.String("id", id), sl.Err(err))
		return nil, apperr.FromStorage(fmt.Errorf("%s: %w", op, err), apperr.KindMutation, "subscription")
	}

	s.metrics.Transition("subscription", string(current.Status), string(next.Status))
	s.log.Info("subscription status changed",
		slog.String("id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(next.Status)),
	)
	return &next, nil
}
