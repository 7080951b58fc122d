// Package catalog отдаёт справочник товаров и ведёт тарифные планы.
// Список активных планов кешируется в Redis и сбрасывается при изменении плана.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/pricing"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
	"github.com/magabrotheeeer/ewa-delivery/internal/storage/repository"
)

// ErrNegativePrice ручная цена плана меньше нуля.
var ErrNegativePrice = errors.New("price must not be negative")

// Repository определяет методы каталога в хранилище.
type Repository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListPlans(ctx context.Context, onlyActive bool) ([]models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	CreatePlan(ctx context.Context, p models.Plan) (string, error)
	UpdatePlan(ctx context.Context, p models.Plan) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует работу с каталогом.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Products возвращает все товары.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "products")
	}
	return products, nil
}

// Plans возвращает планы. Активные планы читаются из кеша, все планы
// (для админки) всегда из хранилища.
func (s *Service) Plans(ctx context.Context, includeInactive bool) ([]models.Plan, error) {
	if includeInactive {
		plans, err := s.repo.ListPlans(ctx, false)
		if err != nil {
			return nil, apperr.FromStorage(err, apperr.KindFetch, "plans")
		}
		return plans, nil
	}

	var plans []models.Plan
	found, err := s.cache.Get(ctx, cache.PlansKey(), &plans)
	if err != nil {
		s.log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return plans, nil
	}

	plans, err = s.repo.ListPlans(ctx, true)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "plans")
	}
	if err := s.cache.Set(ctx, cache.PlansKey(), plans, 0); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// CreatePlan создаёт план. Цена считается из цены товара, количества и
// периодичности; ручная цена из запроса, если задана, заменяет расчётную.
func (s *Service) CreatePlan(ctx context.Context, req models.DummyPlan) (*models.Plan, error) {
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, apperr.Validation(ErrNegativePrice)
	}
	product, err := s.product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	plan := models.Plan{
		Name:      req.Name,
		ProductID: product.ID,
		Frequency: frequency,
		MinQty:    req.MinQty,
		Price:     pricing.Compute(product.Price, req.MinQty, frequency),
		Active:    req.Active,
	}
	if req.Price != nil {
		plan.Price = req.Price.Round(2)
	}

	id, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "plan")
	}
	plan.ID = id
	s.invalidatePlans(ctx)
	s.log.Info("plan created", slog.String("plan_id", id), slog.String("price", plan.Price.String()))
	return &plan, nil
}

// UpdatePlan изменяет план. Сначала применяется ручная цена из запроса, затем
// каждое изменение товара, количества или периодичности пересчитывает цену и
// затирает ручную правку. Если драйверы цены не менялись, ручная цена остаётся.
func (s *Service) UpdatePlan(ctx context.Context, id string, req models.DummyPlan) (*models.Plan, error) {
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, apperr.Validation(ErrNegativePrice)
	}
	stored, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "plan")
	}
	storedProduct, err := s.product(ctx, stored.ProductID)
	if err != nil {
		return nil, err
	}

	draft := pricing.NewDraft(*stored, storedProduct.Price)
	if req.Price != nil {
		draft.SetPrice(req.Price.Round(2))
	}
	if req.ProductID != stored.ProductID {
		product, err := s.product(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		draft.SetProduct(product.Price)
	}
	if req.MinQty != stored.MinQty {
		draft.SetMinQty(req.MinQty)
	}
	if frequency != stored.Frequency {
		draft.SetFrequency(frequency)
	}

	plan := models.Plan{
		ID:        stored.ID,
		Name:      req.Name,
		ProductID: req.ProductID,
		Frequency: frequency,
		MinQty:    req.MinQty,
		Price:     draft.Price(),
		Active:    req.Active,
	}
	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "plan")
	}
	s.invalidatePlans(ctx)
	return &plan, nil
}

// QuotePrice считает цену плана без сохранения.
func (s *Service) QuotePrice(ctx context.Context, productID string, minQty int, frequency models.Frequency) (decimal.Decimal, error) {
	product, err := s.product(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Compute(product.Price, minQty, frequency), nil
}

func (s *Service) product(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindValidation, err, "unknown product "+id)
		}
		return nil, apperr.FromStorage(err, apperr.KindFetch, "product")
	}
	return product, nil
}

func (s *Service) invalidatePlans(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.PlansKey()); err != nil {
		s.log.Warn("failed to invalidate plans cache", sl.Err(err))
	}
}
