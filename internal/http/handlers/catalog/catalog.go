// Package catalog реализует HTTP-обработчики товаров и планов подписки.
package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/request"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/response"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Service описывает интерфейс каталога.
type Service interface {
	Products(ctx context.Context) ([]models.Product, error)
	Plans(ctx context.Context, includeInactive bool) ([]models.Plan, error)
	CreatePlan(ctx context.Context, req models.DummyPlan) (*models.Plan, error)
	UpdatePlan(ctx context.Context, id string, req models.DummyPlan) (*models.Plan, error)
	QuotePrice(ctx context.Context, productID string, minQty int, frequency models.Frequency) (decimal.Decimal, error)
}

// Handler обрабатывает HTTP-запросы каталога.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Products godoc
// @Summary Список товаров
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response
// @Router /products [get]
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.catalog.Products")

	products, err := h.service.Products(r.Context())
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(products))
}

// Plans godoc
// @Summary Активные планы подписки
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response
// @Router /plans [get]
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	h.plans(w, r, false)
}

// AllPlans возвращает планы вместе с неактивными.
func (h *Handler) AllPlans(w http.ResponseWriter, r *http.Request) {
	h.plans(w, r, true)
}

func (h *Handler) plans(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	log := h.logger(r, "handlers.catalog.Plans")

	plans, err := h.service.Plans(r.Context(), includeInactive)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(plans))
}

// CreatePlan godoc
// @Summary Создание плана
// @Description Цена рассчитывается по товару, количеству и периодичности, если не задана вручную.
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPlan true "План"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.catalog.CreatePlan")

	var req models.DummyPlan
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("plan created", slog.String("plan_id", plan.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(plan))
}

// UpdatePlan изменяет план.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.catalog.UpdatePlan")

	var req models.DummyPlan
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to update plan", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(plan))
}

// Quote рассчитывает цену плана для формы редактирования.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.catalog.Quote")

	q := r.URL.Query()
	frequency, err := models.ParseFrequency(q.Get("frequency"))
	if err != nil {
		log.Error("invalid frequency", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	minQty, err := strconv.Atoi(q.Get("min_qty"))
	if err != nil || minQty < 0 {
		log.Error("invalid min_qty", slog.String("min_qty", q.Get("min_qty")))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("min_qty must be a non-negative integer"))
		return
	}

	price, err := h.service.QuotePrice(r.Context(), q.Get("product_id"), minQty, frequency)
	if err != nil {
		log.Error("failed to quote price", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"price": price}))
}
