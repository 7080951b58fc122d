// Package delivery реализует HTTP-обработчики доставок: список, пропуск,
// перенос и переходы от службы диспетчеризации.
package delivery

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/request"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/response"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Service описывает интерфейс работы с доставками.
type Service interface {
	List(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Delivery, error)
	Skip(ctx context.Context, actor models.Actor, id string, req models.DummySkip) (*models.Delivery, error)
	Reschedule(ctx context.Context, actor models.Actor, id string, req models.DummyReschedule) (*models.Delivery, error)
	Dispatch(ctx context.Context, id string, req models.DummyDispatch) (*models.Delivery, error)
}

// Handler обрабатывает HTTP-запросы доставок.
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

// List возвращает доставки с постраничной выдачей.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.delivery.List")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	limit, offset, err := request.Page(r)
	if err != nil {
		log.Error("invalid pagination", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	deliveries, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		log.Error("failed to list deliveries", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(deliveries))
}

// Skip godoc
// @Summary Пропуск доставки
// @Description Доступен для доставок в статусах scheduled и rescheduled. Для причины other обязателен custom_reason.
// @Tags Deliveries
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID доставки"
// @Param request body models.DummySkip true "Причина пропуска"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Переход недопустим"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /deliveries/{id}/skip [post]
func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.delivery.Skip")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummySkip
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	d, err := h.service.Skip(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to skip delivery", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(d))
}

// Reschedule godoc
// @Summary Перенос доставки
// @Tags Deliveries
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID доставки"
// @Param request body models.DummyReschedule true "Новая дата"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Переход недопустим"
// @Router /deliveries/{id}/reschedule [post]
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.delivery.Reschedule")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummyReschedule
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	d, err := h.service.Reschedule(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to reschedule delivery", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(d))
}

// Dispatch принимает переход статуса от службы диспетчеризации.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.delivery.Dispatch")

	var req models.DummyDispatch
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	d, err := h.service.Dispatch(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to apply dispatch transition", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(d))
}
