// Package pickup реализует HTTP-обработчики пунктов самовывоза.
package pickup

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

// Service описывает интерфейс работы с пунктами самовывоза.
type Service interface {
	List(ctx context.Context, city string) ([]models.PickupPoint, error)
	Book(ctx context.Context, actor models.Actor, pointID string, req models.DummyBooking) (*models.Delivery, error)
}

// Handler обрабатывает HTTP-запросы пунктов самовывоза.
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

// List godoc
// @Summary Пункты самовывоза
// @Tags Pickup
// @Produce  json
// @Param city query string false "Город"
// @Success 200 {object} response.Response
// @Router /pickup-points [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.pickup.List")

	points, err := h.service.List(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		log.Error("failed to list pickup points", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(points))
}

// Book godoc
// @Summary Бронирование самовывоза
// @Description Переводит доставку клиента на пункт самовывоза в выбранный день.
// @Tags Pickup
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пункта"
// @Param request body models.DummyBooking true "Доставка и дата"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Пункт заполнен или закрыт"
// @Router /pickup-points/{id}/bookings [post]
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.pickup.Book")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummyBooking
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	d, err := h.service.Book(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to book pickup", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("pickup booked", slog.String("delivery_id", d.ID))
	render.JSON(w, r, response.StatusOKWithData(d))
}
