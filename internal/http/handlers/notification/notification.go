// Package notification реализует HTTP-обработчики рассылок.
package notification

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

// Service описывает интерфейс работы с рассылками.
type Service interface {
	Create(ctx context.Context, req models.DummyNotification) (*models.Notification, error)
	List(ctx context.Context) ([]models.Notification, error)
	Update(ctx context.Context, id string, req models.DummyNotification) (*models.Notification, error)
	Schedule(ctx context.Context, id, scheduledDate string) (*models.Notification, error)
	SendNow(ctx context.Context, id string) (*models.Notification, error)
}

// Handler обрабатывает HTTP-запросы рассылок.
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

// List возвращает все рассылки.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notification.List")

	list, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list notifications", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Create godoc
// @Summary Создание рассылки
// @Description Без scheduled_date рассылка создаётся черновиком.
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyNotification true "Рассылка"
// @Success 201 {object} response.Response
// @Router /notifications [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notification.Create")

	var req models.DummyNotification
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	n, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create notification", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("notification created", slog.String("id", n.ID), slog.String("status", string(n.Status)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(n))
}

// Update изменяет неотправленную рассылку.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notification.Update")

	var req models.DummyNotification
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	n, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to update notification", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(n))
}

// Schedule назначает дату отправки.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notification.Schedule")

	var req models.DummySchedule
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	n, err := h.service.Schedule(r.Context(), chi.URLParam(r, "id"), req.ScheduledDate)
	if err != nil {
		log.Error("failed to schedule notification", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(n))
}

// Send godoc
// @Summary Немедленная отправка рассылки
// @Tags Notifications
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID рассылки"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Рассылка уже отправлена"
// @Router /notifications/{id}/send [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notification.Send")

	n, err := h.service.SendNow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to send notification", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("notification sent", slog.String("id", n.ID))
	render.JSON(w, r, response.StatusOKWithData(n))
}
