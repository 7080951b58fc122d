// Package staff реализует HTTP-обработчики управления сотрудниками.
package staff

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

// Service описывает интерфейс работы с сотрудниками.
type Service interface {
	List(ctx context.Context) ([]models.InternalUser, error)
	Create(ctx context.Context, req models.DummyInternalUser) (*models.InternalUser, error)
	Update(ctx context.Context, id string, req models.DummyInternalUser) (*models.InternalUser, error)
}

// Handler обрабатывает HTTP-запросы управления сотрудниками.
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

// List возвращает всех сотрудников.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.staff.List")

	users, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list staff", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(users))
}

// Create godoc
// @Summary Создание сотрудника
// @Description Права по умолчанию берутся из роли, если не переданы явно.
// @Tags Staff
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyInternalUser true "Сотрудник"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Email занят"
// @Router /staff [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.staff.Create")

	var req models.DummyInternalUser
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	u, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create staff member", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("staff member created", slog.String("id", u.ID), slog.String("role", string(u.Role)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(u))
}

// Update изменяет роль, статус или права сотрудника.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.staff.Update")

	var req models.DummyInternalUser
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	u, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to update staff member", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(u))
}
