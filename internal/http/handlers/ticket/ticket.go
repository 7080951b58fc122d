// Package ticket реализует HTTP-обработчики обращений в поддержку.
package ticket

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

// Service описывает интерфейс работы с обращениями.
type Service interface {
	Create(ctx context.Context, actor models.Actor, req models.DummyTicket) (*models.SupportTicket, error)
	List(ctx context.Context, actor models.Actor) ([]models.SupportTicket, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.SupportTicket, error)
	Reply(ctx context.Context, actor models.Actor, id string, req models.DummyReply) (*models.TicketMessage, error)
	SetStatus(ctx context.Context, actor models.Actor, id string, status string) (*models.SupportTicket, error)
}

// Handler обрабатывает HTTP-запросы обращений.
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

// Create godoc
// @Summary Создание обращения
// @Tags Tickets
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyTicket true "Тема и описание"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /tickets [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ticket.Create")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummyTicket
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	t, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		log.Error("failed to create ticket", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("ticket created", slog.String("id", t.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(t))
}

// List возвращает обращения: клиенту свои, сотрудникам все.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ticket.List")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	tickets, err := h.service.List(r.Context(), actor)
	if err != nil {
		log.Error("failed to list tickets", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(tickets))
}

// Get возвращает обращение с перепиской.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ticket.Get")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to get ticket", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(t))
}

// Reply godoc
// @Summary Ответ в обращении
// @Description Внутренние заметки доступны только сотрудникам.
// @Tags Tickets
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID обращения"
// @Param request body models.DummyReply true "Текст сообщения"
// @Success 201 {object} response.Response
// @Router /tickets/{id}/messages [post]
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ticket.Reply")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummyReply
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	msg, err := h.service.Reply(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		log.Error("failed to reply to ticket", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(msg))
}

// SetStatus меняет статус обращения.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.ticket.SetStatus")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummyTicketStatus
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	t, err := h.service.SetStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		log.Error("failed to set ticket status", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("ticket status changed", slog.String("id", t.ID), slog.String("status", string(t.Status)))
	render.JSON(w, r, response.StatusOKWithData(t))
}
