// Package subscription реализует HTTP-обработчики подписок и разовых заказов.
package subscription

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/request"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/response"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Service описывает интерфейс работы с подписками.
type Service interface {
	List(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Subscription, error)
	Orders(ctx context.Context, actor models.Actor) ([]models.OneOffOrder, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Subscription, error)
	Change(ctx context.Context, actor models.Actor, id string, action lifecycle.SubscriptionAction) (*models.Subscription, error)
}

// Handler обрабатывает HTTP-запросы подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Список подписок
// @Description Клиент получает свои подписки, сотрудники все.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /subscriptions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscription.List")

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

	subs, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(subs))
}

// Get возвращает подписку по id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscription.Get")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	sub, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to get subscription", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(sub))
}

// Orders возвращает разовые заказы текущего пользователя.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscription.Orders")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	orders, err := h.service.Orders(r.Context(), actor)
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(orders))
}

// Action возвращает обработчик действия над подпиской: pause, resume или cancel.
func (h *Handler) Action(action lifecycle.SubscriptionAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.logger(r, "handlers.subscription."+string(action))

		actor, ok := request.Actor(w, r, log)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		sub, err := h.service.Change(r.Context(), actor, id, action)
		if err != nil {
			log.Error("failed to change subscription", slog.String("id", id), sl.Err(err))
			response.Fail(w, r, err)
			return
		}

		log.Info("subscription changed", slog.String("id", id), slog.String("status", string(sub.Status)))
		render.JSON(w, r, response.StatusOKWithData(sub))
	}
}
