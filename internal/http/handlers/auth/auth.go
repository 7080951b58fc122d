// Package auth реализует HTTP-обработчики регистрации, входа и сессии пользователя.
//
// Вход возвращает JWT; сессия хранится на сервере под идентификатором токена,
// поэтому выход делает токен недействительным сразу.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/request"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/response"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/session"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
	authservice "github.com/magabrotheeeer/ewa-delivery/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Register(ctx context.Context, req models.DummyUser) (string, error)
	Login(ctx context.Context, email, password string) (*authservice.LoginResult, error)
	CurrentUser(ctx context.Context, tokenID string) session.State
	Logout(ctx context.Context, tokenID string) error
	UpdateProfile(ctx context.Context, actor models.Actor, tokenID string, req models.DummyProfile) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы аутентификации.
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

// Register godoc
// @Summary Регистрация клиента
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyUser true "Данные пользователя"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Register")

	var req models.DummyUser
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	id, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("user registered", slog.String("user_id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":    id,
		"email": req.Email,
	}))
}

// Login godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль, создаёт сессию и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyLogin true "Учетные данные"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Router /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Login")

	var req models.DummyLogin
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("login success", slog.String("user_id", result.User.ID))
	render.JSON(w, r, response.StatusOKWithData(result))
}

// Session godoc
// @Summary Текущая сессия
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /session [get]
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	state := h.service.CurrentUser(r.Context(), middlewarectx.TokenIDFrom(r.Context()))
	render.JSON(w, r, response.StatusOKWithData(state))
}

// Logout завершает сессию.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Logout")

	if err := h.service.Logout(r.Context(), middlewarectx.TokenIDFrom(r.Context())); err != nil {
		log.Error("failed to logout", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(session.Empty()))
}

// UpdateProfile меняет имя и телефон текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.UpdateProfile")

	actor, ok := request.Actor(w, r, log)
	if !ok {
		return
	}
	var req models.DummyProfile
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), actor, middlewarectx.TokenIDFrom(r.Context()), req)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(user))
}
