// Package request разбирает тела и параметры входящих запросов.
package request

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ewa-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/response"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Ограничения постраничной выдачи.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidPage неверные limit или offset.
var ErrInvalidPage = errors.New("limit and offset must be non-negative integers")

// NewValidator создаёт валидатор с правилами уровня структур.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(skipReasonRule, models.DummySkip{})
	return v
}

// skipReasonRule требует текст причины, если выбрана причина other.
func skipReasonRule(level validator.StructLevel) {
	req := level.Current().Interface().(models.DummySkip)
	if req.Reason == string(models.SkipOther) && strings.TrimSpace(req.CustomReason) == "" {
		level.ReportError(req.CustomReason, "CustomReason", "CustomReason", "required_with_other", "")
	}
}

// Decode читает JSON-тело в dst и проверяет его валидатором.
// При ошибке пишет ответ сам и возвращает false.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return false
		}
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return false
	}
	return true
}

// Page разбирает параметры limit и offset строки запроса.
func Page(r *http.Request) (limit, offset int, err error) {
	limit, offset = DefaultLimit, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return limit, offset, nil
}

// Actor достаёт пользователя из контекста. Без пользователя пишет 401 и возвращает false.
func Actor(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.Actor, bool) {
	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		log.Error("actor not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return models.Actor{}, false
	}
	return actor, true
}
