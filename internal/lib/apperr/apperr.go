// Package apperr описывает классы ошибок, которые видит клиент API:
// ошибки загрузки, изменения, валидации, отсутствия записи, конфликта состояний и доступа.
// Каждый класс сопоставлен HTTP-статусу и публичному сообщению.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/magabrotheeeer/ewa-delivery/internal/storage/repository"
)

// Kind класс ошибки.
type Kind string

// Классы ошибок.
const (
	KindFetch        Kind = "FETCH_ERROR"
	KindMutation     Kind = "MUTATION_ERROR"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "STATE_CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Metadata описывает, как класс ошибки отдаётся клиенту.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	// ShowMessage разрешает отдавать клиенту текст конкретной ошибки вместо публичного.
	ShowMessage bool
}

var metadataByKind = map[Kind]Metadata{
	KindFetch:        {HTTPStatus: http.StatusBadGateway, PublicMessage: "could not load data"},
	KindMutation:     {HTTPStatus: http.StatusInternalServerError, PublicMessage: "could not save changes"},
	KindValidation:   {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "validation failed", ShowMessage: true},
	KindNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", ShowMessage: true},
	KindConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "state transition disallowed", ShowMessage: true},
	KindUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "unauthorized"},
	KindForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	KindInternal:     {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error"},
}

// MetadataFor возвращает метаданные класса; неизвестный класс считается внутренней ошибкой.
func MetadataFor(kind Kind) Metadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindInternal]
}

// Error ошибка с классом и сообщением, оборачивающая причину.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New создаёт ошибку заданного класса.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap оборачивает причину в ошибку заданного класса.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

// Kind возвращает класс ошибки.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Message возвращает сообщение ошибки.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As извлекает *Error из цепочки ошибок.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf возвращает класс ошибки; ошибки без класса считаются внутренними.
func KindOf(err error) Kind {
	if typed := As(err); typed != nil {
		return typed.Kind()
	}
	return KindInternal
}

// Fetch оборачивает ошибку загрузки данных.
func Fetch(err error, message string) *Error { return Wrap(KindFetch, err, message) }

// Mutation оборачивает ошибку изменения данных.
func Mutation(err error, message string) *Error { return Wrap(KindMutation, err, message) }

// Validation создаёт ошибку валидации.
func Validation(err error) *Error { return Wrap(KindValidation, err, err.Error()) }

// NotFound создаёт ошибку отсутствующей записи.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict оборачивает недопустимый переход состояния.
func Conflict(err error) *Error { return Wrap(KindConflict, err, err.Error()) }

// Forbidden создаёт ошибку доступа.
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// Unauthorized создаёт ошибку аутентификации.
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// FromStorage переводит ошибку хранилища в класс ошибки API. Отсутствие записи
// и нарушение ограничений отдаются как есть, прочие ошибки получают класс kind.
// what называет сущность в тексте ошибки.
func FromStorage(err error, kind Kind, what string) *Error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return Wrap(KindNotFound, err, what+" not found")
	case errors.Is(err, repository.ErrConflict):
		return Wrap(KindConflict, err, what+" conflicts with existing data")
	}
	return Wrap(kind, err, MetadataFor(kind).PublicMessage)
}
