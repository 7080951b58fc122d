// Package lifecycle содержит чистые функции переходов статусов доставок,
// подписок, обращений и рассылок. Функции не меняют входную запись:
// они возвращают новую копию или ошибку, оставляя исходную нетронутой.
package lifecycle

import (
	"errors"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
)

var (
	// ErrInvalidTransition переход из текущего статуса не допускается.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrCustomReasonRequired для причины "other" не указан текст.
	ErrCustomReasonRequired = errors.New("custom reason is required when reason is other")
	// ErrInvalidReason неизвестная причина пропуска или переноса.
	ErrInvalidReason = errors.New("invalid reason")
	// ErrDateNotInFuture новая дата доставки не позже текущего дня.
	ErrDateNotInFuture = errors.New("new date must be after today")
	// ErrInvalidStatus неизвестный статус.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrCapacityReached пункт самовывоза заполнен.
	ErrCapacityReached = errors.New("pickup point capacity reached")
	// ErrPointClosed пункт самовывоза не работает в выбранный день.
	ErrPointClosed = errors.New("pickup point is closed on this day")
	// ErrBookingDateMismatch день бронирования не совпадает с днём доставки.
	ErrBookingDateMismatch = errors.New("booking date must match the delivery date")
)

// AppError переводит ошибку правил переходов в класс ошибки API:
// запрещённые переходы дают конфликт, некорректные входные данные валидацию.
func AppError(err error) *apperr.Error {
	switch {
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCapacityReached),
		errors.Is(err, ErrPointClosed):
		return apperr.Conflict(err)
	case errors.Is(err, ErrCustomReasonRequired),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, ErrDateNotInFuture),
		errors.Is(err, ErrBookingDateMismatch),
		errors.Is(err, ErrInvalidStatus):
		return apperr.Validation(err)
	}
	return apperr.Wrap(apperr.KindInternal, err, apperr.MetadataFor(apperr.KindInternal).PublicMessage)
}
