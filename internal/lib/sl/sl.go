// Package sl содержит вспомогательные функции для работы с логгером slog:
// выбор обработчика по окружению и единообразный вывод ошибок.
package sl

import (
	"io"
	"log/slog"

	"github.com/magabrotheeeer/ewa-delivery/internal/config"
)

// New создаёт логгер для окружения env. Локально пишется читаемый текст
// с отладочными сообщениями, в dev и prod пишется JSON.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
