// Package sl содержит атрибуты slog, общие для сервисов eventhub.
package sl

import "log/slog"

// Err атрибут "error" с текстом ошибки. Для nil возвращает пустой атрибут,
// который slog не выводит.
//
//	log.Error("failed to register for event", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
