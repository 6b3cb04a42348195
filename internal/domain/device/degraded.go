package device

import (
	"fmt"

	"golang.org/x/exp/slog"
)

// DegradedRead политика чтения для экранов списка: любая ошибка или паника
// превращается в успешный результат с fallback, ошибка только логируется.
func DegradedRead[T any](log *slog.Logger, op string, read func() (T, error), fallback T) (result Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Паника при чтении, возвращаем пустой результат", "op", op, "panic", fmt.Sprint(r))
			result = Ok(fallback)
		}
	}()

	data, err := read()
	if err != nil {
		log.Warn("Ошибка чтения, возвращаем пустой результат", "op", op, "error", err)
		return Ok(fallback)
	}

	return Ok(data)
}
