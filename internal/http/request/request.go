// Package request разбирает параметры строки запроса.
package request

import (
	"errors"
	"net/http"
	"strconv"
)

// ErrInvalidLimit параметр limit не является неотрицательным целым.
var ErrInvalidLimit = errors.New("invalid limit")

// Limit читает параметр limit. Отсутствующий параметр даёт 0, то есть размер по умолчанию.
func Limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidLimit
	}
	return n, nil
}
