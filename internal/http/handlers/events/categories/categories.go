// Package categories реализует HTTP-обработчик счётчиков событий по категориям.
package categories

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
)

// Handler отдаёт число предстоящих событий в каждой категории.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает подсчёт событий по категориям.
type Service interface {
	GetCategoryCounts(ctx context.Context) (map[string]int, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Категории
// @Description Число предстоящих событий по категориям. Категории без событий отсутствуют.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Категория -> количество"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/categories [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.categories"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	counts, err := h.service.GetCategoryCounts(r.Context())
	if err != nil {
		log.Error("failed to count events", sl.Err(err))
		status, body := response.FromError(err, "could not count events")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if counts == nil {
		counts = map[string]int{}
	}

	render.JSON(w, r, response.StatusOKWithData(counts))
}
