// Package popular реализует HTTP-обработчик самых популярных предстоящих событий.
package popular

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/request"
	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler отдаёт события с наибольшим числом регистраций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику популярных событий.
type Service interface {
	GetPopularEvents(ctx context.Context, limit int) ([]*models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Популярные события
// @Description Предстоящие события по убыванию числа регистраций.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер подборки (по умолчанию 6, не больше 50)"
// @Success 200 {object} response.Response "Список событий"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/popular [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.popular"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := request.Limit(r)
	if err != nil {
		log.Warn("invalid limit", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}

	events, err := h.service.GetPopularEvents(r.Context(), limit)
	if err != nil {
		log.Error("failed to list popular events", sl.Err(err))
		status, body := response.FromError(err, "could not list events")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}

	render.JSON(w, r, response.StatusOKWithData(events))
}
