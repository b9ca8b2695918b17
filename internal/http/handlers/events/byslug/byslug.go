// Package byslug реализует HTTP-обработчик чтения публичной страницы события по slug.
package byslug

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler отдаёт событие по его slug.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение события по slug.
type Service interface {
	GetEventBySlug(ctx context.Context, slug string) (*models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Событие по slug
// @Description Возвращает событие. Счётчик регистраций может немного отставать от фактического.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param slug path string true "Slug события"
// @Success 200 {object} response.Response "Событие"
// @Failure 400 {object} response.ErrorResponse "Пустой slug"
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/by-slug/{slug} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.byslug"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		log.Error("empty slug")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid slug"))
		return
	}

	event, err := h.service.GetEventBySlug(r.Context(), slug)
	if err != nil {
		log.Error("failed to get event", slog.String("slug", slug), sl.Err(err))
		status, body := response.FromError(err, "could not get event")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(event))
}
