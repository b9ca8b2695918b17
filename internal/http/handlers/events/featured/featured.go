// Package featured реализует HTTP-обработчик подборки ближайших событий.
package featured

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eventhub/internal/http/request"
	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler отдаёт ближайшие события с учётом интересов пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику подборки.
type Service interface {
	GetFeaturedEvents(ctx context.Context, userID string, limit int) ([]*models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подборка событий
// @Description Ближайшие предстоящие события. Если у пользователя есть интересы, сначала события этих категорий.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер подборки (по умолчанию 3, не больше 50)"
// @Success 200 {object} response.Response "Список событий"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/featured [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.featured"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit, err := request.Limit(r)
	if err != nil {
		log.Warn("invalid limit", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit"))
		return
	}

	events, err := h.service.GetFeaturedEvents(r.Context(), userID, limit)
	if err != nil {
		log.Error("failed to list featured events", sl.Err(err))
		status, body := response.FromError(err, "could not list events")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}

	log.Debug("featured events listed", slog.Int("count", len(events)))
	render.JSON(w, r, response.StatusOKWithData(events))
}
