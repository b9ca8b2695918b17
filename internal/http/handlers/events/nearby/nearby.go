// Package nearby реализует HTTP-обработчик событий в городе пользователя.
package nearby

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

// Handler отдаёт предстоящие события по городу.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику поиска по городу.
type Service interface {
	GetEventsByLocation(ctx context.Context, userID, city, state string, limit int) ([]*models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary События рядом
// @Description Предстоящие события в городе. Без city используется город из онбординга.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param city query string false "Город"
// @Param state query string false "Регион"
// @Param limit query int false "Размер подборки (по умолчанию 4, не больше 50)"
// @Success 200 {object} response.Response "Список событий"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/nearby [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.nearby"
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

	q := r.URL.Query()
	events, err := h.service.GetEventsByLocation(r.Context(), userID, q.Get("city"), q.Get("state"), limit)
	if err != nil {
		log.Error("failed to list events by location", sl.Err(err))
		status, body := response.FromError(err, "could not list events")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}

	log.Debug("nearby events listed", slog.Int("count", len(events)))
	render.JSON(w, r, response.StatusOKWithData(events))
}
