// Package mine реализует HTTP-обработчик списка событий текущего организатора.
package mine

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler отдаёт события, созданные вызывающим.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику чтения событий организатора.
type Service interface {
	GetMyEvents(ctx context.Context, organizerID string) ([]*models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои события
// @Description Возвращает события текущего пользователя, новые первыми.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список событий"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/mine [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.mine"
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

	events, err := h.service.GetMyEvents(r.Context(), userID)
	if err != nil {
		log.Error("failed to list events", sl.Err(err))
		status, body := response.FromError(err, "could not list events")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}

	log.Debug("events listed", slog.Int("count", len(events)))
	render.JSON(w, r, response.StatusOKWithData(events))
}
