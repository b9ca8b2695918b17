// Package remove реализует HTTP-обработчик удаления события организатором.
// Вместе с событием удаляются все его регистрации.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
)

// Handler управляет удалением событий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает бизнес-логику удаления события.
type Service interface {
	DeleteEvent(ctx context.Context, eventID, callerID string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить событие
// @Description Удаляет событие и все его регистрации. Доступно только организатору.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID события"
// @Success 200 {object} response.Response "Событие удалено"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Вызывающий не организатор"
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.remove"
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

	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		log.Error("empty event id")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		log.Error("failed to delete event", slog.String("event_id", eventID), sl.Err(err))
		status, body := response.FromError(err, "failed to delete event")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("event deleted", slog.String("event_id", eventID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"success": true,
	}))
}
