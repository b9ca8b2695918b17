// Package attendees реализует HTTP-обработчик списка регистраций события для организатора.
package attendees

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
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler отдаёт организатору всех зарегистрированных на событие.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение регистраций события.
type Service interface {
	GetEventRegistrations(ctx context.Context, eventID, callerID string) ([]*models.Registration, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Регистрации события
// @Description Все регистрации события, включая отменённые. Доступно только организатору.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID события"
// @Success 200 {object} response.Response "Список регистраций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Вызывающий не организатор"
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/{id}/registrations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.attendees"
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
	regs, err := h.service.GetEventRegistrations(r.Context(), eventID, userID)
	if err != nil {
		log.Error("failed to list registrations", slog.String("event_id", eventID), sl.Err(err))
		status, body := response.FromError(err, "could not list registrations")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if regs == nil {
		regs = []*models.Registration{}
	}

	render.JSON(w, r, response.StatusOKWithData(regs))
}
