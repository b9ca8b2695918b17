// Package dashboard реализует HTTP-обработчик панели организатора:
// событие вместе с агрегатами по регистрациям.
package dashboard

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

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает построение панели события.
type Service interface {
	GetDashboard(ctx context.Context, eventID, callerID string) (*models.Dashboard, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Панель события
// @Description Статистика регистраций и отметок. Доступно только организатору.
// @Tags Events
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID события"
// @Success 200 {object} response.Response "Событие и статистика"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Вызывающий не организатор"
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/{id}/dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.dashboard"
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
	dash, err := h.service.GetDashboard(r.Context(), eventID, userID)
	if err != nil {
		log.Error("failed to build dashboard", slog.String("event_id", eventID), sl.Err(err))
		status, body := response.FromError(err, "could not build dashboard")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(dash))
}
