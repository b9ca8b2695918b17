// Package check реализует HTTP-обработчик проверки регистрации текущего пользователя на событие.
package check

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

// Handler отвечает, зарегистрирован ли вызывающий на событие.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service возвращает регистрацию пользователя или nil, если её нет.
type Service interface {
	CheckRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Моя регистрация на событие
// @Description Возвращает регистрацию вызывающего на событие или null.
// @Tags Registrations
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID события"
// @Success 200 {object} response.Response "Регистрация или null"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/{id}/registration [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registrations.check"
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
	reg, err := h.service.CheckRegistration(r.Context(), eventID, userID)
	if err != nil {
		log.Error("failed to check registration", slog.String("event_id", eventID), sl.Err(err))
		status, body := response.FromError(err, "could not check registration")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"registration": reg,
	}))
}
