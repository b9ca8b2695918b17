// Package create реализует HTTP-обработчик создания события.
//
// Handler принимает JSON с описанием события, валидирует его, берёт ID организатора
// из контекста и возвращает ID и slug созданного события.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler управляет HTTP-запросами на создание событий.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику создания события.
type Service interface {
	CreateEvent(ctx context.Context, organizerID string, req models.CreateEventRequest) (*models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать событие
// @Description Создает событие от имени текущего пользователя. Бесплатный тариф ограничен одним событием.
// @Tags Events
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateEventRequest true "Данные события"
// @Success 201 {object} response.Response "ID и slug события"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Исчерпана квота или функция доступна только в Pro"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.create"
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

	var req models.CreateEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validateErrs validator.ValidationErrors
		if !errors.As(err, &validateErrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErrs))
		return
	}

	event, err := h.service.CreateEvent(r.Context(), userID, req)
	if err != nil {
		log.Error("failed to create event", sl.Err(err))
		status, body := response.FromError(err, "could not create event")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("event created", slog.String("id", event.ID), slog.String("slug", event.Slug))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":   event.ID,
		"slug": event.Slug,
	}))
}
