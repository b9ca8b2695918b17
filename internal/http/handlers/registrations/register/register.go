// Package register реализует HTTP-обработчик регистрации текущего пользователя на событие.
//
// Handler валидирует данные посетителя и возвращает созданную регистрацию с QR-кодом.
// Переполнение события и повторная регистрация отдаются как 409 Conflict.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eventhub/internal/http/response"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

// Handler управляет регистрациями на события.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	Register(ctx context.Context, eventID, userID string, req models.RegisterRequest) (*models.Registration, error)
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
// @Summary Зарегистрироваться на событие
// @Description Занимает место на событии и выдаёт билет с QR-кодом.
// @Tags Registrations
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID события"
// @Param request body models.RegisterRequest true "Данные посетителя"
// @Success 201 {object} response.Response "Созданная регистрация"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 409 {object} response.ErrorResponse "Мест нет или пользователь уже зарегистрирован"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /events/{id}/registrations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registrations.register"
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

	var req models.RegisterRequest
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

	reg, err := h.service.Register(r.Context(), eventID, userID, req)
	if err != nil {
		log.Info("registration rejected", slog.String("event_id", eventID), sl.Err(err))
		status, body := response.FromError(err, "could not register for event")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("registered", slog.String("event_id", eventID), slog.String("registration_id", reg.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(reg))
}
