// Package checkin реализует HTTP-обработчик сканирования QR-кода на входе.
//
// Первое сканирование отмечает посетителя, повторное возвращает success=false
// без ошибки. Неизвестный или отменённый код отдаётся как 422.
package checkin

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

// Handler обрабатывает сканирования билетов организатором.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает отметку посетителя по коду.
type Service interface {
	CheckIn(ctx context.Context, qrCode, callerID string) (*models.CheckInResult, error)
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
// @Summary Отметить посетителя
// @Description Отмечает посетителя по QR-коду билета. Доступно только организатору события.
// @Tags Check-in
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CheckInRequest true "QR-код билета"
// @Success 200 {object} response.Response "Результат сканирования"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Вызывающий не организатор"
// @Failure 422 {object} response.ErrorResponse "Неизвестный или отменённый код"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /checkins [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkin"
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

	var req models.CheckInRequest
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
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErrs))
		return
	}

	result, err := h.service.CheckIn(r.Context(), req.QRCode, userID)
	if err != nil {
		log.Info("check-in rejected", sl.Err(err))
		status, body := response.FromError(err, "could not check in")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("qr code scanned", slog.Bool("success", result.Success))
	render.JSON(w, r, response.StatusOKWithData(result))
}
