// Package cancel реализует HTTP-обработчик отмены регистрации.
// Отменить регистрацию может только её владелец. Повторная отмена не считается ошибкой.
package cancel

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

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает отмену регистрации.
type Service interface {
	Cancel(ctx context.Context, registrationID, callerID string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить регистрацию
// @Description Отменяет регистрацию и освобождает место на событии.
// @Tags Registrations
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID регистрации"
// @Success 200 {object} response.Response "Регистрация отменена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Регистрация принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Регистрация не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /registrations/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registrations.cancel"
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

	id := chi.URLParam(r, "id")
	if err := h.service.Cancel(r.Context(), id, userID); err != nil {
		log.Error("failed to cancel registration", slog.String("registration_id", id), sl.Err(err))
		status, body := response.FromError(err, "failed to cancel registration")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("registration cancelled", slog.String("registration_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"success": true,
	}))
}
