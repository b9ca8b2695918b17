// Package mine реализует HTTP-обработчик списка билетов текущего пользователя.
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

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение регистраций пользователя.
type Service interface {
	ListForUser(ctx context.Context, userID string) ([]*models.RegistrationWithEvent, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои билеты
// @Description Регистрации текущего пользователя вместе с событиями, новые первыми.
// @Tags Registrations
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список регистраций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /registrations/mine [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registrations.mine"
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

	regs, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to list registrations", sl.Err(err))
		status, body := response.FromError(err, "could not list registrations")
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if regs == nil {
		regs = []*models.RegistrationWithEvent{}
	}

	render.JSON(w, r, response.StatusOKWithData(regs))
}
