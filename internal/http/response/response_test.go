package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrUnauthorized, http.StatusForbidden},
		{models.ErrQuotaExceeded, http.StatusForbidden},
		{models.ErrFeatureGated, http.StatusForbidden},
		{models.ErrEventFull, http.StatusConflict},
		{models.ErrDuplicateRegistration, http.StatusConflict},
		{models.ErrDuplicateQRCode, http.StatusConflict},
		{models.ErrInvalidCode, http.StatusUnprocessableEntity},
		{models.ErrValidation, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("services.op: %w", fmt.Errorf("storage.op: %w", tt.err))

			status, body := FromError(wrapped, "internal error")

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, StatusError, body.Status)
			assert.NotContains(t, body.Error, "storage.op")
		})
	}
}

func TestFromError_ValidationMessage(t *testing.T) {
	err := fmt.Errorf("services.events.CreateEvent: %w: capacity must be positive", models.ErrValidation)

	_, body := FromError(err, "internal error")

	assert.Equal(t, "validation failed: capacity must be positive", body.Error)
}

func TestValidationError(t *testing.T) {
	req := models.RegisterRequest{AttendeeName: "", AttendeeEmail: "not-an-email"}

	err := validator.New().Struct(req)
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field AttendeeName is a required field")
	assert.Contains(t, resp.Error, "field AttendeeEmail must be a valid email")
}
