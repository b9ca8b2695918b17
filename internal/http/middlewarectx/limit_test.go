package middlewarectx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
)

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(next)

	call := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/checkins", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("u1"))
	assert.Equal(t, http.StatusOK, call("u1"))
	assert.Equal(t, http.StatusTooManyRequests, call("u1"))

	// у другого пользователя своя квота
	assert.Equal(t, http.StatusOK, call("u2"))
}
