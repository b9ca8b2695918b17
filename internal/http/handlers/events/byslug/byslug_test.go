package byslug

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	args := m.Called(ctx, slug)
	ev, _ := args.Get(0).(*models.Event)
	return ev, args.Error(1)
}

func TestBySlugHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		slug           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "событие найдено",
			slug: "go-meetup-1",
			setupMock: func(m *MockService) {
				m.On("GetEventBySlug", mock.Anything, "go-meetup-1").
					Return(&models.Event{ID: "e1", Slug: "go-meetup-1", RegistrationCount: 3}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"registrationCount":3`,
		},
		{
			name:           "пустой slug",
			slug:           "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid slug"`,
		},
		{
			name: "событие не найдено",
			slug: "missing",
			setupMock: func(m *MockService) {
				m.On("GetEventBySlug", mock.Anything, "missing").
					Return(nil, fmt.Errorf("storage.GetEventBySlug: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name: "ошибка сервиса",
			slug: "broken",
			setupMock: func(m *MockService) {
				m.On("GetEventBySlug", mock.Anything, "broken").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not get event"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/events/by-slug/"+tt.slug, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("slug", tt.slug)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
