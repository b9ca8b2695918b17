package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eventhub/internal/cache"
	"github.com/magabrotheeeer/eventhub/internal/config"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

type RepoMock struct{ mock.Mock }

// CreateEvent возвращает из On(...).Return(organizer, err) организатора, против
// которого вызывается authorize, как это делает хранилище под блокировкой.
func (m *RepoMock) CreateEvent(ctx context.Context, event models.Event, authorize func(*models.User) error) (*models.Event, error) {
	args := m.Called(ctx, event)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if organizer, ok := args.Get(0).(*models.User); ok && authorize != nil {
		if err := authorize(organizer); err != nil {
			return nil, err
		}
	}
	return &event, nil
}

func (m *RepoMock) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *RepoMock) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *RepoMock) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *RepoMock) DeleteEvent(ctx context.Context, eventID, callerID string) (*models.Event, error) {
	args := m.Called(ctx, eventID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *RepoMock) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Registration), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) ListUpcomingEvents(ctx context.Context, from time.Time, categories []string, limit int) ([]*models.Event, error) {
	args := m.Called(ctx, from, categories, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *RepoMock) ListEventsByLocation(ctx context.Context, city, state string, from time.Time, limit int) ([]*models.Event, error) {
	args := m.Called(ctx, city, state, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *RepoMock) ListPopularEvents(ctx context.Context, from time.Time, limit int) ([]*models.Event, error) {
	args := m.Called(ctx, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *RepoMock) CountEventsByCategory(ctx context.Context, from time.Time) (map[string]int, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func newTestService(repo *RepoMock, c *CacheMock) *EventService {
	s := NewEventService(repo, c, time.Minute, newNoopLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func validRequest() models.CreateEventRequest {
	start := fixedNow.Add(72 * time.Hour)
	return models.CreateEventRequest{
		Title:        "  Go Meetup Lisboa ",
		Description:  "Talks",
		Category:     "tech",
		StartDate:    start,
		EndDate:      start.Add(2 * time.Hour),
		Timezone:     "Europe/Lisbon",
		LocationType: models.LocationPhysical,
		City:         "Lisbon",
		Country:      "Portugal",
		Capacity:     50,
		TicketType:   models.TicketFree,
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	price := 10.0
	tests := []struct {
		name      string
		modify    func(r *models.CreateEventRequest)
		organizer *models.User
		wantErr   error
		check     func(t *testing.T, e *models.Event)
	}{
		{
			name:      "бесплатный организатор",
			organizer: &models.User{ID: "org", FreeEventsCreated: 4},
			check: func(t *testing.T, e *models.Event) {
				assert.Equal(t, "go-meetup-lisboa-1775811600000", e.Slug)
				assert.Equal(t, "Go Meetup Lisboa", e.Title)
				assert.Equal(t, models.DefaultThemeColor, e.ThemeColor)
				assert.Equal(t, "org", e.OrganizerID)
				assert.NotEmpty(t, e.ID)
			},
		},
		{
			name:      "квота исчерпана",
			organizer: &models.User{ID: "org", FreeEventsCreated: models.FreeEventLimit},
			wantErr:   models.ErrQuotaExceeded,
		},
		{
			name:      "pro без квоты",
			organizer: &models.User{ID: "org", FreeEventsCreated: 40, HasPro: true},
			modify:    func(r *models.CreateEventRequest) { r.ThemeColor = "#ff0000" },
			check: func(t *testing.T, e *models.Event) {
				assert.Equal(t, "#ff0000", e.ThemeColor)
			},
		},
		{
			name:      "цвет темы без pro",
			organizer: &models.User{ID: "org"},
			modify:    func(r *models.CreateEventRequest) { r.ThemeColor = "#ff0000" },
			wantErr:   models.ErrFeatureGated,
		},
		{
			name:      "цвет по умолчанию в другом регистре",
			organizer: &models.User{ID: "org"},
			modify:    func(r *models.CreateEventRequest) { r.ThemeColor = strings.ToUpper(models.DefaultThemeColor) },
		},
		{
			name:      "платное событие с ценой",
			organizer: &models.User{ID: "org"},
			modify: func(r *models.CreateEventRequest) {
				r.TicketType = models.TicketPaid
				r.TicketPrice = &price
			},
			check: func(t *testing.T, e *models.Event) {
				require.NotNil(t, e.TicketPrice)
				assert.Equal(t, price, *e.TicketPrice)
			},
		},
		{
			name:      "пустое описание",
			organizer: &models.User{ID: "org"},
			modify:    func(r *models.CreateEventRequest) { r.Description = "" },
			check: func(t *testing.T, e *models.Event) {
				assert.Empty(t, e.Description)
			},
		},
		{
			name:      "цена бесплатного события отбрасывается",
			organizer: &models.User{ID: "org"},
			modify:    func(r *models.CreateEventRequest) { r.TicketPrice = &price },
			check: func(t *testing.T, e *models.Event) {
				assert.Nil(t, e.TicketPrice)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{}
			repo.On("CreateEvent", mock.Anything, mock.Anything).Return(tt.organizer, nil).Once()
			s := newTestService(repo, &CacheMock{})

			req := validRequest()
			if tt.modify != nil {
				tt.modify(&req)
			}
			event, err := s.CreateEvent(context.Background(), "org", req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, event)
			}
		})
	}
}

func TestEventService_CreateEvent_Validation(t *testing.T) {
	tests := map[string]func(r *models.CreateEventRequest){
		"пустое название":     func(r *models.CreateEventRequest) { r.Title = "   " },
		"нулевая вместимость": func(r *models.CreateEventRequest) { r.Capacity = 0 },
		"конец раньше начала": func(r *models.CreateEventRequest) { r.EndDate = r.StartDate.Add(-time.Minute) },
		"платное без цены":    func(r *models.CreateEventRequest) { r.TicketType = models.TicketPaid },
		"неизвестный билет":   func(r *models.CreateEventRequest) { r.TicketType = "vip" },
		"неизвестный формат":  func(r *models.CreateEventRequest) { r.LocationType = "hybrid" },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			repo := &RepoMock{}
			s := newTestService(repo, &CacheMock{})
			req := validRequest()
			modify(&req)

			_, err := s.CreateEvent(context.Background(), "org", req)

			assert.ErrorIs(t, err, models.ErrValidation)
			repo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
		})
	}
}

func TestEventService_CreateEvent_RetriesSlugCollision(t *testing.T) {
	repo := &RepoMock{}
	s := newTestService(repo, &CacheMock{})
	base := "go-meetup-lisboa-1775811600000"

	repo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e models.Event) bool { return e.Slug == base })).
		Return(nil, models.ErrSlugTaken).Once()
	repo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return strings.HasPrefix(e.Slug, base+"-") && len(e.Slug) == len(base)+9
	})).Return(&models.User{ID: "org"}, nil).Once()

	event, err := s.CreateEvent(context.Background(), "org", validRequest())

	require.NoError(t, err)
	assert.NotEqual(t, base, event.Slug)
	repo.AssertExpectations(t)
}

func TestEventService_GetEventBySlug(t *testing.T) {
	t.Run("из кеша", func(t *testing.T) {
		repo, c := &RepoMock{}, &CacheMock{}
		c.On("Get", mock.Anything, "event:slug:go", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(2).(*cachedEvent).Event = &models.Event{ID: "e1"}
		}).Return(true, nil).Once()

		event, err := newTestService(repo, c).GetEventBySlug(context.Background(), "go")

		require.NoError(t, err)
		assert.Equal(t, "e1", event.ID)
		repo.AssertNotCalled(t, "GetEventBySlug", mock.Anything, mock.Anything)
	})

	t.Run("пометка удаления в кеше", func(t *testing.T) {
		repo, c := &RepoMock{}, &CacheMock{}
		c.On("Get", mock.Anything, "event:slug:go", mock.Anything).Run(func(args mock.Arguments) {
			args.Get(2).(*cachedEvent).Deleted = true
		}).Return(true, nil).Once()

		_, err := newTestService(repo, c).GetEventBySlug(context.Background(), "go")

		assert.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "GetEventBySlug", mock.Anything, mock.Anything)
	})

	t.Run("промах кеша", func(t *testing.T) {
		repo, c := &RepoMock{}, &CacheMock{}
		e := &models.Event{ID: "e1", Slug: "go"}
		c.On("Get", mock.Anything, "event:slug:go", mock.Anything).Return(false, nil).Once()
		repo.On("GetEventBySlug", mock.Anything, "go").Return(e, nil).Once()
		c.On("SetNX", mock.Anything, "event:slug:go", cachedEvent{Event: e}, time.Minute).Return(true, nil).Once()

		event, err := newTestService(repo, c).GetEventBySlug(context.Background(), "go")

		require.NoError(t, err)
		assert.Equal(t, e, event)
		c.AssertExpectations(t)
	})

	t.Run("кеш недоступен", func(t *testing.T) {
		repo, c := &RepoMock{}, &CacheMock{}
		e := &models.Event{ID: "e1", Slug: "go"}
		c.On("Get", mock.Anything, "event:slug:go", mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetEventBySlug", mock.Anything, "go").Return(e, nil).Once()
		c.On("SetNX", mock.Anything, "event:slug:go", mock.Anything, time.Minute).Return(false, errors.New("redis down")).Once()

		event, err := newTestService(repo, c).GetEventBySlug(context.Background(), "go")

		require.NoError(t, err)
		assert.Equal(t, "e1", event.ID)
	})

	t.Run("не найдено", func(t *testing.T) {
		repo, c := &RepoMock{}, &CacheMock{}
		c.On("Get", mock.Anything, "event:slug:none", mock.Anything).Return(false, nil).Once()
		repo.On("GetEventBySlug", mock.Anything, "none").Return(nil, models.ErrNotFound).Once()

		_, err := newTestService(repo, c).GetEventBySlug(context.Background(), "none")

		assert.ErrorIs(t, err, models.ErrNotFound)
		c.AssertNotCalled(t, "SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

// Чтение из базы происходит до удаления, а заполнение кеша после него.
func TestEventService_GetEventBySlug_DeleteDuringMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc, err := cache.InitServer(context.Background(), config.RedisConnection{RedisAddress: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	repo := &RepoMock{}
	s := NewEventService(repo, rc, time.Minute, newNoopLogger())
	e := &models.Event{ID: "e1", Slug: "go", OrganizerID: "org"}

	repo.On("DeleteEvent", mock.Anything, "e1", "org").Return(e, nil).Once()
	repo.On("GetEventBySlug", mock.Anything, "go").Run(func(mock.Arguments) {
		require.NoError(t, s.DeleteEvent(context.Background(), "e1", "org"))
	}).Return(e, nil).Once()

	stale, err := s.GetEventBySlug(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "e1", stale.ID)

	_, err = s.GetEventBySlug(context.Background(), "go")
	assert.ErrorIs(t, err, models.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestEventService_DeleteEvent(t *testing.T) {
	repo, c := &RepoMock{}, &CacheMock{}
	repo.On("DeleteEvent", mock.Anything, "e1", "org").Return(&models.Event{ID: "e1", Slug: "go"}, nil).Once()
	repo.On("DeleteEvent", mock.Anything, "e1", "intruder").Return(nil, models.ErrUnauthorized).Once()
	c.On("Set", mock.Anything, "event:slug:go", cachedEvent{Deleted: true}, time.Minute).Return(nil).Once()
	s := newTestService(repo, c)

	require.NoError(t, s.DeleteEvent(context.Background(), "e1", "org"))
	assert.ErrorIs(t, s.DeleteEvent(context.Background(), "e1", "intruder"), models.ErrUnauthorized)

	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestEventService_GetDashboard(t *testing.T) {
	repo := &RepoMock{}
	event := &models.Event{
		ID: "e1", OrganizerID: "org", Capacity: 20, Timezone: "UTC",
		StartDate: fixedNow.Add(5 * time.Hour), EndDate: fixedNow.Add(7 * time.Hour),
	}
	regs := make([]*models.Registration, 0, 10)
	for i := 0; i < 10; i++ {
		regs = append(regs, &models.Registration{Status: models.StatusConfirmed, CheckedIn: i < 4})
	}
	repo.On("GetEvent", mock.Anything, "e1").Return(event, nil)
	repo.On("ListRegistrationsByEvent", mock.Anything, "e1").Return(regs, nil).Once()
	s := newTestService(repo, &CacheMock{})

	d, err := s.GetDashboard(context.Background(), "e1", "org")
	require.NoError(t, err)
	assert.Equal(t, 40, d.Stats.CheckInRate)
	assert.Equal(t, 6, d.Stats.PendingCount)
	assert.Equal(t, 5, d.Stats.HoursUntilEvent)
	assert.True(t, d.Stats.IsEventToday)

	_, err = s.GetDashboard(context.Background(), "e1", "someone")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = s.GetEventRegistrations(context.Background(), "e1", "someone")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestEventService_GetEventRegistrations_NotFound(t *testing.T) {
	repo := &RepoMock{}
	repo.On("GetEvent", mock.Anything, "missing").Return(nil, models.ErrNotFound).Once()

	_, err := newTestService(repo, &CacheMock{}).GetEventRegistrations(context.Background(), "missing", "org")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
