package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eventhub/internal/lib/debounce"
	"github.com/magabrotheeeer/eventhub/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterForEvent(ctx context.Context, reg models.Registration) (*models.RegistrationWithEvent, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegistrationWithEvent), args.Error(1)
}

func (m *RepoMock) CancelRegistration(ctx context.Context, registrationID, callerID string) (*models.RegistrationWithEvent, bool, error) {
	args := m.Called(ctx, registrationID, callerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.RegistrationWithEvent), args.Bool(1), args.Error(2)
}

func (m *RepoMock) GetRegistrationByEventAndUser(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *RepoMock) ListRegistrationsByUser(ctx context.Context, userID string) ([]*models.RegistrationWithEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RegistrationWithEvent), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

// immediate выполняет отложенные вызовы сразу.
type immediate struct{ keys []string }

func (d *immediate) Trigger(key string, fn func()) {
	d.keys = append(d.keys, key)
	fn()
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func registered(reg models.Registration, count int) *models.RegistrationWithEvent {
	return &models.RegistrationWithEvent{
		Registration: reg,
		Event:        &models.Event{ID: reg.EventID, Slug: "go-meetup", Title: "Go Meetup", RegistrationCount: count},
	}
}

func TestRegistrationService_Register(t *testing.T) {
	repo, c, pub, d := &RepoMock{}, &CacheMock{}, &PublisherMock{}, &immediate{}
	s := NewRegistrationService(repo, c, d, pub, newNoopLogger())
	s.now = func() time.Time { return fixedNow }

	repo.On("RegisterForEvent", mock.Anything, mock.MatchedBy(func(r models.Registration) bool {
		return r.EventID == "e1" && r.UserID == "u1" &&
			r.AttendeeName == "Alice" && r.AttendeeEmail == "alice@example.com" &&
			strings.HasPrefix(r.QRCode, "EVT-1775811600000-") &&
			r.Status == models.StatusConfirmed && r.RegisteredAt.Equal(fixedNow)
	})).Return(registered(models.Registration{ID: "r1", EventID: "e1", UserID: "u1", QRCode: "EVT-1"}, 1), nil).Once()
	c.On("Invalidate", mock.Anything, []string{"event:slug:go-meetup"}).Return(nil).Once()
	pub.On("Publish", mock.Anything, models.RoutingTicketIssued, mock.MatchedBy(func(n models.TicketNotification) bool {
		return n.RegistrationID == "r1" && n.QRCode == "EVT-1" && n.EventTitle == "Go Meetup"
	})).Return(nil).Once()

	reg, err := s.Register(context.Background(), "e1", "u1", models.RegisterRequest{
		AttendeeName: " Alice ", AttendeeEmail: "alice@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "r1", reg.ID)
	assert.Equal(t, []string{"event:slug:go-meetup"}, d.keys)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRegistrationService_Register_Errors(t *testing.T) {
	for _, wantErr := range []error{models.ErrNotFound, models.ErrEventFull, models.ErrDuplicateRegistration, models.ErrDuplicateQRCode} {
		t.Run(wantErr.Error(), func(t *testing.T) {
			repo, c, pub, d := &RepoMock{}, &CacheMock{}, &PublisherMock{}, &immediate{}
			s := NewRegistrationService(repo, c, d, pub, newNoopLogger())
			repo.On("RegisterForEvent", mock.Anything, mock.Anything).Return(nil, wantErr).Once()

			_, err := s.Register(context.Background(), "e1", "u1", models.RegisterRequest{AttendeeName: "A", AttendeeEmail: "a@b.c"})

			assert.ErrorIs(t, err, wantErr)
			assert.Empty(t, d.keys)
			pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRegistrationService_Register_Validation(t *testing.T) {
	repo := &RepoMock{}
	s := NewRegistrationService(repo, &CacheMock{}, &immediate{}, nil, newNoopLogger())

	_, err := s.Register(context.Background(), "e1", "u1", models.RegisterRequest{AttendeeName: " ", AttendeeEmail: "a@b.c"})

	assert.ErrorIs(t, err, models.ErrValidation)
	repo.AssertNotCalled(t, "RegisterForEvent", mock.Anything, mock.Anything)
}

func TestRegistrationService_Register_PublishFailureIsNotAnError(t *testing.T) {
	repo, c, pub := &RepoMock{}, &CacheMock{}, &PublisherMock{}
	s := NewRegistrationService(repo, c, &immediate{}, pub, newNoopLogger())
	repo.On("RegisterForEvent", mock.Anything, mock.Anything).
		Return(registered(models.Registration{ID: "r1", EventID: "e1"}, 1), nil).Once()
	c.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
	pub.On("Publish", mock.Anything, models.RoutingTicketIssued, mock.Anything).Return(errors.New("channel closed")).Once()

	reg, err := s.Register(context.Background(), "e1", "u1", models.RegisterRequest{AttendeeName: "A", AttendeeEmail: "a@b.c"})

	require.NoError(t, err)
	assert.Equal(t, "r1", reg.ID)
}

func TestRegistrationService_Register_WithoutPublisher(t *testing.T) {
	repo, c := &RepoMock{}, &CacheMock{}
	s := NewRegistrationService(repo, c, &immediate{}, nil, newNoopLogger())
	repo.On("RegisterForEvent", mock.Anything, mock.Anything).
		Return(registered(models.Registration{ID: "r1", EventID: "e1"}, 1), nil).Once()
	c.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.Register(context.Background(), "e1", "u1", models.RegisterRequest{AttendeeName: "A", AttendeeEmail: "a@b.c"})

	require.NoError(t, err)
}

func TestRegistrationService_InvalidationIsCoalesced(t *testing.T) {
	repo, c := &RepoMock{}, &CacheMock{}
	d := debounce.New(time.Hour)
	s := NewRegistrationService(repo, c, d, nil, newNoopLogger())
	repo.On("RegisterForEvent", mock.Anything, mock.Anything).
		Return(registered(models.Registration{ID: "r", EventID: "e1"}, 1), nil).Times(5)
	c.On("Invalidate", mock.Anything, []string{"event:slug:go-meetup"}).Return(nil).Once()

	for i := 0; i < 5; i++ {
		_, err := s.Register(context.Background(), "e1", "u", models.RegisterRequest{AttendeeName: "A", AttendeeEmail: "a@b.c"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, d.Pending())
	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)

	d.Flush()

	c.AssertExpectations(t)
}

func TestRegistrationService_Cancel(t *testing.T) {
	reg := models.Registration{ID: "r1", EventID: "e1", UserID: "u1", Status: models.StatusCancelled}

	t.Run("первая отмена", func(t *testing.T) {
		repo, c, pub := &RepoMock{}, &CacheMock{}, &PublisherMock{}
		s := NewRegistrationService(repo, c, &immediate{}, pub, newNoopLogger())
		repo.On("CancelRegistration", mock.Anything, "r1", "u1").Return(registered(reg, 0), true, nil).Once()
		c.On("Invalidate", mock.Anything, []string{"event:slug:go-meetup"}).Return(nil).Once()
		pub.On("Publish", mock.Anything, models.RoutingTicketCancelled, mock.Anything).Return(nil).Once()

		require.NoError(t, s.Cancel(context.Background(), "r1", "u1"))
		c.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("повторная отмена", func(t *testing.T) {
		repo, c, pub, d := &RepoMock{}, &CacheMock{}, &PublisherMock{}, &immediate{}
		s := NewRegistrationService(repo, c, d, pub, newNoopLogger())
		repo.On("CancelRegistration", mock.Anything, "r1", "u1").Return(registered(reg, 0), false, nil).Once()

		require.NoError(t, s.Cancel(context.Background(), "r1", "u1"))
		assert.Empty(t, d.keys)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("чужая регистрация", func(t *testing.T) {
		repo := &RepoMock{}
		s := NewRegistrationService(repo, &CacheMock{}, &immediate{}, nil, newNoopLogger())
		repo.On("CancelRegistration", mock.Anything, "r1", "u2").Return(nil, false, models.ErrUnauthorized).Once()

		assert.ErrorIs(t, s.Cancel(context.Background(), "r1", "u2"), models.ErrUnauthorized)
	})
}

func TestRegistrationService_CheckRegistration(t *testing.T) {
	repo := &RepoMock{}
	s := NewRegistrationService(repo, &CacheMock{}, &immediate{}, nil, newNoopLogger())
	repo.On("GetRegistrationByEventAndUser", mock.Anything, "e1", "u1").Return(&models.Registration{ID: "r1"}, nil).Once()
	repo.On("GetRegistrationByEventAndUser", mock.Anything, "e1", "u2").Return(nil, models.ErrNotFound).Once()
	repo.On("GetRegistrationByEventAndUser", mock.Anything, "e1", "u3").Return(nil, errors.New("db down")).Once()

	reg, err := s.CheckRegistration(context.Background(), "e1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "r1", reg.ID)

	reg, err = s.CheckRegistration(context.Background(), "e1", "u2")
	require.NoError(t, err)
	assert.Nil(t, reg)

	_, err = s.CheckRegistration(context.Background(), "e1", "u3")
	assert.Error(t, err)
}

func TestRegistrationService_ListForUser(t *testing.T) {
	repo := &RepoMock{}
	s := NewRegistrationService(repo, &CacheMock{}, &immediate{}, nil, newNoopLogger())
	list := []*models.RegistrationWithEvent{registered(models.Registration{ID: "r2"}, 1), registered(models.Registration{ID: "r1"}, 1)}
	repo.On("ListRegistrationsByUser", mock.Anything, "u1").Return(list, nil).Once()

	got, err := s.ListForUser(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, list, got)
}
