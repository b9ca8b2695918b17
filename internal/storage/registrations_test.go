package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

func TestRegisterForEvent_Success(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	e := f.CreateEvent(f.CreateUser("org").ID, 3)
	attendee := f.CreateUser("alice")

	rw := f.Register(e.ID, attendee.ID)

	assert.Equal(t, models.StatusConfirmed, rw.Status)
	assert.False(t, rw.CheckedIn)
	assert.Nil(t, rw.CheckedInAt)
	require.NotNil(t, rw.Event)
	assert.Equal(t, 1, rw.Event.RegistrationCount)
	assert.Equal(t, 1, v.RegistrationCount(e.ID))
	assert.Equal(t, 1, v.ConfirmedRows(e.ID))
}

func TestRegisterForEvent_Errors(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	ctx := context.Background()
	e := f.CreateEvent(f.CreateUser("org").ID, 1)
	first := f.CreateUser("first")
	second := f.CreateUser("second")
	f.Register(e.ID, first.ID)

	t.Run("повторная регистрация на заполненное событие", func(t *testing.T) {
		_, err := s.RegisterForEvent(ctx, f.NewRegistration(e.ID, first.ID))
		assert.ErrorIs(t, err, models.ErrEventFull)
	})

	t.Run("нет мест", func(t *testing.T) {
		_, err := s.RegisterForEvent(ctx, f.NewRegistration(e.ID, second.ID))
		assert.ErrorIs(t, err, models.ErrEventFull)
	})

	t.Run("событие не найдено", func(t *testing.T) {
		_, err := s.RegisterForEvent(ctx, f.NewRegistration(uuid.NewString(), second.ID))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	assert.Equal(t, 1, v.RegistrationCount(e.ID))
}

func TestRegisterForEvent_DuplicateWhenSeatsRemain(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	e := f.CreateEvent(f.CreateUser("org").ID, 5)
	attendee := f.CreateUser("alice")
	f.Register(e.ID, attendee.ID)

	_, err := s.RegisterForEvent(context.Background(), f.NewRegistration(e.ID, attendee.ID))

	assert.ErrorIs(t, err, models.ErrDuplicateRegistration)
	assert.Equal(t, 1, v.RegistrationCount(e.ID))
	assert.Equal(t, 1, v.RowsFor(e.ID, attendee.ID))
}

func TestRegisterForEvent_CancelledBlocksReRegistration(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	ctx := context.Background()
	e := f.CreateEvent(f.CreateUser("org").ID, 5)
	attendee := f.CreateUser("alice")
	rw := f.Register(e.ID, attendee.ID)

	_, changed, err := s.CancelRegistration(ctx, rw.ID, attendee.ID)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = s.RegisterForEvent(ctx, f.NewRegistration(e.ID, attendee.ID))

	assert.ErrorIs(t, err, models.ErrDuplicateRegistration)
	assert.Equal(t, 0, v.RegistrationCount(e.ID))
	assert.Equal(t, 1, v.RowsFor(e.ID, attendee.ID))
}

func TestRegisterForEvent_QRCodeCollision(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	e := f.CreateEvent(f.CreateUser("org").ID, 5)
	existing := f.Register(e.ID, f.CreateUser("alice").ID)

	reg := f.NewRegistration(e.ID, f.CreateUser("bob").ID)
	reg.QRCode = existing.QRCode
	_, err := s.RegisterForEvent(context.Background(), reg)

	assert.ErrorIs(t, err, models.ErrDuplicateQRCode)
	assert.Equal(t, 1, v.RegistrationCount(e.ID))
}

func TestRegisterForEvent_ConcurrentCapacity(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)

	const (
		capacity  = 5
		attendees = 20
	)
	e := f.CreateEvent(f.CreateUser("org").ID, capacity)
	regs := make([]models.Registration, attendees)
	for i := range regs {
		regs[i] = f.NewRegistration(e.ID, f.CreateUser("attendee").ID)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		full      int
		other     []error
	)
	start := make(chan struct{})
	for _, reg := range regs {
		wg.Add(1)
		go func(reg models.Registration) {
			defer wg.Done()
			<-start
			_, err := s.RegisterForEvent(context.Background(), reg)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, models.ErrEventFull):
				full++
			default:
				other = append(other, err)
			}
		}(reg)
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, capacity, successes)
	assert.Equal(t, attendees-capacity, full)
	assert.Equal(t, capacity, v.RegistrationCount(e.ID))
	assert.Equal(t, capacity, v.ConfirmedRows(e.ID))
}

func TestRegisterForEvent_ConcurrentSameUser(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	e := f.CreateEvent(f.CreateUser("org").ID, 10)
	attendee := f.CreateUser("alice")

	const attempts = 8
	regs := make([]models.Registration, attempts)
	for i := range regs {
		regs[i] = f.NewRegistration(e.ID, attendee.ID)
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for _, reg := range regs {
		wg.Add(1)
		go func(reg models.Registration) {
			defer wg.Done()
			_, err := s.RegisterForEvent(context.Background(), reg)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, models.ErrDuplicateRegistration) {
				duplicates++
			}
		}(reg)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)
	assert.Equal(t, 1, v.RowsFor(e.ID, attendee.ID))
	assert.Equal(t, 1, v.RegistrationCount(e.ID))
}

func TestCancelRegistration(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	ctx := context.Background()
	e := f.CreateEvent(f.CreateUser("org").ID, 2)
	attendee := f.CreateUser("alice")
	rw := f.Register(e.ID, attendee.ID)

	cancelled, changed, err := s.CancelRegistration(ctx, rw.ID, attendee.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, cancelled.Event.RegistrationCount)

	again, changed, err := s.CancelRegistration(ctx, rw.ID, attendee.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.StatusCancelled, again.Status)

	assert.Equal(t, 0, v.RegistrationCount(e.ID))
	assert.Equal(t, 0, v.ConfirmedRows(e.ID))
}

func TestCancelRegistration_Errors(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	v := NewTestVerification(t, s)
	ctx := context.Background()
	e := f.CreateEvent(f.CreateUser("org").ID, 2)
	attendee := f.CreateUser("alice")
	rw := f.Register(e.ID, attendee.ID)

	_, _, err := s.CancelRegistration(ctx, uuid.NewString(), attendee.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, _, err = s.CancelRegistration(ctx, rw.ID, f.CreateUser("mallory").ID)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.Equal(t, 1, v.RegistrationCount(e.ID))
}

func TestCancelRegistration_FreesSeat(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	ctx := context.Background()
	e := f.CreateEvent(f.CreateUser("org").ID, 1)
	alice := f.CreateUser("alice")
	bob := f.CreateUser("bob")
	rw := f.Register(e.ID, alice.ID)

	_, err := s.RegisterForEvent(ctx, f.NewRegistration(e.ID, bob.ID))
	require.ErrorIs(t, err, models.ErrEventFull)

	_, _, err = s.CancelRegistration(ctx, rw.ID, alice.ID)
	require.NoError(t, err)

	_, err = s.RegisterForEvent(ctx, f.NewRegistration(e.ID, bob.ID))
	assert.NoError(t, err)
}

func TestCheckIn(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	ctx := context.Background()
	organizer := f.CreateUser("org")
	e := f.CreateEvent(organizer.ID, 5)
	rw := f.Register(e.ID, f.CreateUser("alice").ID)
	at := time.Now().UTC().Truncate(time.Second)

	reg, already, err := s.CheckIn(ctx, rw.QRCode, organizer.ID, at)
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, reg.CheckedIn)
	require.NotNil(t, reg.CheckedInAt)
	assert.True(t, at.Equal(*reg.CheckedInAt))

	reg, already, err = s.CheckIn(ctx, rw.QRCode, organizer.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, already)
	assert.True(t, at.Equal(*reg.CheckedInAt))
}

func TestCheckIn_Errors(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	ctx := context.Background()
	organizer := f.CreateUser("org")
	e := f.CreateEvent(organizer.ID, 5)
	alice := f.CreateUser("alice")
	rw := f.Register(e.ID, alice.ID)
	cancelled := f.Register(e.ID, f.CreateUser("bob").ID)
	_, _, err := s.CancelRegistration(ctx, cancelled.ID, cancelled.UserID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		code      string
		organizer string
		wantErr   error
	}{
		{name: "неизвестный код", code: "EVT-0-UNKNOWN00", organizer: organizer.ID, wantErr: models.ErrInvalidCode},
		{name: "отменённая регистрация", code: cancelled.QRCode, organizer: organizer.ID, wantErr: models.ErrInvalidCode},
		{name: "чужое событие", code: rw.QRCode, organizer: alice.ID, wantErr: models.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.CheckIn(ctx, tt.code, tt.organizer, time.Now())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	reg, err := s.GetRegistration(ctx, rw.ID)
	require.NoError(t, err)
	assert.False(t, reg.CheckedIn)
}

func TestCheckIn_ConcurrentScans(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	organizer := f.CreateUser("org")
	e := f.CreateEvent(organizer.ID, 5)
	rw := f.Register(e.ID, f.CreateUser("alice").ID)

	const scans = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fresh int
		again int
	)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, already, err := s.CheckIn(context.Background(), rw.QRCode, organizer.ID, time.Now())
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if already {
				again++
			} else {
				fresh++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fresh)
	assert.Equal(t, scans-1, again)
}

func TestListRegistrations(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	ctx := context.Background()
	organizer := f.CreateUser("org")
	alice := f.CreateUser("alice")
	first := f.CreateEvent(organizer.ID, 5)
	second := f.CreateEvent(organizer.ID, 5)

	older := f.NewRegistration(first.ID, alice.ID)
	older.RegisteredAt = time.Now().Add(-time.Hour).UTC()
	_, err := s.RegisterForEvent(ctx, older)
	require.NoError(t, err)
	newer := f.Register(second.ID, alice.ID)
	f.Register(second.ID, f.CreateUser("bob").ID)

	mine, err := s.ListRegistrationsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, second.Title, mine[0].Event.Title)
	assert.Equal(t, older.ID, mine[1].ID)

	byEvent, err := s.ListRegistrationsByEvent(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)

	got, err := s.GetRegistrationByEventAndUser(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = s.GetRegistrationByEventAndUser(ctx, first.ID, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReminders(t *testing.T) {
	s := newTestStorage(t)
	f := NewTestDataFactory(t, s)
	ctx := context.Background()
	e := f.CreateEvent(f.CreateUser("org").ID, 5)
	rw := f.Register(e.ID, f.CreateUser("alice").ID)
	cancelled := f.Register(e.ID, f.CreateUser("bob").ID)
	_, _, err := s.CancelRegistration(ctx, cancelled.ID, cancelled.UserID)
	require.NoError(t, err)

	now := time.Now()
	due, err := s.FindRemindersDue(ctx, now, now.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, rw.ID, due[0].RegistrationID)
	assert.Equal(t, e.Title, due[0].EventTitle)

	none, err := s.FindRemindersDue(ctx, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, s.MarkReminderSent(ctx, rw.ID, now))
	due, err = s.FindRemindersDue(ctx, now, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)

	assert.ErrorIs(t, s.MarkReminderSent(ctx, uuid.NewString(), now), models.ErrNotFound)
}
