package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/eventhub/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CheckIn(ctx context.Context, qrCode, organizerID string, at time.Time) (*models.Registration, bool, error) {
	args := m.Called(ctx, qrCode, organizerID, at)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Registration), args.Bool(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCheckInService_CheckIn(t *testing.T) {
	now := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	checkedIn := &models.Registration{ID: "r1", EventID: "e1", Status: models.StatusConfirmed, CheckedIn: true, CheckedInAt: &now}

	tests := []struct {
		name        string
		code        string
		setupMocks  func(r *RepoMock)
		wantErr     error
		wantSuccess bool
		wantMessage string
	}{
		{
			name: "первое сканирование",
			code: " EVT-1-ABC ",
			setupMocks: func(r *RepoMock) {
				r.On("CheckIn", mock.Anything, "EVT-1-ABC", "org", now).Return(checkedIn, false, nil).Once()
			},
			wantSuccess: true,
			wantMessage: MessageCheckedIn,
		},
		{
			name: "повторное сканирование",
			code: "EVT-1-ABC",
			setupMocks: func(r *RepoMock) {
				r.On("CheckIn", mock.Anything, "EVT-1-ABC", "org", now).Return(checkedIn, true, nil).Once()
			},
			wantSuccess: false,
			wantMessage: MessageAlreadyCheckedIn,
		},
		{
			name:       "пустой код",
			code:       "  ",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrInvalidCode,
		},
		{
			name: "неизвестный код",
			code: "EVT-0-NONE",
			setupMocks: func(r *RepoMock) {
				r.On("CheckIn", mock.Anything, "EVT-0-NONE", "org", now).Return(nil, false, models.ErrInvalidCode).Once()
			},
			wantErr: models.ErrInvalidCode,
		},
		{
			name: "не организатор",
			code: "EVT-1-ABC",
			setupMocks: func(r *RepoMock) {
				r.On("CheckIn", mock.Anything, "EVT-1-ABC", "org", now).Return(nil, false, models.ErrUnauthorized).Once()
			},
			wantErr: models.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{}
			tt.setupMocks(repo)
			s := NewCheckInService(repo, newNoopLogger())
			s.now = func() time.Time { return now }

			result, err := s.CheckIn(context.Background(), tt.code, "org")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantSuccess, result.Success)
				assert.Equal(t, tt.wantMessage, result.Message)
				assert.True(t, result.Registration.CheckedIn)
			}
			repo.AssertExpectations(t)
		})
	}
}
