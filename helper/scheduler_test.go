package helper

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/utils"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	cutoff  time.Time
	expired []model.Booking
	err     error
}

func (f *fakeExpirer) ExpirePendingBookings(_ context.Context, cutoff time.Time) ([]model.Booking, error) {
	f.cutoff = cutoff
	return f.expired, f.err
}

type recordingMailer struct {
	sent map[string]utils.BookingCancelledData
}

func (m *recordingMailer) SendBookingCancelled(to string, data utils.BookingCancelledData) error {
	if m.sent == nil {
		m.sent = map[string]utils.BookingCancelledData{}
	}
	m.sent[to] = data
	return nil
}

func TestExpiryJobCancelsAndNotifies(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeExpirer{expired: []model.Booking{
		{DTO: model.DTO{ID: 3}, PublicCode: "AAA111", Email: "an@example.com", CustomerName: "An", TotalPrice: 150_000, Status: constants.BOOKING_CANCELLED},
		{DTO: model.DTO{ID: 4}, PublicCode: "BBB222", Status: constants.BOOKING_CANCELLED},
	}}
	mailer := &recordingMailer{}
	rdb, mock := redismock.NewClientMock()
	mock.ExpectPublish("booking:3", `{"bookingId":3,"status":"CANCELLED"}`).SetVal(0)
	mock.ExpectPublish("booking:4", `{"bookingId":4,"status":"CANCELLED"}`).SetVal(0)

	job := &ExpiryJob{
		Store:       store,
		Hold:        15 * time.Minute,
		Mailer:      mailer,
		Publisher:   NewStatusPublisher(rdb, nil),
		FrontendURL: "http://localhost:3000",
		now:         func() time.Time { return now },
	}

	n := job.Run(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, now.Add(-15*time.Minute), store.cutoff)

	require.Len(t, mailer.sent, 1)
	data := mailer.sent["an@example.com"]
	assert.Equal(t, "AAA111", data.BookingCode)
	assert.Equal(t, "http://localhost:3000/tickets/3", data.DetailLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpiryJobStoreError(t *testing.T) {
	job := &ExpiryJob{Store: &fakeExpirer{err: errors.New("db down")}, Hold: time.Minute}
	assert.Zero(t, job.Run(context.Background()))
}

func TestStartBookingExpiryScheduler(t *testing.T) {
	s, err := StartBookingExpiryScheduler(&ExpiryJob{Store: &fakeExpirer{}, Hold: time.Minute})
	require.NoError(t, err)
	defer s.Shutdown()

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "booking-expiry", jobs[0].Name())
}
