package helper

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/utils"
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type BookingExpirer interface {
	ExpirePendingBookings(ctx context.Context, cutoff time.Time) ([]model.Booking, error)
}

type CancellationMailer interface {
	SendBookingCancelled(to string, data utils.BookingCancelledData) error
}

// ExpiryJob cancels PENDING bookings whose hold has run out.
type ExpiryJob struct {
	Store       BookingExpirer
	Hold        time.Duration
	Mailer      CancellationMailer
	Publisher   *StatusPublisher
	FrontendURL string
	Log         *zap.Logger

	now func() time.Time
}

func (j *ExpiryJob) Run(ctx context.Context) int {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	log := j.Log
	if log == nil {
		log = zap.NewNop()
	}

	expired, err := j.Store.ExpirePendingBookings(ctx, now().Add(-j.Hold))
	if err != nil {
		log.Error("expire pending bookings failed", zap.Error(err))
		return 0
	}

	for _, booking := range expired {
		_ = j.Publisher.Publish(ctx, BookingStatusEvent{BookingId: booking.ID, Status: constants.BOOKING_CANCELLED})
		if j.Mailer != nil && booking.Email != "" {
			_ = j.Mailer.SendBookingCancelled(booking.Email, utils.BookingCancelledData{
				BookingCode:  booking.PublicCode,
				CustomerName: booking.CustomerName,
				TotalAmount:  booking.TotalPrice,
				DetailLink:   fmt.Sprintf("%s/tickets/%d", j.FrontendURL, booking.ID),
			})
		}
	}
	if len(expired) > 0 {
		log.Info("expired pending bookings", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// StartBookingExpiryScheduler runs the job every minute. The caller owns
// the returned scheduler and must shut it down.
func StartBookingExpiryScheduler(job *ExpiryJob) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.FixedZone("ICT", 7*3600)),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			job.Run(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("booking-expiry"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	return s, nil
}
