// Package settlement turns a confirmed payment into a durable, exactly-once
// state change: the booking becomes CONFIRMED and the customer's loyalty
// points are credited in the same transaction.
package settlement

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/helper"
	"cinema_ticketing/model"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// Store opens transactions over the booking and customer tables.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the data access available inside one settlement transaction.
// FindBooking must lock the row until the transaction ends so that only one
// concurrent caller can observe it as PENDING.
type Tx interface {
	FindBooking(ctx context.Context, id uint) (*model.Booking, error)
	// UpdateBookingStatus moves the booking from one status to another and
	// reports whether a row was changed.
	UpdateBookingStatus(ctx context.Context, id uint, from, to string) (bool, error)
	SumConfirmedBookingAmounts(ctx context.Context, customerID uint) (float64, error)
	IncrementLoyaltyPoints(ctx context.Context, customerID uint, points int64) error
}

// Result describes what a Settle call did.
type Result struct {
	Settled bool
	// Status is the booking status observed inside the transaction.
	Status  string
	Loyalty model.LoyaltyResult
}

type Settler struct {
	store Store
	tiers []model.LoyaltyTier
	log   *zap.Logger
}

type Option func(*Settler)

func WithTiers(tiers []model.LoyaltyTier) Option {
	return func(s *Settler) { s.tiers = tiers }
}

func New(store Store, log *zap.Logger, opts ...Option) *Settler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Settler{store: store, tiers: helper.DefaultLoyaltyTiers, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle confirms a PENDING booking and credits loyalty points. A booking in
// any other status is left untouched and reported as not settled, so
// repeated or concurrent callbacks for the same booking are harmless.
func (s *Settler) Settle(ctx context.Context, bookingID uint) (bool, error) {
	res, err := s.SettleDetailed(ctx, bookingID)
	return res.Settled, err
}

func (s *Settler) SettleDetailed(ctx context.Context, bookingID uint) (Result, error) {
	var res Result
	err := s.store.Transaction(ctx, func(tx Tx) error {
		res = Result{}

		booking, err := tx.FindBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		res.Status = booking.Status
		if booking.Status != constants.BOOKING_PENDING {
			return nil
		}

		if booking.CustomerID != nil {
			prior, err := tx.SumConfirmedBookingAmounts(ctx, *booking.CustomerID)
			if err != nil {
				return fmt.Errorf("sum confirmed bookings: %w", err)
			}
			res.Loyalty = helper.CalculatePointsWithTiers(s.tiers, booking.TotalPrice, prior)
		}

		changed, err := tx.UpdateBookingStatus(ctx, booking.ID, constants.BOOKING_PENDING, constants.BOOKING_CONFIRMED)
		if err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}
		if !changed {
			res.Loyalty = model.LoyaltyResult{}
			return nil
		}

		if booking.CustomerID != nil && res.Loyalty.Points > 0 {
			if err := tx.IncrementLoyaltyPoints(ctx, *booking.CustomerID, res.Loyalty.Points); err != nil {
				return fmt.Errorf("credit loyalty points: %w", err)
			}
		}
		res.Settled = true
		res.Status = constants.BOOKING_CONFIRMED
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Settled {
		s.log.Info("booking settled",
			zap.Uint("bookingId", bookingID),
			zap.Int64("points", res.Loyalty.Points),
			zap.String("tier", res.Loyalty.TierName))
	} else {
		s.log.Info("settlement skipped",
			zap.Uint("bookingId", bookingID),
			zap.String("status", res.Status))
	}
	return res, nil
}
