package settlementtest

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"context"
	"time"
)

// RacingStore runs transactions without row locks or isolation: reads see
// whatever is committed at that moment and every write lands immediately.
// Only UpdateBookingStatus is atomic, as a compare-and-set on the status.
// It lets two settlements read the same PENDING booking.
type RacingStore struct {
	*Store

	// AfterRead runs each time a transaction has read a booking.
	AfterRead func()
}

func NewRacingStore(s *Store) *RacingStore {
	return &RacingStore{Store: s}
}

func (r *RacingStore) Transaction(_ context.Context, fn func(tx settlement.Tx) error) error {
	r.Transactions.Add(1)
	return fn(racingTx{r})
}

type racingTx struct {
	r *RacingStore
}

func (t racingTx) FindBooking(_ context.Context, id uint) (*model.Booking, error) {
	b, ok := t.r.Booking(id)
	if !ok {
		return nil, settlement.ErrBookingNotFound
	}
	if t.r.AfterRead != nil {
		t.r.AfterRead()
	}
	return &b, nil
}

func (t racingTx) UpdateBookingStatus(_ context.Context, id uint, from, to string) (bool, error) {
	s := t.r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	now := time.Now()
	if to == constants.BOOKING_CONFIRMED {
		b.ConfirmedAt = &now
	}
	s.bookings[id] = b
	s.Writes.Add(1)
	return true, nil
}

func (t racingTx) SumConfirmedBookingAmounts(_ context.Context, customerID uint) (float64, error) {
	s := t.r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, b := range s.bookings {
		if b.CustomerID != nil && *b.CustomerID == customerID && b.Status == constants.BOOKING_CONFIRMED {
			total += b.TotalPrice
		}
	}
	return total, nil
}

func (t racingTx) IncrementLoyaltyPoints(_ context.Context, customerID uint, points int64) error {
	s := t.r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return settlement.ErrCustomerNotFound
	}
	c.LoyaltyPoints += points
	s.customers[customerID] = c
	s.Writes.Add(1)
	return nil
}
