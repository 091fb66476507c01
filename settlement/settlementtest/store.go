// Package settlementtest provides an in-memory settlement.Store for tests.
package settlementtest

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Store keeps bookings and customers in memory. Transactions are serialised
// and rolled back when the callback returns an error.
type Store struct {
	mu        sync.Mutex
	bookings  map[uint]model.Booking
	customers map[uint]model.Customer

	Writes       atomic.Int64
	Transactions atomic.Int64

	// FailOn makes the named Tx method return the error.
	FailOn  string
	FailErr error
}

func NewStore() *Store {
	return &Store{
		bookings:  map[uint]model.Booking{},
		customers: map[uint]model.Customer{},
	}
}

func (s *Store) PutBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	s.bookings[b.ID] = b
}

func (s *Store) PutCustomer(c model.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) Booking(id uint) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) Customer(id uint) (model.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	return c, ok
}

// FindBooking reads outside of a transaction.
func (s *Store) FindBooking(_ context.Context, id uint) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, settlement.ErrBookingNotFound
	}
	return &b, nil
}

func (s *Store) ListBookings(_ context.Context, status string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CancelBooking(ctx context.Context, id uint) (bool, error) {
	var changed bool
	err := s.Transaction(ctx, func(tx settlement.Tx) error {
		var err error
		changed, err = tx.UpdateBookingStatus(ctx, id, constants.BOOKING_PENDING, constants.BOOKING_CANCELLED)
		return err
	})
	return changed, err
}

func (s *Store) ExpirePendingBookings(_ context.Context, cutoff time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []model.Booking
	now := time.Now()
	for id, b := range s.bookings {
		if b.Status == constants.BOOKING_PENDING && b.CreatedAt.Before(cutoff) {
			b.Status = constants.BOOKING_CANCELLED
			b.CancelledAt = &now
			s.bookings[id] = b
			s.Writes.Add(1)
			expired = append(expired, b)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired, nil
}

func (s *Store) FindCustomer(_ context.Context, id uint) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, settlement.ErrCustomerNotFound
	}
	return &c, nil
}

func (s *Store) FindCustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, settlement.ErrCustomerNotFound
}

func (s *Store) SumConfirmedBookingAmounts(ctx context.Context, customerID uint) (float64, error) {
	var total float64
	err := s.Transaction(ctx, func(tx settlement.Tx) error {
		var err error
		total, err = tx.SumConfirmedBookingAmounts(ctx, customerID)
		return err
	})
	return total, err
}

func (s *Store) Transaction(_ context.Context, fn func(tx settlement.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transactions.Add(1)

	tx := &memTx{
		store:     s,
		bookings:  make(map[uint]model.Booking, len(s.bookings)),
		customers: make(map[uint]model.Customer, len(s.customers)),
	}
	for k, v := range s.bookings {
		tx.bookings[k] = v
	}
	for k, v := range s.customers {
		tx.customers[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	s.bookings = tx.bookings
	s.customers = tx.customers
	s.Writes.Add(tx.writes)
	return nil
}

type memTx struct {
	store     *Store
	bookings  map[uint]model.Booking
	customers map[uint]model.Customer
	writes    int64
}

func (t *memTx) fail(op string) error {
	if t.store.FailOn == op {
		return t.store.FailErr
	}
	return nil
}

func (t *memTx) FindBooking(_ context.Context, id uint) (*model.Booking, error) {
	if err := t.fail("FindBooking"); err != nil {
		return nil, err
	}
	b, ok := t.bookings[id]
	if !ok {
		return nil, settlement.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) UpdateBookingStatus(_ context.Context, id uint, from, to string) (bool, error) {
	if err := t.fail("UpdateBookingStatus"); err != nil {
		return false, err
	}
	b, ok := t.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	now := time.Now()
	switch to {
	case constants.BOOKING_CONFIRMED:
		b.ConfirmedAt = &now
	case constants.BOOKING_CANCELLED:
		b.CancelledAt = &now
	}
	t.bookings[id] = b
	t.writes++
	return true, nil
}

func (t *memTx) SumConfirmedBookingAmounts(_ context.Context, customerID uint) (float64, error) {
	if err := t.fail("SumConfirmedBookingAmounts"); err != nil {
		return 0, err
	}
	var total float64
	for _, b := range t.bookings {
		if b.CustomerID != nil && *b.CustomerID == customerID && b.Status == constants.BOOKING_CONFIRMED {
			total += b.TotalPrice
		}
	}
	return total, nil
}

func (t *memTx) IncrementLoyaltyPoints(_ context.Context, customerID uint, points int64) error {
	if err := t.fail("IncrementLoyaltyPoints"); err != nil {
		return err
	}
	c, ok := t.customers[customerID]
	if !ok {
		return settlement.ErrCustomerNotFound
	}
	c.LoyaltyPoints += points
	t.customers[customerID] = c
	t.writes++
	return nil
}
