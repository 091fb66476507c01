package database

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the postgres-backed data access for bookings and customers.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Transaction(ctx context.Context, fn func(tx settlement.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

// FindBooking reads the booking with SELECT ... FOR UPDATE; the row stays
// locked until the transaction ends.
func (t *gormTx) FindBooking(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, settlement.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (t *gormTx) UpdateBookingStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	return updateStatus(t.db.WithContext(ctx), id, from, to)
}

func (t *gormTx) SumConfirmedBookingAmounts(ctx context.Context, customerID uint) (float64, error) {
	return sumConfirmed(t.db.WithContext(ctx), customerID)
}

func (t *gormTx) IncrementLoyaltyPoints(ctx context.Context, customerID uint, points int64) error {
	res := t.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", customerID).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return settlement.ErrCustomerNotFound
	}
	return nil
}

// updateStatus is a compare-and-set on the status column.
func updateStatus(db *gorm.DB, id uint, from, to string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	now := time.Now()
	switch to {
	case constants.BOOKING_CONFIRMED:
		updates["confirmed_at"] = now
	case constants.BOOKING_CANCELLED:
		updates["cancelled_at"] = now
	}

	res := db.Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func sumConfirmed(db *gorm.DB, customerID uint) (float64, error) {
	var total float64
	err := db.Model(&model.Booking{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("customer_id = ? AND status = ?", customerID, constants.BOOKING_CONFIRMED).
		Scan(&total).Error
	return total, err
}

// FindBooking reads a booking and its items outside of any transaction.
func (s *Store) FindBooking(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).Preload("Items").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, settlement.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *Store) ListBookings(ctx context.Context, status string) ([]model.Booking, error) {
	var bookings []model.Booking
	query := s.db.WithContext(ctx).Order("id desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// CancelBooking moves a PENDING booking to CANCELLED and reports whether it did.
func (s *Store) CancelBooking(ctx context.Context, id uint) (bool, error) {
	return updateStatus(s.db.WithContext(ctx), id, constants.BOOKING_PENDING, constants.BOOKING_CANCELLED)
}

// ExpirePendingBookings cancels every PENDING booking created before the
// cutoff and returns the cancelled rows.
func (s *Store) ExpirePendingBookings(ctx context.Context, cutoff time.Time) ([]model.Booking, error) {
	var expired []model.Booking
	err := s.db.WithContext(ctx).
		Model(&expired).
		Clauses(clause.Returning{}).
		Where("status = ? AND created_at < ?", constants.BOOKING_PENDING, cutoff).
		Updates(map[string]interface{}{
			"status":       constants.BOOKING_CANCELLED,
			"cancelled_at": time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (s *Store) FindCustomer(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	err := s.db.WithContext(ctx).First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, settlement.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, settlement.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) SumConfirmedBookingAmounts(ctx context.Context, customerID uint) (float64, error) {
	return sumConfirmed(s.db.WithContext(ctx), customerID)
}
