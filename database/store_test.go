package database

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/settlement"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewStore(db), mock
}

func bookingRows(id uint, status string, customerID interface{}, total float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at", "customer_id", "total_price", "status"}).
		AddRow(id, time.Now(), time.Now(), customerID, total, status)
}

func TestTransactionSettlesWithLockAndConditionalUpdate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE "bookings"."id" = \$1 .*FOR UPDATE`).
		WillReturnRows(bookingRows(1, constants.BOOKING_PENDING, 7, 500_000))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_price\), 0\) FROM "bookings" WHERE customer_id = \$1 AND status = \$2`).
		WithArgs(7, constants.BOOKING_CONFIRMED).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12_000_000.0))
	mock.ExpectExec(`UPDATE "bookings" SET .*"status"=.* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "customers" SET "loyalty_points"=loyalty_points \+ \$1 WHERE id = \$2`).
		WithArgs(int64(35_000), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := settlement.New(store, nil)
	res, err := s.SettleDetailed(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.Settled)
	assert.Equal(t, int64(35_000), res.Loyalty.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionSkipsConfirmedBooking(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" .*FOR UPDATE`).
		WillReturnRows(bookingRows(1, constants.BOOKING_CONFIRMED, 7, 500_000))
	mock.ExpectCommit()

	settled, err := settlement.New(store, nil).Settle(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionLostRaceWritesNothingElse(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" .*FOR UPDATE`).
		WillReturnRows(bookingRows(1, constants.BOOKING_PENDING, 7, 500_000))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_price\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	settled, err := settlement.New(store, nil).Settle(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" .*FOR UPDATE`).
		WillReturnRows(bookingRows(1, constants.BOOKING_PENDING, 7, 500_000))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_price\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "customers" SET "loyalty_points"`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	settled, err := settlement.New(store, nil).Settle(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionMissingCustomerRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" .*FOR UPDATE`).
		WillReturnRows(bookingRows(1, constants.BOOKING_PENDING, 7, 500_000))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_price\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "customers" SET "loyalty_points"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := settlement.New(store, nil).Settle(context.Background(), 1)
	assert.ErrorIs(t, err, settlement.ErrCustomerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionUnknownBooking(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := settlement.New(store, nil).Settle(context.Background(), 404)
	assert.ErrorIs(t, err, settlement.ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingIsConditional(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "bookings" SET .*"cancelled_at"=.* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.CancelBooking(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CancelBooking(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumConfirmedBookingAmounts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_price\), 0\) FROM "bookings" WHERE customer_id = \$1 AND status = \$2`).
		WithArgs(7, constants.BOOKING_CONFIRMED).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(750_000.0))

	total, err := store.SumConfirmedBookingAmounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 750_000.0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCustomerByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "customers" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindCustomerByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, settlement.ErrCustomerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookingsByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE status = \$1 ORDER BY id desc`).
		WithArgs(constants.BOOKING_PENDING).
		WillReturnRows(bookingRows(3, constants.BOOKING_PENDING, nil, 90_000))

	bookings, err := store.ListBookings(context.Background(), constants.BOOKING_PENDING)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, uint(3), bookings[0].ID)
	assert.Nil(t, bookings[0].CustomerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
