package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"bdbooking/internal/domain"
)

const mysqlErrDuplicateEntry = 1062

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// isDuplicate reports whether err is a unique/primary key violation.
func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}

// storageErr marks infrastructure failures as retryable for callers.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking, days []time.Time) (domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Booking{}, storageErr("begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, insertBookingSQL,
		b.HotelID, b.UserID, b.RoomID, b.RoomNumberID,
		b.CheckIn, b.CheckOut, b.TotalPrice, string(domain.StatusPending),
	)
	if err != nil {
		return domain.Booking{}, storageErr("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Booking{}, storageErr("booking id", err)
	}

	values := make([]string, 0, len(days))
	args := make([]any, 0, len(days)*3)
	for _, d := range days {
		values = append(values, "(?,?,?)")
		args = append(args, b.RoomNumberID, d, id)
	}
	if _, err := tx.ExecContext(ctx, insertUnavailableDayPrefix+strings.Join(values, ","), args...); err != nil {
		if isDuplicate(err) {
			return domain.Booking{}, domain.ErrRoomUnavailable
		}
		return domain.Booking{}, storageErr("commit date range", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Booking{}, storageErr("commit", err)
	}

	b.ID = id
	b.Status = domain.StatusPending
	b.CreatedAt = time.Now().UTC()
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	var b domain.Booking
	var status string
	err := r.db.QueryRowContext(ctx, getBookingSQL, id).Scan(
		&b.ID, &b.HotelID, &b.UserID, &b.RoomID, &b.RoomNumberID,
		&b.CheckIn, &b.CheckOut, &b.TotalPrice, &status, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, storageErr("get booking", err)
	}
	b.Status = domain.PaymentStatus(status)
	return b, nil
}

func (r *Repo) ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	rows, err := r.db.QueryContext(ctx, listUserBookingsSQL, userID)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	defer rows.Close()

	var out []domain.BookingView
	for rows.Next() {
		var bv domain.BookingView
		var status string
		var photosJSON []byte
		if err := rows.Scan(
			&bv.ID, &bv.HotelID, &bv.UserID, &bv.RoomID, &bv.RoomNumberID,
			&bv.CheckIn, &bv.CheckOut, &bv.TotalPrice, &status, &bv.CreatedAt,
			&bv.HotelName, &bv.HotelCity, &photosJSON,
			&bv.RoomTitle, &bv.RoomPrice,
		); err != nil {
			return nil, storageErr("scan booking", err)
		}
		bv.Status = domain.PaymentStatus(status)
		bv.HotelPhoto = firstPhoto(photosJSON)
		out = append(out, bv)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list bookings", err)
	}
	return out, nil
}

// CancelBooking is idempotent for a Cancelled booking and rejects a Paid
// one; Paid is terminal here, refunds are a separate flow.
func (r *Repo) CancelBooking(ctx context.Context, id int64) error {
	return r.transition(ctx, id, domain.StatusCancelled)
}

func (r *Repo) MarkPaid(ctx context.Context, id int64) error {
	return r.transition(ctx, id, domain.StatusPaid)
}

func (r *Repo) transition(ctx context.Context, id int64, to domain.PaymentStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback()

	var cur string
	if err := tx.QueryRowContext(ctx, lockBookingStatusSQL, id).Scan(&cur); err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrBookingNotFound
		}
		return storageErr("lock booking", err)
	}

	switch domain.PaymentStatus(cur) {
	case to:
		// at-least-once delivery: repeated signal is a no-op success
		return tx.Commit()
	case domain.StatusPending:
		// fallthrough to the transition below
	default:
		return fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidPaymentRequest, id, cur)
	}

	if _, err := tx.ExecContext(ctx, setBookingStatusSQL, string(to), id); err != nil {
		return storageErr("set status", err)
	}
	if to == domain.StatusCancelled {
		// release exactly the days this booking committed
		if _, err := tx.ExecContext(ctx, releaseBookingDaysSQL, id); err != nil {
			return storageErr("release date range", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (r *Repo) SavePaymentIntent(ctx context.Context, pi domain.PaymentIntent) error {
	if _, err := r.db.ExecContext(ctx, insertPaymentIntentSQL, pi.TransactionID, pi.BookingID, pi.Amount); err != nil {
		return storageErr("save payment intent", err)
	}
	return nil
}

func (r *Repo) GetPaymentIntent(ctx context.Context, transactionID string) (domain.PaymentIntent, error) {
	var pi domain.PaymentIntent
	err := r.db.QueryRowContext(ctx, getPaymentIntentSQL, transactionID).Scan(
		&pi.TransactionID, &pi.BookingID, &pi.Amount, &pi.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.PaymentIntent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PaymentIntent{}, storageErr("get payment intent", err)
	}
	return pi, nil
}
