package domain

import (
	"context"
	"time"
)

// Identity is what the auth collaborator hands us per request. The core
// trusts it without re-verification.
type Identity struct {
	UserID   int64
	Username string
	Admin    bool
}

type BookingRepository interface {
	// CreateBooking persists b and commits days into the room number's
	// unavailable set in one transaction. Any day already committed by a
	// live booking aborts the whole create with ErrRoomUnavailable.
	CreateBooking(ctx context.Context, b Booking, days []time.Time) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	// ListUserBookings returns the user's bookings with catalog summaries,
	// most recent first (created_at DESC, id DESC).
	ListUserBookings(ctx context.Context, userID int64) ([]BookingView, error)
	// CancelBooking moves a Pending booking to Cancelled and releases its
	// ledger days in one transaction. No-op on an already Cancelled booking;
	// ErrInvalidPaymentRequest on a Paid one.
	CancelBooking(ctx context.Context, id int64) error
	// MarkPaid moves Pending to Paid. No-op when already Paid,
	// ErrBookingNotFound when missing, ErrInvalidPaymentRequest on Cancelled.
	MarkPaid(ctx context.Context, id int64) error

	SavePaymentIntent(ctx context.Context, pi PaymentIntent) error
	GetPaymentIntent(ctx context.Context, transactionID string) (PaymentIntent, error)
}

type CatalogRepository interface {
	GetHotel(ctx context.Context, id int64) (HotelView, error)
	ListFeatured(ctx context.Context, limit int) ([]Hotel, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListReviews(ctx context.Context, hotelID int64) ([]Review, error)
	// AddReview appends the review and recomputes the hotel aggregates
	// atomically. A second review by the same user fails with
	// ErrDuplicateReview; a missing hotel with ErrNotFound.
	AddReview(ctx context.Context, rv Review) (Review, error)

	// Seeding (cmd/seeder only).
	UpsertHotel(ctx context.Context, h Hotel) (int64, error)
	UpsertRoom(ctx context.Context, r Room) error
}

type PaymentGateway interface {
	// CreateSession opens a hosted payment page for the intent and returns
	// the redirect URL.
	CreateSession(ctx context.Context, pi PaymentIntent, customerName, customerEmail string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
