package domain

import "time"

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "Pending"
	StatusPaid      PaymentStatus = "Paid"
	StatusCancelled PaymentStatus = "Cancelled"
)

// Booking ties a user to a specific RoomNumber for a half-open date range.
// Lifecycle: Pending -> Paid on payment success, Pending -> Cancelled on
// payment failure or explicit cancel. Paid and Cancelled are terminal.
type Booking struct {
	ID           int64
	HotelID      int64
	UserID       int64
	RoomID       int64
	RoomNumberID int64
	CheckIn      time.Time // day granularity, UTC midnight
	CheckOut     time.Time // exclusive
	TotalPrice   int64
	Status       PaymentStatus
	CreatedAt    time.Time
}

// Nights returns the number of nights covered by the stay.
func (b Booking) Nights() int {
	return len(DaysIn(b.CheckIn, b.CheckOut))
}

// BookingView enriches a booking with catalog summary fields for listings.
type BookingView struct {
	Booking
	HotelName  string
	HotelCity  string
	HotelPhoto string
	RoomTitle  string
	RoomPrice  int64
}

// PaymentIntent records an opened gateway session against a booking.
type PaymentIntent struct {
	TransactionID string
	BookingID     int64
	Amount        int64
	CreatedAt     time.Time
}
