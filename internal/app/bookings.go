package app

import (
	"context"
	"fmt"
	"time"

	"bdbooking/internal/adapters/observability"
	"bdbooking/internal/domain"
)

type BookingService struct {
	bookings domain.BookingRepository
	catalog  domain.CatalogRepository
	locks    *RoomLocks
}

func NewBookingService(b domain.BookingRepository, c domain.CatalogRepository, locks *RoomLocks) *BookingService {
	return &BookingService{bookings: b, catalog: c, locks: locks}
}

type CreateBookingInput struct {
	HotelID      int64
	RoomID       int64
	RoomNumberID int64
	CheckIn      time.Time
	CheckOut     time.Time
	TotalPrice   int64 // client-quoted; verified against nights x room price
}

// CreateBooking validates the request against the catalog, recomputes the
// total server-side, then creates the booking and its ledger commit under
// the room number's mutex. The unique key on (room_number_id, day) in
// storage is the final arbiter, so two processes cannot double-book even
// without sharing this lock.
func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Identity, in CreateBookingInput) (domain.Booking, error) {
	days := domain.DaysIn(in.CheckIn, in.CheckOut)
	if len(days) == 0 {
		return domain.Booking{}, fmt.Errorf("%w: got %s to %s", domain.ErrInvalidDateRange,
			in.CheckIn.Format("2006-01-02"), in.CheckOut.Format("2006-01-02"))
	}

	room, err := s.catalog.GetRoom(ctx, in.RoomID)
	if err != nil {
		return domain.Booking{}, err
	}
	if room.HotelID != in.HotelID {
		return domain.Booking{}, fmt.Errorf("%w: room %d does not belong to hotel %d", domain.ErrNotFound, in.RoomID, in.HotelID)
	}
	if !roomOwnsNumber(room, in.RoomNumberID) {
		return domain.Booking{}, fmt.Errorf("%w: room number %d does not belong to room %d", domain.ErrNotFound, in.RoomNumberID, in.RoomID)
	}

	// Price is derived from catalog data, never taken from the caller.
	total := int64(len(days)) * room.Price
	if in.TotalPrice != 0 && in.TotalPrice != total {
		return domain.Booking{}, fmt.Errorf("%w: quoted %d, expected %d", domain.ErrPriceMismatch, in.TotalPrice, total)
	}

	unlock := s.locks.lock(in.RoomNumberID)
	defer unlock()

	b := domain.Booking{
		HotelID:      in.HotelID,
		UserID:       actor.UserID,
		RoomID:       in.RoomID,
		RoomNumberID: in.RoomNumberID,
		CheckIn:      domain.Day(in.CheckIn),
		CheckOut:     domain.Day(in.CheckOut),
		TotalPrice:   total,
		Status:       domain.StatusPending,
	}
	created, err := s.bookings.CreateBooking(ctx, b, days)
	if err != nil {
		observability.ObserveBooking("create", "error")
		return domain.Booking{}, err
	}
	observability.ObserveBooking("create", "ok")
	return created, nil
}

// CancelBooking releases the booked dates and marks the booking Cancelled.
// Only the owner or an admin may cancel, and only while Pending.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Identity, bookingID int64) error {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.UserID != actor.UserID && !actor.Admin {
		return domain.ErrUnauthorized
	}
	unlock := s.locks.lock(b.RoomNumberID)
	defer unlock()

	if err := s.bookings.CancelBooking(ctx, bookingID); err != nil {
		return err
	}
	observability.ObserveBooking("cancel", "ok")
	return nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, actor domain.Identity) ([]domain.BookingView, error) {
	return s.bookings.ListUserBookings(ctx, actor.UserID)
}

func roomOwnsNumber(room domain.Room, roomNumberID int64) bool {
	for _, rn := range room.RoomNumbers {
		if rn.ID == roomNumberID {
			return true
		}
	}
	return false
}
