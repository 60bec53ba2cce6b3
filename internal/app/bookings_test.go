package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bdbooking/internal/app"
	"bdbooking/internal/domain"
)

var (
	guest = domain.Identity{UserID: 7, Username: "rahim"}
	admin = domain.Identity{UserID: 99, Username: "ops", Admin: true}
)

func newBookingService(store *fakeStore) *app.BookingService {
	return app.NewBookingService(store, store, app.NewRoomLocks())
}

func TestCreateBooking_RecomputesPriceServerSide(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)

	// 2 nights x 5000
	b, err := svc.CreateBooking(context.Background(), guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if b.TotalPrice != 10000 {
		t.Fatalf("expected recomputed total 10000, got %d", b.TotalPrice)
	}
	if b.Status != domain.StatusPending {
		t.Fatalf("expected Pending, got %s", b.Status)
	}
}

func TestCreateBooking_RejectsQuotedPriceMismatch(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)

	_, err := svc.CreateBooking(context.Background(), guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
		TotalPrice: 5000, // client lowballs the 2-night stay
	})
	if !errors.Is(err, domain.ErrPriceMismatch) {
		t.Fatalf("expected ErrPriceMismatch, got %v", err)
	}
}

func TestCreateBooking_OverlapRejectedCheckoutDayFree(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)
	ctx := context.Background()

	if _, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// overlaps the night of June 2
	_, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 2), CheckOut: date(2025, 6, 4),
	})
	if !errors.Is(err, domain.ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable, got %v", err)
	}

	// half-open range: checkout day June 3 is bookable
	if _, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 3), CheckOut: date(2025, 6, 5),
	}); err != nil {
		t.Fatalf("back-to-back booking should succeed: %v", err)
	}

	// a different physical room is unaffected
	if _, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 112,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
	}); err != nil {
		t.Fatalf("other room number should be free: %v", err)
	}
}

func TestCreateBooking_ValidatesCatalogOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)
	ctx := context.Background()

	cases := []struct {
		name string
		in   app.CreateBookingInput
		want error
	}{
		{
			"room not in hotel",
			app.CreateBookingInput{HotelID: 2, RoomID: 11, RoomNumberID: 111, CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 2)},
			domain.ErrNotFound,
		},
		{
			"room number not in room",
			app.CreateBookingInput{HotelID: 1, RoomID: 11, RoomNumberID: 999, CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 2)},
			domain.ErrNotFound,
		},
		{
			"unknown room",
			app.CreateBookingInput{HotelID: 1, RoomID: 404, RoomNumberID: 111, CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 2)},
			domain.ErrNotFound,
		},
		{
			"inverted dates",
			app.CreateBookingInput{HotelID: 1, RoomID: 11, RoomNumberID: 111, CheckIn: date(2025, 6, 3), CheckOut: date(2025, 6, 1)},
			domain.ErrInvalidDateRange,
		},
	}
	for _, tc := range cases {
		if _, err := svc.CreateBooking(ctx, guest, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateBooking_ConcurrentOverlap_ExactlyOneWins(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)
	ctx := context.Background()

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(ctx, domain.Identity{UserID: int64(i + 1)}, app.CreateBookingInput{
				HotelID: 1, RoomID: 11, RoomNumberID: 111,
				CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 4),
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrRoomUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != n-1 {
		t.Fatalf("expected exactly one winner, got %d wins / %d conflicts", wins, conflicts)
	}
}

func TestCancelBooking_AuthorizationAndRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := domain.Identity{UserID: 1234}
	if err := svc.CancelBooking(ctx, stranger, b.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
	}

	// admins may cancel anyone's booking
	if err := svc.CancelBooking(ctx, admin, b.ID); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}

	got, err := store.GetBooking(ctx, b.ID)
	if err != nil || got.Status != domain.StatusCancelled {
		t.Fatalf("expected Cancelled, got %+v err=%v", got, err)
	}

	// the released range must be bookable again (round-trip law)
	if _, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
	}); err != nil {
		t.Fatalf("rebooking released range: %v", err)
	}
}

func TestCancelBooking_PaidRequiresRefundFlow(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
		HotelID: 1, RoomID: 11, RoomNumberID: 111,
		CheckIn: date(2025, 6, 1), CheckOut: date(2025, 6, 3),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkPaid(ctx, b.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if err := svc.CancelBooking(ctx, guest, b.ID); !errors.Is(err, domain.ErrInvalidPaymentRequest) {
		t.Fatalf("expected ErrInvalidPaymentRequest for paid booking, got %v", err)
	}
}

func TestListUserBookings_MostRecentFirst(t *testing.T) {
	store := newFakeStore()
	svc := newBookingService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateBooking(ctx, guest, app.CreateBookingInput{
			HotelID: 1, RoomID: 11, RoomNumberID: 111,
			CheckIn: date(2025, 7, 1+2*i), CheckOut: date(2025, 7, 2+2*i),
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	out, err := svc.ListUserBookings(ctx, guest)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].CreatedAt.After(out[i-1].CreatedAt) {
			t.Fatalf("bookings not ordered most recent first: %v", out)
		}
	}
	if out[0].HotelName != "Sea Pearl" || out[0].RoomTitle != "Deluxe Ocean View" {
		t.Fatalf("expected catalog summary fields, got %+v", out[0])
	}
}
