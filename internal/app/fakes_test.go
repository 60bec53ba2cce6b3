package app_test

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"bdbooking/internal/domain"
)

// fakeStore is an in-memory stand-in for the MySQL repo. Its CreateBooking
// deliberately releases the map lock between the availability check and the
// commit, the way the storage check-then-write would interleave without a
// guard; the services' per-room mutex is what keeps it correct.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	now      int64 // monotonic stand-in for created_at
	bookings map[int64]domain.Booking
	ledger   map[int64]map[int64]int64 // roomNumberID -> unix day -> bookingID
	intents  map[string]domain.PaymentIntent
	hotels   map[int64]domain.Hotel
	rooms    map[int64]domain.Room
	reviews  []domain.Review
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		bookings: map[int64]domain.Booking{},
		ledger:   map[int64]map[int64]int64{},
		intents:  map[string]domain.PaymentIntent{},
		hotels:   map[int64]domain.Hotel{},
		rooms:    map[int64]domain.Room{},
	}
	s.hotels[1] = domain.Hotel{ID: 1, Name: "Sea Pearl", City: "Cox's Bazar", CheapestPrice: 5000, Featured: true}
	s.rooms[11] = domain.Room{
		ID: 11, HotelID: 1, Title: "Deluxe Ocean View", Price: 5000, MaxPeople: 2,
		RoomNumbers: []domain.RoomNumber{
			{ID: 111, RoomID: 11, Number: 101},
			{ID: 112, RoomID: 11, Number: 102},
		},
	}
	return s
}

// ---- BookingRepository ----

func (s *fakeStore) CreateBooking(ctx context.Context, b domain.Booking, days []time.Time) (domain.Booking, error) {
	s.mu.Lock()
	taken := s.ledger[b.RoomNumberID]
	for _, d := range days {
		if _, ok := taken[d.Unix()]; ok {
			s.mu.Unlock()
			return domain.Booking{}, domain.ErrRoomUnavailable
		}
	}
	s.mu.Unlock()

	runtime.Gosched() // widen the check/commit window

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.now++
	b.ID = s.nextID
	b.Status = domain.StatusPending
	b.CreatedAt = time.Unix(s.now, 0).UTC()
	if s.ledger[b.RoomNumberID] == nil {
		s.ledger[b.RoomNumberID] = map[int64]int64{}
	}
	for _, d := range days {
		s.ledger[b.RoomNumberID][d.Unix()] = b.ID
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *fakeStore) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *fakeStore) ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BookingView
	for _, b := range s.bookings {
		if b.UserID != userID {
			continue
		}
		bv := domain.BookingView{Booking: b}
		if h, ok := s.hotels[b.HotelID]; ok {
			bv.HotelName, bv.HotelCity = h.Name, h.City
		}
		if r, ok := s.rooms[b.RoomID]; ok {
			bv.RoomTitle, bv.RoomPrice = r.Title, r.Price
		}
		out = append(out, bv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *fakeStore) CancelBooking(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	switch b.Status {
	case domain.StatusCancelled:
		return nil
	case domain.StatusPaid:
		return fmt.Errorf("%w: booking %d is Paid", domain.ErrInvalidPaymentRequest, id)
	}
	b.Status = domain.StatusCancelled
	s.bookings[id] = b
	for day, owner := range s.ledger[b.RoomNumberID] {
		if owner == id {
			delete(s.ledger[b.RoomNumberID], day)
		}
	}
	return nil
}

func (s *fakeStore) MarkPaid(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	switch b.Status {
	case domain.StatusPaid:
		return nil
	case domain.StatusCancelled:
		return fmt.Errorf("%w: booking %d is Cancelled", domain.ErrInvalidPaymentRequest, id)
	}
	b.Status = domain.StatusPaid
	s.bookings[id] = b
	return nil
}

func (s *fakeStore) SavePaymentIntent(ctx context.Context, pi domain.PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi.CreatedAt = time.Now().UTC()
	s.intents[pi.TransactionID] = pi
	return nil
}

func (s *fakeStore) GetPaymentIntent(ctx context.Context, transactionID string) (domain.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.intents[transactionID]
	if !ok {
		return domain.PaymentIntent{}, domain.ErrNotFound
	}
	return pi, nil
}

// ---- CatalogRepository ----

func (s *fakeStore) GetHotel(ctx context.Context, id int64) (domain.HotelView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.HotelView{}, domain.ErrNotFound
	}
	hv := domain.HotelView{Hotel: h}
	for _, r := range s.rooms {
		if r.HotelID == id {
			hv.Rooms = append(hv.Rooms, r)
		}
	}
	return hv, nil
}

func (s *fakeStore) ListFeatured(ctx context.Context, limit int) ([]domain.Hotel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Hotel
	for _, h := range s.hotels {
		if h.Featured && len(out) < limit {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) ListReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Review
	for _, rv := range s.reviews {
		if rv.HotelID == hotelID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (s *fakeStore) AddReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotels[rv.HotelID]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	for _, existing := range s.reviews {
		if existing.HotelID == rv.HotelID && existing.UserID == rv.UserID {
			return domain.Review{}, domain.ErrDuplicateReview
		}
	}
	s.nextID++
	rv.ID = s.nextID
	rv.CreatedAt = time.Now().UTC()
	s.reviews = append(s.reviews, rv)

	var sum, n int
	for _, existing := range s.reviews {
		if existing.HotelID == rv.HotelID {
			sum += existing.Rating
			n++
		}
	}
	h.NumReviews = n
	h.Rating = float64(sum) / float64(n)
	s.hotels[rv.HotelID] = h
	return rv, nil
}

func (s *fakeStore) UpsertHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.ID] = h
	return h.ID, nil
}

func (s *fakeStore) UpsertRoom(ctx context.Context, r domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
	return nil
}

// ---- other fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.HotelView:
		*d = v.(domain.HotelView)
	case *[]domain.Review:
		*d = v.([]domain.Review)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	sessions []domain.PaymentIntent
	fail     bool
}

func (g *fakeGateway) CreateSession(ctx context.Context, pi domain.PaymentIntent, name, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return "", fmt.Errorf("gateway down")
	}
	g.sessions = append(g.sessions, pi)
	return "https://sandbox.gateway.test/pay/" + pi.TransactionID, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
