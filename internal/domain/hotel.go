package domain

type Hotel struct {
	ID            int64
	Name          string
	City          string
	Address       string
	Description   string
	Photos        []string
	Rating        float64 // mean of review ratings, 0 when none
	NumReviews    int
	CheapestPrice int64
	Featured      bool
}

// Room is a bookable room type within a hotel. Physical units of the
// type are its RoomNumbers, each carrying its own availability calendar.
type Room struct {
	ID          int64
	HotelID     int64
	Title       string
	Price       int64 // per night
	MaxPeople   int
	Description string
	RoomNumbers []RoomNumber
}

type RoomNumber struct {
	ID     int64
	RoomID int64
	Number int
}

// HotelView is the read model served by the catalog endpoints.
type HotelView struct {
	Hotel
	Rooms []Room
}
