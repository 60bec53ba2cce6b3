package domain

import "time"

// Review is embedded in exactly one hotel. Username is a snapshot taken at
// write time and may go stale if the user later renames; that matches the
// upstream data model.
type Review struct {
	ID        int64
	HotelID   int64
	UserID    int64
	Username  string
	Rating    int // 1..5
	Comment   string
	CreatedAt time.Time
}
