package app

import "sync"

// RoomLocks hands out one mutex per RoomNumber id so that check-then-commit
// and release sequences never interleave for the same physical room. A
// single instance must be shared by every service that mutates the ledger.
// Entries are kept for the process lifetime; the map is bounded by the
// number of physical rooms.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[int64]*sync.Mutex)}
}

func (r *RoomLocks) lock(roomNumberID int64) func() {
	r.mu.Lock()
	m, ok := r.locks[roomNumberID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[roomNumberID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
