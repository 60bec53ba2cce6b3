package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"bdbooking/internal/domain"
)

func firstPhoto(photosJSON []byte) string {
	var photos []string
	if err := json.Unmarshal(photosJSON, &photos); err != nil || len(photos) == 0 {
		return ""
	}
	return photos[0]
}

func scanHotel(row interface{ Scan(...any) error }) (domain.Hotel, error) {
	var h domain.Hotel
	var photosJSON []byte
	err := row.Scan(
		&h.ID, &h.Name, &h.City, &h.Address, &h.Description, &photosJSON,
		&h.Rating, &h.NumReviews, &h.CheapestPrice, &h.Featured,
	)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = json.Unmarshal(photosJSON, &h.Photos)
	return h, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.HotelView, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if err == sql.ErrNoRows {
		return domain.HotelView{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.HotelView{}, storageErr("get hotel", err)
	}

	rows, err := r.db.QueryContext(ctx, listRoomsByHotelSQL, id)
	if err != nil {
		return domain.HotelView{}, storageErr("list rooms", err)
	}
	defer rows.Close()

	hv := domain.HotelView{Hotel: h}
	for rows.Next() {
		var rm domain.Room
		if err := rows.Scan(&rm.ID, &rm.HotelID, &rm.Title, &rm.Price, &rm.MaxPeople, &rm.Description); err != nil {
			return domain.HotelView{}, storageErr("scan room", err)
		}
		hv.Rooms = append(hv.Rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return domain.HotelView{}, storageErr("list rooms", err)
	}

	for i := range hv.Rooms {
		nums, err := r.roomNumbers(ctx, hv.Rooms[i].ID)
		if err != nil {
			return domain.HotelView{}, err
		}
		hv.Rooms[i].RoomNumbers = nums
	}
	return hv, nil
}

func (r *Repo) ListFeatured(ctx context.Context, limit int) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listFeaturedSQL, limit)
	if err != nil {
		return nil, storageErr("list featured", err)
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, storageErr("scan hotel", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list featured", err)
	}
	return out, nil
}

func (r *Repo) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	var rm domain.Room
	err := r.db.QueryRowContext(ctx, getRoomSQL, id).Scan(
		&rm.ID, &rm.HotelID, &rm.Title, &rm.Price, &rm.MaxPeople, &rm.Description,
	)
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, storageErr("get room", err)
	}
	rm.RoomNumbers, err = r.roomNumbers(ctx, id)
	return rm, err
}

func (r *Repo) roomNumbers(ctx context.Context, roomID int64) ([]domain.RoomNumber, error) {
	rows, err := r.db.QueryContext(ctx, listRoomNumbersSQL, roomID)
	if err != nil {
		return nil, storageErr("list room numbers", err)
	}
	defer rows.Close()

	var out []domain.RoomNumber
	for rows.Next() {
		var rn domain.RoomNumber
		if err := rows.Scan(&rn.ID, &rn.RoomID, &rn.Number); err != nil {
			return nil, storageErr("scan room number", err)
		}
		out = append(out, rn)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, hotelID)
	if err != nil {
		return nil, storageErr("list reviews", err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.HotelID, &rv.UserID, &rv.Username, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, storageErr("scan review", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// AddReview inserts the review and refreshes the hotel aggregates in one
// transaction. The hotel row lock serializes concurrent reviewers of the
// same hotel so the recomputed mean always covers every inserted row.
func (r *Repo) AddReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Review{}, storageErr("begin", err)
	}
	defer tx.Rollback()

	var hotelID int64
	if err := tx.QueryRowContext(ctx, lockHotelSQL, rv.HotelID).Scan(&hotelID); err != nil {
		if err == sql.ErrNoRows {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, storageErr("lock hotel", err)
	}

	res, err := tx.ExecContext(ctx, insertReviewSQL, rv.HotelID, rv.UserID, rv.Username, rv.Rating, rv.Comment)
	if err != nil {
		if isDuplicate(err) {
			return domain.Review{}, domain.ErrDuplicateReview
		}
		return domain.Review{}, storageErr("insert review", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Review{}, storageErr("review id", err)
	}

	if _, err := tx.ExecContext(ctx, refreshHotelAggregatesSQL, rv.HotelID); err != nil {
		return domain.Review{}, storageErr("refresh aggregates", err)
	}

	var out domain.Review
	if err := tx.QueryRowContext(ctx, getReviewSQL, id).Scan(
		&out.ID, &out.HotelID, &out.UserID, &out.Username, &out.Rating, &out.Comment, &out.CreatedAt,
	); err != nil {
		return domain.Review{}, storageErr("reload review", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Review{}, storageErr("commit", err)
	}
	return out, nil
}

// ---- seeding ----

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	photos, _ := json.Marshal(h.Photos)
	if _, err := r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID, h.Name, h.City, h.Address, h.Description, string(photos), h.CheapestPrice, h.Featured,
	); err != nil {
		return 0, storageErr("upsert hotel", err)
	}
	return h.ID, nil
}

func (r *Repo) UpsertRoom(ctx context.Context, rm domain.Room) error {
	if _, err := r.db.ExecContext(ctx, upsertRoomSQL,
		rm.ID, rm.HotelID, rm.Title, rm.Price, rm.MaxPeople, rm.Description,
	); err != nil {
		return storageErr("upsert room", err)
	}
	for _, rn := range rm.RoomNumbers {
		if _, err := r.db.ExecContext(ctx, upsertRoomNumberSQL, rn.ID, rm.ID, rn.Number); err != nil {
			return storageErr("upsert room number", err)
		}
	}
	return nil
}
