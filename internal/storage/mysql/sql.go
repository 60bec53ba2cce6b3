package mysql

const insertBookingSQL = `
INSERT INTO bookings
  (hotel_id, user_id, room_id, room_number_id, check_in, check_out, total_price, status)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

// One row per committed day. The primary key on (room_number_id, day) is
// what makes check-then-commit safe across processes: the second booking
// to claim any day in the range hits a duplicate key and the whole
// transaction rolls back.
const insertUnavailableDayPrefix = `
INSERT INTO room_unavailable_dates (room_number_id, day, booking_id)
VALUES `

const releaseBookingDaysSQL = `
DELETE FROM room_unavailable_dates WHERE booking_id = ?
`

const getBookingSQL = `
SELECT id, hotel_id, user_id, room_id, room_number_id,
       check_in, check_out, total_price, status, created_at
FROM bookings
WHERE id = ?
`

const lockBookingStatusSQL = `
SELECT status FROM bookings WHERE id = ? FOR UPDATE
`

const setBookingStatusSQL = `
UPDATE bookings SET status = ? WHERE id = ?
`

const listUserBookingsSQL = `
SELECT b.id, b.hotel_id, b.user_id, b.room_id, b.room_number_id,
       b.check_in, b.check_out, b.total_price, b.status, b.created_at,
       h.name, h.city, h.photos,
       r.title, r.price
FROM bookings b
JOIN hotels h ON h.id = b.hotel_id
JOIN rooms r  ON r.id = b.room_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC, b.id DESC
`

const insertPaymentIntentSQL = `
INSERT INTO payment_intents (transaction_id, booking_id, amount)
VALUES (?, ?, ?)
`

const getPaymentIntentSQL = `
SELECT transaction_id, booking_id, amount, created_at
FROM payment_intents
WHERE transaction_id = ?
`

// ---- catalog ----

const getHotelSQL = `
SELECT id, name, city, address, description, photos,
       rating, num_reviews, cheapest_price, featured
FROM hotels
WHERE id = ?
`

const listFeaturedSQL = `
SELECT id, name, city, address, description, photos,
       rating, num_reviews, cheapest_price, featured
FROM hotels
WHERE featured = 1
ORDER BY id
LIMIT ?
`

const listRoomsByHotelSQL = `
SELECT id, hotel_id, title, price, max_people, description
FROM rooms
WHERE hotel_id = ?
ORDER BY id
`

const getRoomSQL = `
SELECT id, hotel_id, title, price, max_people, description
FROM rooms
WHERE id = ?
`

const listRoomNumbersSQL = `
SELECT id, room_id, number
FROM room_numbers
WHERE room_id = ?
ORDER BY number
`

const lockHotelSQL = `
SELECT id FROM hotels WHERE id = ? FOR UPDATE
`

const insertReviewSQL = `
INSERT INTO reviews (hotel_id, user_id, username, rating, comment)
VALUES (?, ?, ?, ?, ?)
`

const refreshHotelAggregatesSQL = `
UPDATE hotels h
SET h.num_reviews = (SELECT COUNT(*) FROM reviews v WHERE v.hotel_id = h.id),
    h.rating      = COALESCE((SELECT AVG(v.rating) FROM reviews v WHERE v.hotel_id = h.id), 0)
WHERE h.id = ?
`

const listReviewsSQL = `
SELECT id, hotel_id, user_id, username, rating, comment, created_at
FROM reviews
WHERE hotel_id = ?
ORDER BY created_at DESC, id DESC
`

const getReviewSQL = `
SELECT id, hotel_id, user_id, username, rating, comment, created_at
FROM reviews
WHERE id = ?
`

// ---- seeding ----

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, city, address, description, photos, cheapest_price, featured)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name           = VALUES(name),
  city           = VALUES(city),
  address        = VALUES(address),
  description    = VALUES(description),
  photos         = VALUES(photos),
  cheapest_price = VALUES(cheapest_price),
  featured       = VALUES(featured),
  updated_at     = CURRENT_TIMESTAMP
`

const upsertRoomSQL = `
INSERT INTO rooms
  (id, hotel_id, title, price, max_people, description)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  title       = VALUES(title),
  price       = VALUES(price),
  max_people  = VALUES(max_people),
  description = VALUES(description)
`

const upsertRoomNumberSQL = `
INSERT INTO room_numbers (id, room_id, number)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE number = VALUES(number)
`
