package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidDateRange      = errors.New("check-in must precede check-out")
	ErrRoomUnavailable       = errors.New("room unavailable for the requested dates")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrDuplicateReview       = errors.New("hotel already reviewed by this user")
	ErrInvalidRating         = errors.New("invalid review rating or comment")
	ErrInvalidPaymentRequest = errors.New("invalid payment request")
	ErrPriceMismatch         = errors.New("total price does not match nights x room price")
	ErrUnauthorized          = errors.New("actor not allowed to perform this operation")

	// ErrStorageUnavailable wraps infrastructure failures; callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
