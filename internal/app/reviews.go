package app

import (
	"context"
	"fmt"
	"strings"

	"bdbooking/internal/domain"
)

type ReviewService struct {
	catalog domain.CatalogRepository
	cache   domain.Cache
}

func NewReviewService(c domain.CatalogRepository, cache domain.Cache) *ReviewService {
	return &ReviewService{catalog: c, cache: cache}
}

// AddReview appends a review and recomputes the hotel's aggregate rating.
// One review per user per hotel; the repository enforces this atomically
// with the aggregate update.
func (s *ReviewService) AddReview(ctx context.Context, actor domain.Identity, hotelID int64, rating int, comment string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidRating)
	}
	if strings.TrimSpace(comment) == "" {
		return domain.Review{}, fmt.Errorf("%w: comment must not be empty", domain.ErrInvalidRating)
	}

	rv, err := s.catalog.AddReview(ctx, domain.Review{
		HotelID:  hotelID,
		UserID:   actor.UserID,
		Username: actor.Username,
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		return domain.Review{}, err
	}

	// The cached hotel view carries the aggregates; drop it so the next
	// read sees the new rating.
	if s.cache != nil {
		_ = s.cache.Del(ctx, fmt.Sprintf("hotel:%d", hotelID))
		_ = s.cache.Del(ctx, fmt.Sprintf("reviews:%d", hotelID))
	}
	return rv, nil
}
