package app

import (
	"context"
	"fmt"
	"time"

	"bdbooking/internal/domain"
)

type QueryService struct {
	catalog  domain.CatalogRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(c domain.CatalogRepository, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{catalog: c, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.HotelView, error) {
	key := fmt.Sprintf("hotel:%d", id)
	var hv domain.HotelView
	if ok, _ := s.cache.Get(ctx, key, &hv); ok {
		return hv, nil
	}
	hv, err := s.catalog.GetHotel(ctx, id)
	if err != nil {
		return domain.HotelView{}, err
	}
	_ = s.cache.Set(ctx, key, hv, int(s.cacheTTL.Seconds()))
	return hv, nil
}

func (s *QueryService) ListFeatured(ctx context.Context, limit int) ([]domain.Hotel, error) {
	return s.catalog.ListFeatured(ctx, limit)
}

func (s *QueryService) ListReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	key := fmt.Sprintf("reviews:%d", hotelID)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.catalog.ListReviews(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	// copy before caching so callers mutating the result cannot poison the
	// cached value
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return rs, nil
}
