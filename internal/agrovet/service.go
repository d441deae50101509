package agrovet

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/model"
)

const (
	defaultRadiusKm = 10.0
	defaultLimit    = 20
)

type SearchParams struct {
	Latitude       float64
	Longitude      float64
	RadiusKm       float64
	Limit          int
	FertilizerType string
	Category       string
	RatingMin      float64
	OpenNow        bool
	SortBy         string // distance, rating, or name
}

type Service struct {
	Client *api.Client
}

type supplierInfo struct {
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Products   []string  `json:"products"`
	Prices     []float64 `json:"prices"`
	DistanceKm float64   `json:"distance_km"`
	Address    string    `json:"address,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Rating     float64   `json:"rating,omitempty"`
}

// Nearby returns suppliers around a point, ordered by the requested sort.
// Single bounded page per call; there is no pagination cursor on this
// endpoint.
func (s *Service) Nearby(ctx context.Context, params SearchParams) ([]model.Agrovet, error) {
	if params.Latitude < -90 || params.Latitude > 90 {
		return nil, fmt.Errorf("latitude must be between -90 and 90")
	}
	if params.Longitude < -180 || params.Longitude > 180 {
		return nil, fmt.Errorf("longitude must be between -180 and 180")
	}
	switch params.SortBy {
	case "", "distance", "rating", "name":
	default:
		return nil, fmt.Errorf("invalid sort %q (expected distance, rating, or name)", params.SortBy)
	}

	radius := params.RadiusKm
	if radius <= 0 {
		radius = defaultRadiusKm
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(params.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(params.Longitude, 'f', -1, 64))
	query.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	query.Set("limit", strconv.Itoa(limit))
	if v := strings.TrimSpace(params.FertilizerType); v != "" {
		query.Set("fertilizer_type", v)
	}
	if v := strings.TrimSpace(params.Category); v != "" {
		query.Set("category", v)
	}
	if params.RatingMin > 0 {
		query.Set("rating_min", strconv.FormatFloat(params.RatingMin, 'f', -1, 64))
	}
	if params.OpenNow {
		query.Set("open_now", "true")
	}
	if params.SortBy != "" {
		query.Set("sort_by", params.SortBy)
	}

	var resp []supplierInfo
	if err := s.Client.Get(ctx, "/agrovets/nearby?"+query.Encode(), &resp, true); err != nil {
		return nil, fmt.Errorf("find nearby agrovets: %w", err)
	}

	out := make([]model.Agrovet, 0, len(resp))
	for _, a := range resp {
		products := a.Products
		if products == nil {
			products = []string{}
		}
		prices := a.Prices
		if prices == nil {
			prices = []float64{}
		}
		out = append(out, model.Agrovet{
			Name:       a.Name,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			Products:   products,
			Prices:     prices,
			DistanceKm: a.DistanceKm,
			Address:    a.Address,
			Phone:      a.Phone,
			Email:      a.Email,
			Rating:     a.Rating,
		})
	}
	return out, nil
}
