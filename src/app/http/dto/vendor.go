package dto

import (
	"strings"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/usecase"
)

// NearbyVendorsQuery binds GET /v1/vendors/nearby.
// Coordinates are pointers so that 0 is accepted while a missing value is not.
type NearbyVendorsQuery struct {
	Latitude   *float64 `form:"lat" binding:"required,gte=-90,lte=90"`
	Longitude  *float64 `form:"lng" binding:"required,gte=-180,lte=180"`
	RadiusKm   float64  `form:"radius_km" binding:"required,gt=0"`
	Categories string   `form:"categories"`
}

// ToRequest converts the query into a search request. Categories are a
// comma-separated list; blanks are dropped.
func (q NearbyVendorsQuery) ToRequest() domain.GeoSearchRequest {
	req := domain.GeoSearchRequest{RadiusKm: q.RadiusKm}
	if q.Latitude != nil {
		req.Latitude = *q.Latitude
	}
	if q.Longitude != nil {
		req.Longitude = *q.Longitude
	}
	for _, c := range strings.Split(q.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			req.ServiceCategories = append(req.ServiceCategories, c)
		}
	}
	return req
}

// VendorResponse is one vendor in a nearby search.
type VendorResponse struct {
	ID                string   `json:"id"`
	BusinessName      string   `json:"business_name"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	ServiceCategories []string `json:"service_categories"`
	Rating            float64  `json:"rating"`
	DistanceScore     float64  `json:"distance_score"`
}

// NearbyVendorsResponse is the body of a nearby search.
type NearbyVendorsResponse struct {
	Items  []VendorResponse `json:"items"`
	Count  int              `json:"count"`
	Cached bool             `json:"cached"`
}

// NewNearbyVendorsResponse maps a search result. Items is never null.
func NewNearbyVendorsResponse(res *usecase.NearbyResult) NearbyVendorsResponse {
	items := make([]VendorResponse, 0, len(res.Vendors))
	for _, v := range res.Vendors {
		cats := v.ServiceCategories
		if cats == nil {
			cats = []string{}
		}
		items = append(items, VendorResponse{
			ID:                v.ID,
			BusinessName:      v.BusinessName,
			Latitude:          v.Latitude,
			Longitude:         v.Longitude,
			ServiceCategories: cats,
			Rating:            v.Rating,
			DistanceScore:     v.DistanceScore,
		})
	}
	return NearbyVendorsResponse{Items: items, Count: len(items), Cached: res.Cached}
}
