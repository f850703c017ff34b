package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

// NearbyResult is the outcome of a proximity search.
type NearbyResult struct {
	Vendors []domain.Vendor `json:"items"`
	Cached  bool            `json:"cached"`
}

// VendorSearchService answers proximity searches cache-aside: cached results
// are served until they expire, misses go to the finder and are written back.
type VendorSearchService struct {
	finder ports.VendorFinder
	cache  ports.Cache
	ttl    time.Duration
	log    *slog.Logger
}

// NewVendorSearchService creates the service. A non-positive ttl uses the
// cache's default.
func NewVendorSearchService(finder ports.VendorFinder, cache ports.Cache, ttl time.Duration, log *slog.Logger) *VendorSearchService {
	return &VendorSearchService{
		finder: finder,
		cache:  cache,
		ttl:    ttl,
		log:    log,
	}
}

// Nearby returns active vendors around the requested point. Cache failures
// never fail the search.
func (s *VendorSearchService) Nearby(ctx context.Context, req domain.GeoSearchRequest) (*NearbyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := NearbyCacheKey(req)

	var cached []domain.Vendor
	if res := s.cache.Get(ctx, key, &cached); res.Hit() {
		return &NearbyResult{Vendors: cached, Cached: true}, nil
	}

	vendors, err := s.finder.FindInRadius(ctx, req)
	if err != nil {
		return nil, err
	}

	if res := s.cache.Set(ctx, key, vendors, s.ttl); !res.OK() {
		s.log.Debug("nearby result not cached", "key", key)
	}
	return &NearbyResult{Vendors: vendors}, nil
}

// NearbyCacheKey identifies a search by the exact values the query runs
// with: center and radius at full precision, categories quoted, sorted and
// de-duplicated. Category case is preserved since matching is case-sensitive.
func NearbyCacheKey(req domain.GeoSearchRequest) string {
	cats := make([]string, 0, len(req.ServiceCategories))
	seen := make(map[string]struct{}, len(req.ServiceCategories))
	for _, c := range req.ServiceCategories {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, strconv.Quote(c))
	}
	sort.Strings(cats)

	return fmt.Sprintf("geo:%s:%s:%s:%s",
		formatCoord(req.Latitude),
		formatCoord(req.Longitude),
		formatCoord(req.RadiusKm),
		strings.Join(cats, ","),
	)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
