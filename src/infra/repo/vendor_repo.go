package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/core/ports"
)

const vendorsTable = "vendors"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// GeoSearchEngine runs approximate proximity searches over the vendors table.
type GeoSearchEngine struct {
	q   ports.Querier
	log *slog.Logger
}

var _ ports.VendorFinder = (*GeoSearchEngine)(nil)

// NewGeoSearchEngine constructs a search engine issuing statements through q.
func NewGeoSearchEngine(q ports.Querier, log *slog.Logger) *GeoSearchEngine {
	return &GeoSearchEngine{q: q, log: log}
}

// FindInRadius returns up to domain.MaxGeoResults active vendors inside the
// request's bounding box, nearest first by Manhattan distance in degrees.
// When categories are given a vendor must offer at least one of them.
func (e *GeoSearchEngine) FindInRadius(ctx context.Context, req domain.GeoSearchRequest) ([]domain.Vendor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	box := req.Box()

	sql, args, err := buildRadiusQuery(req, box)
	if err != nil {
		return nil, fmt.Errorf("failed to build radius query: %w", err)
	}

	res, err := e.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	vendors := make([]domain.Vendor, 0, len(res.Rows))
	for _, row := range res.Rows {
		v, ok := vendorFromRow(row)
		if !ok {
			e.log.Warn("skipping vendor row with missing coordinates", "id", row["id"])
			continue
		}
		if v.Status != domain.VendorStatusActive || !box.Contains(v.Latitude, v.Longitude) {
			continue
		}
		v.DistanceScore = domain.ApproxDistance(v.Latitude, v.Longitude, req.Latitude, req.Longitude)
		vendors = append(vendors, v)
	}

	sort.SliceStable(vendors, func(i, j int) bool {
		return vendors[i].DistanceScore < vendors[j].DistanceScore
	})
	if len(vendors) > domain.MaxGeoResults {
		vendors = vendors[:domain.MaxGeoResults]
	}

	e.log.Debug("radius search",
		"lat", req.Latitude,
		"lng", req.Longitude,
		"radius_km", req.RadiusKm,
		"categories", len(req.ServiceCategories),
		"results", len(vendors),
		"duration_ms", res.DurationMs(),
	)
	return vendors, nil
}

func buildRadiusQuery(req domain.GeoSearchRequest, box domain.BoundingBox) (string, []any, error) {
	q := psql.
		Select(
			"id::text AS id",
			"business_name",
			"latitude::float8 AS latitude",
			"longitude::float8 AS longitude",
			"status",
			"service_categories",
			"rating::float8 AS rating",
		).
		Column(sq.Expr("ABS(latitude - ?) + ABS(longitude - ?) AS distance_score", req.Latitude, req.Longitude)).
		From(vendorsTable).
		Where(sq.Eq{"status": domain.VendorStatusActive}).
		Where(sq.GtOrEq{"latitude": box.MinLat}).
		Where(sq.LtOrEq{"latitude": box.MaxLat}).
		Where(sq.GtOrEq{"longitude": box.MinLng}).
		Where(sq.LtOrEq{"longitude": box.MaxLng})

	if len(req.ServiceCategories) > 0 {
		q = q.Where("service_categories && ?", req.ServiceCategories)
	}

	return q.OrderBy("distance_score").Limit(domain.MaxGeoResults).ToSql()
}

func vendorFromRow(row map[string]any) (domain.Vendor, bool) {
	lat, okLat := asFloat(row["latitude"])
	lng, okLng := asFloat(row["longitude"])
	if !okLat || !okLng {
		return domain.Vendor{}, false
	}
	rating, _ := asFloat(row["rating"])

	return domain.Vendor{
		ID:                asString(row["id"]),
		BusinessName:      asString(row["business_name"]),
		Latitude:          lat,
		Longitude:         lng,
		Status:            strings.ToLower(asString(row["status"])),
		ServiceCategories: asStrings(row["service_categories"]),
		Rating:            rating,
	}, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func asStrings(v any) []string {
	switch xs := v.(type) {
	case []string:
		return xs
	case []any:
		out := make([]string, 0, len(xs))
		for _, x := range xs {
			if x != nil {
				out = append(out, asString(x))
			}
		}
		return out
	default:
		return nil
	}
}
