package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-surviantllc/FixRx-sub003/src/core/domain"
	"github.com/yash-surviantllc/FixRx-sub003/src/infra/logger"
)

type stubQuerier struct {
	rows []map[string]any
	err  error

	calls int
	sql   string
	args  []any
}

func (s *stubQuerier) Query(_ context.Context, sql string, args ...any) (*domain.QueryResult, error) {
	s.calls++
	s.sql, s.args = sql, args
	if s.err != nil {
		return nil, s.err
	}
	return &domain.QueryResult{Rows: s.rows, RowCount: int64(len(s.rows))}, nil
}

func vendorRow(id string, lat, lng float64, status string, cats ...any) map[string]any {
	return map[string]any{
		"id":                 id,
		"business_name":      "Vendor " + id,
		"latitude":           lat,
		"longitude":          lng,
		"status":             status,
		"service_categories": cats,
		"rating":             4.2,
		"distance_score":     nil,
	}
}

var nyc = domain.GeoSearchRequest{Latitude: 40.7128, Longitude: -74.0060, RadiusKm: 10}

func TestFindInRadius_BuildsStatement(t *testing.T) {
	q := &stubQuerier{}
	e := NewGeoSearchEngine(q, logger.Discard())

	req := nyc
	req.ServiceCategories = []string{"plumbing", "electrical"}
	_, err := e.FindInRadius(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, q.sql, "ABS(latitude - $1) + ABS(longitude - $2) AS distance_score")
	assert.Contains(t, q.sql, "FROM vendors")
	assert.Contains(t, q.sql, "status = $3")
	assert.Contains(t, q.sql, "latitude >= $4")
	assert.Contains(t, q.sql, "longitude <= $7")
	assert.Contains(t, q.sql, "service_categories && $8")
	assert.Contains(t, q.sql, "ORDER BY distance_score LIMIT 50")

	box := req.Box()
	require.Len(t, q.args, 8)
	assert.Equal(t, []any{
		req.Latitude, req.Longitude, domain.VendorStatusActive,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
		[]string{"plumbing", "electrical"},
	}, q.args)
}

func TestFindInRadius_NoCategoryFilter(t *testing.T) {
	q := &stubQuerier{}
	e := NewGeoSearchEngine(q, logger.Discard())

	_, err := e.FindInRadius(context.Background(), nyc)
	require.NoError(t, err)

	assert.NotContains(t, q.sql, "service_categories &&")
	assert.Len(t, q.args, 7)
}

func TestFindInRadius_FiltersAndOrders(t *testing.T) {
	q := &stubQuerier{rows: []map[string]any{
		vendorRow("far", 40.78, -74.05, "active", "plumbing"),
		vendorRow("near", 40.713, -74.006, "active", "plumbing"),
		vendorRow("inactive", 40.7128, -74.0060, "suspended"),
		vendorRow("outside", 41.5, -74.0060, "active"),
		vendorRow("tie-a", 40.72, -74.006, "ACTIVE"),
		vendorRow("tie-b", 40.72, -74.006, "active"),
		{"id": "broken", "latitude": nil, "longitude": nil, "status": "active"},
	}}
	e := NewGeoSearchEngine(q, logger.Discard())

	got, err := e.FindInRadius(context.Background(), nyc)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, v := range got {
		ids = append(ids, v.ID)
		assert.Equal(t, domain.VendorStatusActive, v.Status)
		assert.True(t, nyc.Box().Contains(v.Latitude, v.Longitude))
	}
	assert.Equal(t, []string{"near", "tie-a", "tie-b", "far"}, ids, "ties keep row order")

	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].DistanceScore < got[j].DistanceScore
	}))
	assert.Equal(t, []string{"plumbing"}, got[0].ServiceCategories)
	assert.InDelta(t, 0.0002, got[0].DistanceScore, 1e-9)
}

func TestFindInRadius_CapsResults(t *testing.T) {
	rows := make([]map[string]any, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, vendorRow(fmt.Sprintf("v-%02d", i), 40.7128+float64(i)*0.0001, -74.0060, "active"))
	}
	e := NewGeoSearchEngine(&stubQuerier{rows: rows}, logger.Discard())

	got, err := e.FindInRadius(context.Background(), nyc)
	require.NoError(t, err)
	require.Len(t, got, domain.MaxGeoResults)
	assert.Equal(t, "v-00", got[0].ID)
	assert.Equal(t, "v-49", got[49].ID)
}

func TestFindInRadius_ValidatesBeforeQuerying(t *testing.T) {
	tests := []struct {
		name  string
		req   domain.GeoSearchRequest
		field string
	}{
		{"latitude", domain.GeoSearchRequest{Latitude: 91, Longitude: 0, RadiusKm: 1}, "latitude"},
		{"longitude", domain.GeoSearchRequest{Latitude: 0, Longitude: -181, RadiusKm: 1}, "longitude"},
		{"radius", domain.GeoSearchRequest{Latitude: 0, Longitude: 0, RadiusKm: 0}, "radius_km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuerier{}
			e := NewGeoSearchEngine(q, logger.Discard())

			_, err := e.FindInRadius(context.Background(), tt.req)
			require.True(t, domain.IsValidationError(err))
			var de *domain.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
			assert.Zero(t, q.calls)
		})
	}
}

func TestFindInRadius_PropagatesQueryErrors(t *testing.T) {
	boom := errors.New("relation \"vendors\" does not exist")
	e := NewGeoSearchEngine(&stubQuerier{err: boom}, logger.Discard())

	_, err := e.FindInRadius(context.Background(), nyc)
	assert.ErrorIs(t, err, boom)
}

func TestFindInRadius_PoleSpansAllLongitudes(t *testing.T) {
	q := &stubQuerier{rows: []map[string]any{
		vendorRow("station", 89.95, 170, "active"),
	}}
	e := NewGeoSearchEngine(q, logger.Discard())

	got, err := e.FindInRadius(context.Background(), domain.GeoSearchRequest{Latitude: 89.99, Longitude: -10, RadiusKm: 50})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, -180.0, q.args[5])
	assert.Equal(t, 180.0, q.args[6])
}

func TestAsStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, asStrings([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, asStrings([]any{"a", nil, "b"}))
	assert.Nil(t, asStrings(nil))
}
