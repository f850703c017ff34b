// Package repo contains PostgreSQL read models built on ports.Querier.
//
// Statements are assembled with Masterminds/squirrel using Dollar
// placeholders and executed through the pool, so they share its timeouts,
// tracing and slow-query logging. Rows arrive as column maps and are decoded
// here into domain types.
//
//	engine := repo.NewGeoSearchEngine(pool, log)
//	vendors, err := engine.FindInRadius(ctx, domain.GeoSearchRequest{
//	    Latitude: 40.7128, Longitude: -74.0060, RadiusKm: 10,
//	})
package repo
