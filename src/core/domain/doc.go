// Package domain contains the value types and error taxonomy of the data-access core.
//
// This package defines:
//   - Pool configuration and statistics
//   - Query results
//   - Geospatial value objects (bounding box, search request, vendor)
//   - Error types shared by the pool, transaction, cache and geo layers
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (database, HTTP, etc.)
//   - Value objects are computed and returned, never retained by callers
package domain
