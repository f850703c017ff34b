package domain

// CacheStatus is the outcome of a cache operation.
type CacheStatus int

const (
	// CacheOK means a write or delete reached the backend.
	CacheOK CacheStatus = iota
	// CacheHit means a live entry was found and decoded.
	CacheHit
	// CacheAbsent means the key was never set, has expired, or was removed.
	CacheAbsent
	// CacheUnavailable means the backend failed; Err holds the reason.
	CacheUnavailable
)

func (s CacheStatus) String() string {
	switch s {
	case CacheOK:
		return "ok"
	case CacheHit:
		return "hit"
	case CacheAbsent:
		return "absent"
	case CacheUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// CacheResult is returned by every cache operation in place of an error.
type CacheResult struct {
	Status CacheStatus
	// Count is the number of entries removed by a flush.
	Count int
	// Err is set only when Status is CacheUnavailable and wraps ErrCacheUnavailable.
	Err error
}

// OK reports whether the operation reached the backend.
func (r CacheResult) OK() bool {
	return r.Status != CacheUnavailable
}

// Hit reports whether a live value was returned.
func (r CacheResult) Hit() bool {
	return r.Status == CacheHit
}
