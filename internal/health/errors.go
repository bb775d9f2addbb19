package health

import "errors"

var (
	// ErrAuthorizationDenied means the user declined read access, or the
	// capability is absent. Terminal until authorization is requested again.
	ErrAuthorizationDenied = errors.New("health authorization denied")

	// ErrProviderUnavailable means the health data source cannot be queried.
	ErrProviderUnavailable = errors.New("health data provider unavailable")

	// ErrQueryFailed is a transient query failure, safe to retry next cycle.
	ErrQueryFailed = errors.New("health query failed")

	// ErrNotAuthorized is returned by providers when a metric has no read grant.
	ErrNotAuthorized = errors.New("metric not authorized")

	// ErrUnitMismatch is returned for unknown units or units of another metric.
	ErrUnitMismatch = errors.New("unit mismatch")
)
