package music

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the catalog client, store and service
// layers. Callers match them with errors.Is.
var (
	// ErrNotFound indicates the requested entity exists neither locally
	// nor upstream.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the bearer token was missing, expired or
	// rejected by upstream. The web layer converts it to a login redirect.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotMaterialized indicates a stored entity is missing its audio
	// features link and cannot satisfy a features-requiring request.
	ErrNotMaterialized = errors.New("entity not fully materialized")
)

// ShapeError reports an upstream JSON payload missing a field this
// application depends on, such as an empty artist list or fewer than two
// album images. It is fatal to the resolve call that encountered it.
type ShapeError struct {
	Entity string
	Field  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("upstream %s payload missing %s", e.Entity, e.Field)
}

// UpstreamError reports a failed catalog request: either a transport
// failure (Status zero, Err set) or an unexpected HTTP status.
type UpstreamError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("catalog %s: unexpected status %d", e.Endpoint, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
