// Package metrics registers the prometheus collectors shared across the
// application. Collectors are created with promauto so importing packages
// can increment them without extra wiring; cmd/web exposes the registry on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPRequests counts handled HTTP requests by method and status class.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tunelens_http_requests_total",
	Help: "Handled HTTP requests.",
}, []string{"method", "status"})

// UpstreamRequests counts outbound catalog API calls by endpoint and
// outcome (ok, not_found, unauthorized, error).
var UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tunelens_catalog_requests_total",
	Help: "Outbound catalog API requests.",
}, []string{"endpoint", "outcome"})

// Materializations counts resolve operations by entity kind and outcome
// (hit, miss, error). A miss is a successful first-time materialization.
var Materializations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tunelens_materializations_total",
	Help: "Read-through cache resolutions.",
}, []string{"kind", "outcome"})
