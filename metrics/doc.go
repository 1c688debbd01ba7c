// Package metrics exposes Prometheus instrumentation for the search,
// recommendation, catalog and HTTP layers.
//
// Collectors are registered on the default registry at init through promauto;
// serve them with promhttp.Handler(). The Record* helpers are safe for
// concurrent use.
package metrics
