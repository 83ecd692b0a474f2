// Package observability holds the Prometheus collectors shared by the cache,
// the upstream client and the HTTP layer.
package observability
