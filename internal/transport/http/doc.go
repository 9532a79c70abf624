// Package http exposes the panel API: institution listings, per-institution
// panel rows, deposit-beta model fits, and build triggering, plus health and
// Prometheus metrics endpoints.
package http
