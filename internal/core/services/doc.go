// Package services holds the docs-agent core: ingestion, answering, the
// project registry and settings.
//
// Services reach providers only through a RuntimeHolder, so credentials can
// be swapped or scoped to a single request without touching the services.
package services
