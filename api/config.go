// Package api provides the HTTP API server for the adjacent system: item
// ingest, related-item queries, and enrichment job status.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}

// ErrorResponse is the JSON error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
