package httpserver

import (
	"net/http"
	"time"
)

// New builds the service's HTTP server. Requests are short lookups and small
// writes, so the timeouts are tight; the batched hent-aktive endpoint is the
// slowest path and bounds the write timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
