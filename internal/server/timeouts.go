// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   - ReadTimeout   abort slow-loris headers (10 s)
//   - WriteTimeout  cap total response time (15 s)
//   - IdleTimeout   close keep-alives on idle clients (60 s)
//
// Zero values in Timeouts fall back to those defaults.
package server

import (
	"net/http"
	"time"
)

// Timeouts overrides the defaults; zero fields keep them.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       orDefault(t.Read, 10*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      orDefault(t.Write, 15*time.Second),
		IdleTimeout:       orDefault(t.Idle, 60*time.Second),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
