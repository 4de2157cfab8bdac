// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers and bodies
//   • WriteTimeout  – cap total response time; must exceed the form
//                     processing delay or confirmations are cut off
//   • IdleTimeout   – close keep-alives on idle clients
//
// Values come from the http section of the config; zero falls back to the
// defaults below.
//

package server

import (
	"net/http"
	"time"
)

// Timeouts configures the server.  Zero fields use the package defaults.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

const (
	DefaultRead  = 10 * time.Second
	DefaultWrite = 15 * time.Second
	DefaultIdle  = 60 * time.Second
)

// New constructs an *http.Server with the given timeouts.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       orDefault(t.Read, DefaultRead),
		ReadHeaderTimeout: orDefault(t.Read, DefaultRead),
		WriteTimeout:      orDefault(t.Write, DefaultWrite),
		IdleTimeout:       orDefault(t.Idle, DefaultIdle),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
