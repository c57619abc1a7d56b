package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with read/write limits. WriteTimeout leaves room
// for a full assistant round trip.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      4 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

// Addr turns a bare port into a listen address.
func Addr(port string) string {
	if port == "" {
		port = "8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
