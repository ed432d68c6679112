// Package httpserver builds the API server with timeouts from configuration.
package httpserver

import (
	"net/http"

	"loancore/internal/platform/config"
)

// New builds an HTTP server for the given handler. All timeouts come from
// cfg; zero values disable the corresponding timeout.
func New(addr string, cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
