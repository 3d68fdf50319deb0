package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"
)

// ServerConfig carries the listener address and timeouts of the HTTP server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewHTTPServer builds the http.Server for h. Request contexts derive from a
// base context that is cancelled as soon as Shutdown starts, so long-lived
// responses such as the audit stream end instead of holding Shutdown until
// its deadline.
func NewHTTPServer(h http.Handler, cfg ServerConfig) *http.Server {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
