package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownGrace = 5 * time.Second

// Server exposes /metrics for the background processes, which have no API
// router of their own.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and prepares a scrape endpoint over gatherer. It does not
// serve until Serve is called.
func Listen(addr string, gatherer prometheus.Gatherer) (*Server, error) {
	if addr == "" {
		return nil, errors.New("metrics listen address is required")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return &Server{
		srv: &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr is the bound address, useful when Listen was given port 0.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks until ctx ends, then shuts down within shutdownGrace.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
