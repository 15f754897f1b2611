// ABOUTME: Gateway construction, HTTP routing, and server lifecycle
// ABOUTME: Wires the store, agent registry, and config into one http.Handler

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/parlorlabs/parlor/internal/agent"
	"github.com/parlorlabs/parlor/internal/config"
	"github.com/parlorlabs/parlor/internal/store"
)

// Gateway serves the HTTP API over a store and an agent registry
type Gateway struct {
	cfg      *config.Config
	store    store.Store
	registry *agent.Registry
	logger   *slog.Logger
	locks    *threadLocks
}

// New creates a Gateway
func New(cfg *config.Config, st store.Store, registry *agent.Registry) *Gateway {
	return &Gateway{
		cfg:      cfg,
		store:    st,
		registry: registry,
		logger:   slog.Default().With("component", "gateway"),
		locks:    newThreadLocks(),
	}
}

// Handler returns the routed HTTP handler with CORS applied
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/agents", g.handleAgents)
	mux.HandleFunc("/threads", g.handleThreads)
	mux.HandleFunc("/threads/", g.handleThreadSubroutes)
	mux.HandleFunc("/health", g.handleHealth)
	return corsMiddleware(mux)
}

// Run serves HTTP until the context is canceled, then shuts down gracefully
func (g *Gateway) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    g.cfg.Server.HTTPAddr,
		Handler: g.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	g.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// corsMiddleware allows browser clients from any origin and short-circuits
// preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
