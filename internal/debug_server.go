package internal

import (
	"context"
	"encoding/json"
	"errors"
	"gatekeeper/observability"
	"gatekeeper/verification"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

const shutdownTimeout = 5 * time.Second

// SessionLister exposes the pending verification sessions.
type SessionLister interface {
	Snapshot() []verification.Session
}

type SessionView struct {
	UserID     int64     `json:"user_id"`
	GroupID    int64     `json:"group_id"`
	GroupTitle string    `json:"group_title"`
	JoinedAt   time.Time `json:"joined_at"`
	Deadline   time.Time `json:"deadline"`
	HasPhone   bool      `json:"has_phone"`
	State      string    `json:"state"`
}

// NewDebugHandler serves /metrics for Prometheus and /sessions as JSON.
func NewDebugHandler(metrics *observability.Metrics, sessions SessionLister) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		views := lo.Map(sessions.Snapshot(), func(s verification.Session, _ int) SessionView {
			return SessionView{
				UserID:     int64(s.UserID),
				GroupID:    int64(s.GroupID),
				GroupTitle: s.GroupTitle,
				JoinedAt:   s.JoinedAt,
				Deadline:   s.Deadline,
				HasPhone:   s.HasPhone,
				State:      s.State.String(),
			}
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	})
	return mux
}

// DebugServer runs the debug endpoints as a supervised worker.
type DebugServer struct {
	log    *slog.Logger
	server *http.Server
}

func NewDebugServer(log *slog.Logger, addr string, handler http.Handler) *DebugServer {
	return &DebugServer{
		log: log,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (d *DebugServer) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		d.log.Info("Starting debug server", "address", d.server.Addr)
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = d.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}
