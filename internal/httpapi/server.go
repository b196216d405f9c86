// Package httpapi serves the live status of a running benchmark. It is
// read-only and never influences monitoring.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/downtimebench/internal/httpapi/middleware"
	"github.com/hamed0406/downtimebench/internal/report"
	"github.com/hamed0406/downtimebench/internal/repo"
	"github.com/hamed0406/downtimebench/internal/scheduler"
)

// StatusSource is the part of the monitor the server reads from.
type StatusSource interface {
	Phase() scheduler.Phase
	Statuses() []scheduler.TargetStatus
	Snapshot() report.Report
}

type Server struct {
	Logger  *zap.Logger
	Status  StatusSource
	Results repo.ResultStore
	Keys    []string
}

func NewServer(l *zap.Logger, status StatusSource, rs repo.ResultStore, keys []string) *Server {
	return &Server{Logger: l, Status: status, Results: rs, Keys: keys}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireKey(s.Keys))
		r.Get("/api/targets", s.handleTargets)
		r.Get("/api/report", s.handleReport)
	})

	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("status_server_shutdown_error", zap.Error(err))
		}
	})
	defer stop()

	s.Logger.Info("status_server_listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type targetView struct {
	scheduler.TargetStatus
	Latest *repo.LatestRow `json:"latest,omitempty"`
}

type targetsResponse struct {
	Phase   string       `json:"phase"`
	Targets []targetView `json:"targets"`
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	latest := map[string]repo.LatestRow{}
	if s.Results != nil {
		rows, err := s.Results.Latest(r.Context())
		if err != nil {
			s.Logger.Error("latest_results_error", zap.Error(err))
			http.Error(w, "results error", http.StatusInternalServerError)
			return
		}
		for _, row := range rows {
			latest[row.Target] = row
		}
	}

	resp := targetsResponse{Phase: s.Status.Phase().String(), Targets: []targetView{}}
	for _, st := range s.Status.Statuses() {
		v := targetView{TargetStatus: st}
		if row, ok := latest[st.Target.Name]; ok {
			v.Latest = &row
		}
		resp.Targets = append(resp.Targets, v)
	}
	writeJSON(w, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Status.Snapshot())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
