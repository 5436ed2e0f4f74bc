package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"etdbridge/internal/api"
	"etdbridge/internal/journal"
	"etdbridge/internal/logging"
	"etdbridge/internal/metrics"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

// newAPIServer returns nil when bind is empty; the nil server's methods are
// no-ops.
func newAPIServer(bind string, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" || d == nil {
		return nil, nil
	}
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/api/status", s.handleStatus)
	r.Route("/api/submissions", func(r chi.Router) {
		r.Get("/", s.handleSubmissions)
		r.Get("/{id}", s.handleSubmission)
	})
	r.Handle("/metrics", metrics.Handler())
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		LockFilePath: status.LockFilePath,
		JournalPath:  status.JournalPath,
		Destinations: s.daemon.cfg.DestinationNames(),
		Workflow:     api.FromStatusSummary(status.Workflow),
		Ledger: api.LedgerStatus{
			Dir:    status.LedgerDir,
			Seen:   len(status.Ledger.Seen),
			Broken: len(status.Ledger.Broken),
		},
		StateCounts: status.StateCounts,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	history := s.daemon.history
	if history == nil {
		s.writeJSON(w, http.StatusOK, api.SubmissionListResponse{Items: []api.Submission{}})
		return
	}
	query := r.URL.Query()
	filter := journal.Filter{Destination: strings.TrimSpace(query.Get("destination"))}
	for _, value := range query["state"] {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			filter.States = append(filter.States, trimmed)
		}
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	records, err := history.Recent(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmissionListResponse{Items: api.FromRecords(records)})
}

func (s *apiServer) handleSubmission(w http.ResponseWriter, r *http.Request) {
	history := s.daemon.history
	if history == nil {
		s.writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	rec, err := history.Get(r.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmissionResponse{Item: api.FromRecord(*rec)})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s == nil || s.logger == nil {
		return logging.NewNop()
	}
	return s.logger
}
