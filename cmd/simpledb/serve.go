package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/simpledb/internal/audit"
	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/logger"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a health check and the audit log over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			conn, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			srv := &http.Server{
				Addr:              listen,
				Handler:           newRouter(conn, a.audit, a.log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			if !a.audit.Enabled() {
				a.log.Warn("audit log is disabled; statements are not recorded")
			}
			a.log.Infof("listening on %s", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("http server stopped")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8080", "Listen address")
	return cmd
}

// server holds the single Conn; mu serializes every use of it.
type server struct {
	mu    sync.Mutex
	conn  *database.Conn
	audit *audit.Log
	log   *logger.Logger
}

func newRouter(conn *database.Conn, auditLog *audit.Log, log *logger.Logger) http.Handler {
	s := &server{conn: conn, audit: auditLog, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(audit.ClientIPMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/audit/{date}", s.auditDay)
	return r
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, err := s.conn.Count(r.Context(), "SELECT 1")
	s.mu.Unlock()

	if err != nil {
		s.log.WarnWith("health check failed", err, map[string]any{"ip": audit.ClientIP(r.Context())})
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "error": errs.Cause(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "conn": s.conn.ConnString()})
}

func (s *server) auditDay(w http.ResponseWriter, r *http.Request) {
	day, err := audit.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := s.audit.Read(day)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.With().
		Str("date", day.Format(audit.DayLayout)).
		Int("records", len(records)).
		Logger().
		Debug("audit day served")
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = printJSON(w, v)
}
