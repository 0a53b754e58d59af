// Package web serves the generated output directory over HTTP and
// optionally regenerates it on a cron schedule, for deployments that do not
// publish through a static-site pipeline.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magicien/Nij.iCal/internal/config"
	appLog "github.com/magicien/Nij.iCal/internal/log"
)

// Server exposes /health plus the output directory as static files.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	refresh func() error
}

// NewServer constructs a Server. refresh regenerates the output set; nil
// disables scheduled regeneration regardless of config.
func NewServer(cfg *config.Config, refresh func() error) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		refresh: refresh,
	}

	s.mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Handle("/", http.FileServer(http.Dir(cfg.OutputDir)))

	return s
}

// Handler returns the HTTP handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run blocks serving HTTP until ctx is canceled, regenerating output per
// the configured cron schedule.
func (s *Server) Run(ctx context.Context) error {
	if s.refresh != nil && s.cfg.RefreshCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.cfg.RefreshCron, func() {
			if err := s.refresh(); err != nil {
				appLog.Error("scheduled refresh failed", err)
			}
		}); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
		appLog.Info("refresh schedule active", "cron", s.cfg.RefreshCron)
	}

	srv := &http.Server{Addr: s.cfg.Listen, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Nij.iCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
