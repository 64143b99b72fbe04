package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"picshield/pkg/protect"
	"picshield/pkg/store"
)

func New(cfg Config, p *protect.Pipeline, st *store.Store, logger *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		p:   p,
		st:  st,
		log: logger.With(zap.String("via", "http")),
		srv: &http.Server{Addr: cfg.Addr, ReadHeaderTimeout: 10 * time.Second},
	}
}

type Server struct {
	cfg Config
	p   *protect.Pipeline
	st  *store.Store
	log *zap.Logger
	srv *http.Server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/images/upload", s.upload)
	mux.HandleFunc("GET /api/images", s.list)
	mux.HandleFunc("GET /api/images/download/{filename}", s.download)
	mux.HandleFunc("GET /processed/{filename}", s.processed)
	return s.logged(mux)
}

// Serve hooks the listener into the fx lifecycle.
func Serve(s *Server, lifecycle fx.Lifecycle, shutdowner fx.Shutdowner) {
	s.srv.Handler = s.Handler()

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.With(zap.String("addr", s.cfg.Addr)).Info("listening")
				if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					s.log.With(zap.Error(err)).Error("serve failed")
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.srv.Shutdown(ctx)
		},
	})
}

type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.With(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		).Debug("request")
	})
}
