package server

import (
	"context"
	"net/http"

	"github.com/relaygw/relay/config"
	"github.com/relaygw/relay/pkg/compressor"
	"github.com/relaygw/relay/pkg/session"
	"github.com/relaygw/relay/pkg/task"
	"github.com/relaygw/relay/server/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Server struct {
	*config.Config

	server *http.Server
}

func New(cfg *config.Config, sessions *session.Store, tasks *task.Manager, compress *compressor.Compressor) (*Server, error) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler, err := api.New(cfg, sessions, tasks, api.WithCompressor(compress))

	if err != nil {
		return nil, err
	}

	r.Route("/v1", func(r chi.Router) {
		handler.Attach(r)
	})

	s := &Server{
		Config: cfg,

		server: &http.Server{
			Addr:    cfg.Address,
			Handler: r,
		},
	}

	return s, nil
}

func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
