// Package server owns the route table and the *http.Server.
//
// Everything a request needs (the store, the logger) is passed in by the
// caller; there are no package-level handles.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/books-api/internal/config"
	"github.com/aanand-mishra/books-api/internal/http/handlers/book"
	"github.com/aanand-mishra/books-api/internal/storage"
	"github.com/aanand-mishra/books-api/internal/utils/response"
)

type Server struct {
	log     *slog.Logger
	storage storage.Storage
	http    *http.Server
	cfg     config.HTTPServer
}

// Routes registers every endpoint on a fresh mux.
//
//	GET    /books        → list all books
//	POST   /books        → create a new book
//	GET    /books/{id}   → get one book
//	PATCH  /books/{id}   → partially update a book
//	DELETE /books/{id}   → delete a book
//	GET    /healthz      → store liveness
func Routes(storage storage.Storage, log *slog.Logger) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /books", book.GetList(storage, log))
	router.HandleFunc("POST /books", book.New(storage, log))
	router.HandleFunc("GET /books/{id}", book.GetByID(storage, log))
	router.HandleFunc("PATCH /books/{id}", book.Update(storage, log))
	router.HandleFunc("DELETE /books/{id}", book.Delete(storage, log))
	router.HandleFunc("GET /healthz", health(storage, log))

	return router
}

func New(cfg config.HTTPServer, storage storage.Storage, log *slog.Logger) *Server {
	return &Server{
		log:     log,
		storage: storage,
		cfg:     cfg,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      Routes(storage, log),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
		},
	}
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Info("server started", slog.String("address", s.cfg.Addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is done or the listener fails, then shuts down.
// The store is closed on both paths.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	var startErr error
	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received, stopping server...")
	case startErr = <-errCh:
		if startErr != nil {
			s.log.Error("server encountered an error", slog.String("error", startErr.Error()))
		}
	}

	return errors.Join(startErr, s.Shutdown(context.WithoutCancel(ctx)))
}

// Shutdown stops accepting connections, waits up to the configured
// shutdown timeout for in-flight requests, then closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	httpErr := s.http.Shutdown(ctx)
	storeErr := s.storage.Close()

	return errors.Join(httpErr, storeErr)
}

func health(storage storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := storage.Ping(r.Context()); err != nil {
			log.Error("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(err))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.OK())
	}
}
