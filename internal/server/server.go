package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/DocAssist/internal/adapter/utils"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/handlers"
	"github.com/akolanti/DocAssist/internal/middleware"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes registers every endpoint on the shared router.
func Routes() *chi.Mux {
	r := utils.GetRouter().Router

	r.Get("/", handlers.GetHandler)
	r.Get("/status/{id}", middleware.GetStatusHandler)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", middleware.PostIngestHandler)
		r.Get("/", middleware.ListDocumentsHandler)
		r.Delete("/{id}", middleware.DeleteDocumentHandler)
		r.Post("/{id}/toggle", middleware.ToggleDocumentHandler)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Post("/ask", middleware.AskHandler)
		r.Get("/history", middleware.HistoryHandler)
		r.Get("/sessions", middleware.SessionsHandler)
		r.Delete("/sessions/{sessionId}", middleware.DeleteSessionHandler)
		r.Get("/search", middleware.SearchHandler)
	})

	r.Get("/admin/usage", middleware.UsageHandler)
	return r
}

func CreateServer(listenAddr string) {
	_logger = logger_i.NewLogger("Server")

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "err", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
