package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/curaious/dashboard/internal/config"
	"github.com/curaious/dashboard/internal/services"
)

// Server is an HTTP Server with access to the dashboard services
type Server struct {
	srv      *fasthttp.Server
	addr     string
	conf     *config.Config
	services *services.Services
}

// New creates a new server serving svc on the configured port
func New(conf *config.Config, svc *services.Services) *Server {
	s := &Server{
		srv:      &fasthttp.Server{Name: "dashboard"},
		addr:     fmt.Sprintf("0.0.0.0:%s", conf.PORT),
		conf:     conf,
		services: svc,
	}

	s.srv.Handler = s.initNewRoutes()

	return s
}

// Handler exposes the routed handler, middlewares included.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.srv.Handler
}

// Start the rest server and block until SIGINT or SIGTERM
func (s *Server) Start() {
	slog.Info("Starting REST server...", slog.String("addr", s.addr))
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("REST server started!")

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block till we receive an interrupt
	<-c
	slog.Info("Received interrupt...")

	// Create a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

// Shutdown shuts down the rest server and releases the services
func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}
	if err := s.services.Close(); err != nil {
		slog.Error("Failed to release services", slog.Any("error", err))
	}
	slog.Info("REST server shutdown!")
}
