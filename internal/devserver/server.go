// Package devserver implements an in-memory fake of the assistant backend for
// local development and end-to-end tests. It serves the thread, message and
// run endpoints the client uses, plus /add-subscriber and an OpenAI-compatible
// /chat/completions used for article ranking.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Backland-Labs/waitlist/internal/logger"
)

// ErrServerRunning is returned when attempting to start an already running server
var ErrServerRunning = errors.New("server is already running")

// Subscriber stores the addresses posted to /add-subscriber
type Subscriber interface {
	Subscribe(ctx context.Context, email string) error
}

// Server serves a Backend over HTTP
type Server struct {
	port        int
	backend     *Backend
	subscribers Subscriber
	httpServer  *http.Server
	listener    net.Listener
	mu          sync.Mutex
	running     bool
}

// NewServer creates a server for backend on port. Port 0 picks a free port
// on localhost. subscribers may be nil, in which case subscriptions are only
// logged.
func NewServer(port int, backend *Backend, subscribers Subscriber) *Server {
	logger.WithField("port", port).Debug("Creating dev server")
	return &Server{
		port:        port,
		backend:     backend,
		subscribers: subscribers,
	}
}

// Handler returns the server's routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	middleware := logger.HTTPMiddleware(logger.GetLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /threads/create", s.createThreadHandler)
	mux.HandleFunc("POST /messages/create", s.createMessageHandler)
	mux.HandleFunc("POST /threads/{threadId}/runs/create", s.createRunHandler)
	mux.HandleFunc("GET /threads/{threadId}/runs/{runId}", s.getRunHandler)
	mux.HandleFunc("POST /threads/{threadId}/runs/{runId}/submit_tool_outputs", s.submitToolOutputsHandler)
	mux.HandleFunc("GET /threads/{threadId}/messages", s.listMessagesHandler)
	mux.HandleFunc("POST /add-subscriber", s.addSubscriberHandler)
	mux.HandleFunc("POST /chat/completions", s.chatCompletionsHandler)

	return middleware(mux)
}

// Start listens and serves until ctx is canceled. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerRunning
	}
	s.running = true
	s.mu.Unlock()

	addr := fmt.Sprintf("0.0.0.0:%d", s.port)
	if s.port == 0 {
		addr = "localhost:0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.setStopped()
		logger.WithFields(map[string]interface{}{
			"error":   err.Error(),
			"address": addr,
		}).Error("Failed to create listener")
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logger.WithField("address", listener.Addr().String()).Info("Dev server listening")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithField("error", err.Error()).Error("Error during server shutdown")
		}
	}()

	err = httpServer.Serve(listener)
	s.setStopped()

	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Dev server shut down gracefully")
	} else if err != nil {
		logger.WithField("error", err.Error()).Error("Server error")
	}
	return err
}

// Address returns the address the server is listening on, or "" when it is
// not running
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) setStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.listener = nil
}
