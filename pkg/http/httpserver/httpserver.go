package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	defaultShutdownTimeout = time.Second * 60
	defaultReadTimeout     = time.Second * 60
	defaultWriteTimeout    = time.Second * 60
)

type serverConfig struct {
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	handler         http.Handler
}

// HTTPServer is an http.Server bound to a TCP listener it owns,
// so the actual address is known once it is ready (e.g. for :0)
type HTTPServer struct {
	addr          *net.TCPAddr
	server        *http.Server
	cfg           *serverConfig
	closer        chan struct{}
	readyCallback func(net.Addr)

	mu       sync.Mutex
	listener *net.TCPListener
	stopped  bool
}

type Option func(*HTTPServer) error

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(c *HTTPServer) error {
		c.cfg.shutdownTimeout = timeout
		return nil
	}
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(c *HTTPServer) error {
		c.cfg.readTimeout = timeout
		return nil
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *HTTPServer) error {
		c.cfg.writeTimeout = timeout
		return nil
	}
}

func WithHandler(handler http.Handler) Option {
	return func(c *HTTPServer) error {
		c.cfg.handler = handler
		return nil
	}
}

func WithReadySignal(cb func(net.Addr)) Option {
	return func(s *HTTPServer) error {
		s.readyCallback = cb
		return nil
	}
}

func New(addr string, opts ...Option) (*HTTPServer, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	cfg := &serverConfig{
		// set defaults
		writeTimeout:    defaultWriteTimeout,
		readTimeout:     defaultReadTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}
	svr := &http.Server{Addr: addr} // nolint: gosec
	server := &HTTPServer{
		addr:   tcpAddr,
		cfg:    cfg,
		server: svr,
		closer: make(chan struct{}),
	}
	for _, opt := range opts {
		if optErr := opt(server); optErr != nil {
			return nil, optErr
		}
	}
	svr.WriteTimeout = cfg.writeTimeout
	svr.ReadTimeout = cfg.readTimeout
	svr.ReadHeaderTimeout = cfg.readTimeout
	svr.Handler = cfg.handler
	return server, nil
}

func (s *HTTPServer) ListenAndServe() error {
	fatal := make(chan error, 1)

	listener, err := net.ListenTCP("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	defer listener.Close()

	if s.readyCallback != nil {
		s.readyCallback(listener.Addr())
	}

	go func() {
		if err := s.server.Serve(listener); err != nil {
			fatal <- err
		}
	}()

	select {
	case err := <-fatal:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-s.closer:
		return nil
	}
}

// ListenAddr returns the bound address, or the configured one before the server has started
func (s *HTTPServer) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr()
}

// Stop shuts the server down, it is safe to call more than once
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.closer)
	stopCtx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("http server: shutdown %s: %w", s.addr, err)
	}
	return nil
}
