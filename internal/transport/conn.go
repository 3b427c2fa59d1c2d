package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultDeadline bounds one request/response exchange on a socket.
const DefaultDeadline = 30 * time.Second

// Conn sends a request and waits for its response.
type Conn interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Loopback is an in-process Conn. Requests and responses are JSON encoded
// on the way through so both sides only share what the wire carries.
type Loopback struct {
	Handler *Handler
}

func (l Loopback) Send(ctx context.Context, req Request) (Response, error) {
	var wireReq Request
	if err := roundTrip(req, &wireReq); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	resp := l.Handler.Handle(ctx, wireReq)

	var wireResp Response
	if err := roundTrip(resp, &wireResp); err != nil {
		return Response{}, fmt.Errorf("encode response: %w", err)
	}
	return wireResp, nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Server serves a Handler on a Unix socket, one request per connection.
type Server struct {
	socketPath string
	handler    *Handler
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	shutdown bool
	wg       sync.WaitGroup
}

// NewServer creates a Server. logger may be nil.
func NewServer(socketPath string, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{socketPath: socketPath, handler: handler, logger: logger}
}

// ListenAndServe blocks until ctx is cancelled or Close is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// Clean up any stale socket
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	defer func() { _ = os.Remove(s.socketPath) }()

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("server listening", "socket", s.socketPath)

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				break
			}
			s.logger.Error("accept", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, conn)
		}()
	}

	s.wg.Wait()
	return ctx.Err()
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(DefaultDeadline)); err != nil {
		s.logger.Warn("set deadline", "error", err)
	}

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		_ = json.NewEncoder(conn).Encode(failure("", fmt.Errorf("parse request: %w", err)))
		return
	}

	if err := json.NewEncoder(conn).Encode(s.handler.Handle(ctx, req)); err != nil {
		s.logger.Warn("write response", "action", req.Action, "error", err)
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// SocketConn is a Conn to a Server.
type SocketConn struct {
	Path    string
	Timeout time.Duration
}

func (c SocketConn) Send(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return Response{}, fmt.Errorf("connect to %s: %w", c.Path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("receive response: %w", err)
	}
	return resp, nil
}
