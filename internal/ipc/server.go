package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
)

// Handler processes one decoded command.
type Handler func(Command) Response

// Server listens on a unix socket and dispatches commands to a handler.
type Server struct {
	path    string
	handler Handler
	logger  *zap.Logger
	ln      net.Listener
}

// NewServer prepares a server for the socket path.
func NewServer(path string, handler Handler, logger *zap.Logger) *Server {
	return &Server{path: path, handler: handler, logger: logger}
}

// Listen binds the socket, replacing a stale one left by a crashed
// process. A socket with a live daemon behind it is an error.
func (s *Server) Listen() error {
	if _, err := os.Stat(s.path); err == nil {
		if _, err := Dial(s.path, Command{Action: ActionStatus}, time.Second); err == nil {
			return fmt.Errorf("daemon already running on %s", s.path)
		}
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
		s.logger.Debug("removed stale socket", zap.String("path", s.path))
	}
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.path, err)
	}
	s.ln = ln
	return nil
}

// Serve accepts connections until ctx is cancelled. Each connection
// carries exactly one command.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.ln.Close()
		os.Remove(s.path)
	}()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("ipc accept failed", zap.Error(err))
			continue
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	var cmd Command
	if err := json.NewDecoder(conn).Decode(&cmd); err != nil {
		s.logger.Debug("ipc decode failed", zap.Error(err))
		return
	}
	resp := s.handler(cmd)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Debug("ipc encode failed", zap.Error(err))
	}
}

// Dial sends one command to a running daemon and returns its response.
func Dial(path string, cmd Command, timeout time.Duration) (Response, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return Response{}, fmt.Errorf("daemon not reachable at %s: %w", path, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return Response{}, fmt.Errorf("send command: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
