// Package focus serves Focus commands over TCP.
//
// A request is `<command>[ SP <args>]\x00`. The reply is the command's text
// followed by "\n", or an ApiError as JSON followed by "\n"; the server then
// closes the connection. With a password configured every connection must
// open with the auth handshake and is sealed afterwards.
package focus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/keypipe/apitypes"
	"github.com/Alia5/keypipe/internal/server/focus/auth"
	pfocus "github.com/Alia5/keypipe/plugin/focus"
)

// MaxRequestSize bounds one request line.
const MaxRequestSize = 64 * 1024

const drainTimeout = time.Second

// Dispatcher runs one Focus command line and returns its reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, line string) (string, error)
}

// Server accepts Focus connections and hands each request to a Dispatcher.
type Server struct {
	d      Dispatcher
	config ServerConfig
	key    []byte
	logger *slog.Logger

	mu     sync.Mutex
	ln     net.Listener
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. The password, if any, is stretched once here.
func New(d Dispatcher, config ServerConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{d: d, config: config, logger: logger}
	if config.Password != "" {
		key, err := auth.DeriveKey(config.Password)
		if err != nil {
			return nil, err
		}
		s.key = key
	}
	return s, nil
}

// Config returns the server configuration.
func (s *Server) Config() ServerConfig { return s.config }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	s.logger.Info("Focus listening", "addr", ln.Addr().String(), "auth", s.key != nil)
	s.wg.Add(1)
	go s.serve(ln)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting, cancels pending requests and waits for open
// connections to finish.
func (s *Server) Close() {
	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	s.mu.Unlock()
	if ln == nil {
		return
	}
	_ = ln.Close()
	cancel()
	s.wg.Wait()
}

func (s *Server) serve(ln net.Listener) {
	defer s.wg.Done()
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("Focus server stopped")
			} else {
				s.logger.Error("Focus accept error", "error", err)
			}
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(c)
		}()
	}
}

func writeError(w io.Writer, err error) {
	b, _ := json.Marshal(apitypes.WrapError(err))
	fmt.Fprintf(w, "%s\n", b)
}

func writeOK(w io.Writer, text string) {
	fmt.Fprintf(w, "%s\n", strings.TrimSuffix(text, "\n"))
}

func (s *Server) handleConn(raw net.Conn) {
	defer raw.Close()

	ctx := s.ctx
	if s.config.ConnectionTimeout > 0 {
		_ = raw.SetDeadline(time.Now().Add(s.config.ConnectionTimeout))
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ConnectionTimeout)
		defer cancel()
	}

	logger := s.logger.With("remote", raw.RemoteAddr().String())
	var conn net.Conn = raw
	r := bufio.NewReader(raw)

	if s.key != nil {
		sess, err := auth.Server(r, raw, s.key)
		if err != nil {
			logger.Warn("Focus handshake failed", "error", err)
			writeError(raw, err)
			drainClose(raw, r)
			return
		}
		sealed, err := auth.Seal(raw, sess.Key(s.key), auth.RoleServer)
		if err != nil {
			logger.Error("Focus seal", "error", err)
			return
		}
		conn = sealed
		// Bytes sent past the handshake are sealed, so nothing may stay buffered.
		if r.Buffered() > 0 {
			logger.Warn("Focus client sent data before the handshake completed")
			return
		}
		r = bufio.NewReader(sealed)
	}

	line, err := readRequest(r)
	if err != nil {
		logger.Error("Focus read request", "error", err)
		if !errors.Is(err, io.EOF) {
			writeError(conn, err)
		}
		return
	}
	switch {
	case line == "":
		writeError(conn, apitypes.ErrBadRequest("empty request"))
		return
	case line+"\x00" == auth.Magic:
		writeError(conn, apitypes.ErrBadRequest("server does not require authentication"))
		return
	}

	logger.Info("Focus cmd", "command", commandOf(line))
	reply, err := s.d.Dispatch(ctx, line)
	if s.config.ConnectionTimeout > 0 {
		_ = raw.SetWriteDeadline(time.Now().Add(s.config.ConnectionTimeout))
	}
	if err != nil {
		logger.Warn("Focus command failed", "command", commandOf(line), "error", err)
		writeError(conn, classify(err))
		return
	}
	writeOK(conn, reply)
}

// drainClose half-closes c and discards what the peer still sends, so the
// reply is not lost to a reset caused by unread input.
func drainClose(c net.Conn, r io.Reader) {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	_ = c.SetReadDeadline(time.Now().Add(drainTimeout))
	_, _ = io.Copy(io.Discard, io.LimitReader(r, MaxRequestSize))
}

func readRequest(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		chunk, err := r.ReadSlice('\x00')
		b.Write(chunk)
		if b.Len() > MaxRequestSize {
			return "", apitypes.ErrBadRequest("request too large")
		}
		switch {
		case err == nil:
			return strings.TrimSpace(strings.TrimSuffix(b.String(), "\x00")), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && b.Len() > 0:
			return "", apitypes.ErrBadRequest("incomplete request (no null terminator)")
		default:
			return "", err
		}
	}
}

func commandOf(line string) string {
	cmd, _, _ := strings.Cut(line, " ")
	return cmd
}

func classify(err error) error {
	switch {
	case errors.Is(err, pfocus.ErrBadArgument):
		return apitypes.ErrBadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apitypes.ErrTimeout("firmware did not answer in time")
	case errors.Is(err, context.Canceled):
		return apitypes.ErrInternal("server shutting down")
	}
	return err
}
