// Package apiclient talks to a keypipe Focus server.
package apiclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/Alia5/keypipe/apitypes"
	"github.com/Alia5/keypipe/internal/server/focus/auth"
)

// Config controls low-level transport behavior such as timeouts.
type Config struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Password     string
}

func defaultConfig() Config {
	return Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Transport sends one Focus request per connection.
// Request framing: `<command>[ SP <args>] \x00`. The server answers with one
// text block terminated by `\n` and closes the connection, so the reply is
// read until EOF and a single trailing newline is trimmed.
type Transport struct {
	addr string
	cfg  Config
	key  []byte
}

// NewTransport creates a transport. A nil cfg uses the defaults.
func NewTransport(addr string, cfg *Config) (*Transport, error) {
	c := defaultConfig()
	if cfg != nil {
		c = *cfg
	}
	t := &Transport{addr: addr, cfg: c}
	if c.Password != "" {
		key, err := auth.DeriveKey(c.Password)
		if err != nil {
			return nil, err
		}
		t.key = key
	}
	return t, nil
}

// Do sends line and returns the raw reply without its trailing newline.
func (t *Transport) Do(ctx context.Context, line string) (string, error) {
	if strings.ContainsRune(line, '\x00') {
		return "", errors.New("request contains a null byte")
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	d := &net.Dialer{Timeout: t.cfg.DialTimeout}
	raw, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return "", fmt.Errorf("dial: %w", err)
	}
	defer raw.Close()

	if tcp, ok := raw.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(dl)
	}
	if t.cfg.WriteTimeout > 0 {
		_ = raw.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}

	var conn net.Conn = raw
	if t.key != nil {
		sess, err := auth.Client(bufio.NewReader(raw), raw, t.key)
		if err != nil {
			return "", err
		}
		sealed, err := auth.Seal(raw, sess.Key(t.key), auth.RoleClient)
		if err != nil {
			return "", err
		}
		conn = sealed
	}

	if _, err := conn.Write([]byte(line + "\x00")); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	if t.cfg.ReadTimeout > 0 {
		_ = raw.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	resp, err := io.ReadAll(conn)
	if err != nil && len(resp) == 0 {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.TrimSuffix(string(resp), "\n"), nil
}

// Problem turns an ApiError reply into an error; text replies pass through.
func Problem(reply string) (string, error) {
	if p, ok := apitypes.ParseProblem(reply); ok {
		return "", p
	}
	return reply, nil
}
