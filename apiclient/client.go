package apiclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Client wraps a Transport with typed helpers for the built-in commands.
type Client struct{ transport *Transport }

// New constructs a client without authentication.
func New(addr string) *Client {
	t, _ := NewTransport(addr, nil)
	return &Client{transport: t}
}

// NewWithPassword constructs a client that authenticates with password.
func NewWithPassword(addr, password string) (*Client, error) {
	cfg := defaultConfig()
	cfg.Password = password
	return NewWithConfig(addr, &cfg)
}

// NewWithConfig constructs a client with custom transport settings.
func NewWithConfig(addr string, cfg *Config) (*Client, error) {
	t, err := NewTransport(addr, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{transport: t}, nil
}

// Command sends a command with its arguments. An ApiError reply is
// returned as the error.
func (c *Client) Command(ctx context.Context, command string, args ...string) (string, error) {
	line := strings.Join(append([]string{command}, args...), " ")
	raw, err := c.transport.Do(ctx, line)
	if err != nil {
		return "", err
	}
	return Problem(raw)
}

func (c *Client) lines(ctx context.Context, command string) ([]string, error) {
	out, err := c.Command(ctx, command)
	if err != nil || out == "" {
		return nil, err
	}
	return strings.Split(out, "\n"), nil
}

// Help lists the commands every plugin answers.
func (c *Client) Help(ctx context.Context) ([]string, error) { return c.lines(ctx, "help") }

// Plugins lists the registered plugins.
func (c *Client) Plugins(ctx context.Context) ([]string, error) { return c.lines(ctx, "plugins") }

// LayerState returns one flag per layer.
func (c *Client) LayerState(ctx context.Context) ([]bool, error) {
	out, err := c.Command(ctx, "layer.state")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(out)
	state := make([]bool, len(fields))
	for i, f := range fields {
		switch f {
		case "0":
		case "1":
			state[i] = true
		default:
			return nil, fmt.Errorf("layer.state: unexpected flag %q", f)
		}
	}
	return state, nil
}

// SetLayerState replaces the layer stack from per-layer flags.
func (c *Client) SetLayerState(ctx context.Context, state []bool) error {
	args := make([]string, len(state))
	for i, on := range state {
		args[i] = "0"
		if on {
			args[i] = "1"
		}
	}
	_, err := c.Command(ctx, "layer.state", args...)
	return err
}

// ActivateLayer activates layer n.
func (c *Client) ActivateLayer(ctx context.Context, n uint8) error {
	_, err := c.Command(ctx, "layer.activate", strconv.Itoa(int(n)))
	return err
}

// DeactivateLayer deactivates layer n.
func (c *Client) DeactivateLayer(ctx context.Context, n uint8) error {
	_, err := c.Command(ctx, "layer.deactivate", strconv.Itoa(int(n)))
	return err
}

// MoveToLayer makes n the only active layer.
func (c *Client) MoveToLayer(ctx context.Context, n uint8) error {
	_, err := c.Command(ctx, "layer.moveTo", strconv.Itoa(int(n)))
	return err
}

// IsLayerActive reports whether layer n is active.
func (c *Client) IsLayerActive(ctx context.Context, n uint8) (bool, error) {
	out, err := c.Command(ctx, "layer.isActive", strconv.Itoa(int(n)))
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(out)
}

// TopLayer returns the topmost active layer.
func (c *Client) TopLayer(ctx context.Context) (uint8, error) {
	out, err := c.Command(ctx, "layer.top")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(out, 10, 8)
	return uint8(n), err
}
