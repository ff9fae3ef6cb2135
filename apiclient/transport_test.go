package apiclient_test

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/Alia5/keypipe/apiclient"
	"github.com/Alia5/keypipe/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer answers one connection with response and reports the raw
// request it received.
func startTestServer(t *testing.T, response string) (addr string, got <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	ch := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		req, _ := bufio.NewReader(conn).ReadString('\x00')
		ch <- req
		_, _ = conn.Write([]byte(response))
	}()
	return ln.Addr().String(), ch
}

func TestTransportFraming(t *testing.T) {
	type testCase struct {
		name     string
		line     string
		response string
		request  string
		reply    string
	}

	cases := []testCase{
		{name: "bare command", line: "help", response: "help\nplugins\n", request: "help\x00", reply: "help\nplugins"},
		{name: "with args", line: "layer.activate 2", response: "\n", request: "layer.activate 2\x00", reply: ""},
		{name: "one newline trimmed", line: "keymap.live", response: "A B\n\n", request: "keymap.live\x00", reply: "A B\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr, got := startTestServer(t, tc.response)
			tr, err := apiclient.NewTransport(addr, nil)
			require.NoError(t, err)

			out, err := tr.Do(context.Background(), tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.reply, out)
			assert.Equal(t, tc.request, <-got)
		})
	}
}

func TestTransportRejectsNullByte(t *testing.T) {
	tr, err := apiclient.NewTransport("127.0.0.1:1", nil)
	require.NoError(t, err)
	_, err = tr.Do(context.Background(), "help\x00layer.state")
	assert.Error(t, err)
}

func TestTransportCancelledContext(t *testing.T) {
	tr, err := apiclient.NewTransport("127.0.0.1:1", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Do(ctx, "help")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProblem(t *testing.T) {
	out, err := apiclient.Problem("1 0 0")
	require.NoError(t, err)
	assert.Equal(t, "1 0 0", out)

	_, err = apiclient.Problem(`{"status":400,"title":"Bad Request","detail":"bad argument"}`)
	var p apitypes.ApiError
	require.ErrorAs(t, err, &p)
	assert.Equal(t, "400 Bad Request: bad argument", p.Error())
}

func TestClientHelpers(t *testing.T) {
	type testCase struct {
		name     string
		response string
		request  string
		call     func(c *apiclient.Client) (any, error)
		want     any
		wantErr  bool
	}

	ctx := context.Background()
	cases := []testCase{
		{
			name:     "layer state",
			response: "1 0 1\n",
			request:  "layer.state\x00",
			call:     func(c *apiclient.Client) (any, error) { return c.LayerState(ctx) },
			want:     []bool{true, false, true},
		},
		{
			name:     "set layer state",
			response: "\n",
			request:  "layer.state 0 1\x00",
			call:     func(c *apiclient.Client) (any, error) { return nil, c.SetLayerState(ctx, []bool{false, true}) },
		},
		{
			name:     "is active",
			response: "false\n",
			request:  "layer.isActive 3\x00",
			call:     func(c *apiclient.Client) (any, error) { return c.IsLayerActive(ctx, 3) },
			want:     false,
		},
		{
			name:     "top",
			response: "2\n",
			request:  "layer.top\x00",
			call:     func(c *apiclient.Client) (any, error) { return c.TopLayer(ctx) },
			want:     uint8(2),
		},
		{
			name:     "plugins",
			response: "Focus\nSpaceCadet\n",
			request:  "plugins\x00",
			call:     func(c *apiclient.Client) (any, error) { return c.Plugins(ctx) },
			want:     []string{"Focus", "SpaceCadet"},
		},
		{
			name:     "move",
			response: `{"status":400,"title":"Bad Request","detail":"no layer"}` + "\n",
			request:  "layer.moveTo 7\x00",
			call:     func(c *apiclient.Client) (any, error) { return nil, c.MoveToLayer(ctx, 7) },
			wantErr:  true,
		},
		{
			name:     "garbled state",
			response: "1 x\n",
			request:  "layer.state\x00",
			call:     func(c *apiclient.Client) (any, error) { return c.LayerState(ctx) },
			wantErr:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addr, got := startTestServer(t, tc.response)
			out, err := tc.call(apiclient.New(addr))
			assert.Equal(t, tc.request, <-got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.want != nil {
				assert.Equal(t, tc.want, out)
			}
		})
	}
}
