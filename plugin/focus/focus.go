// Package focus implements the Focus command protocol: a line based
// request/reply channel for inspecting and driving a running firmware.
//
// Commands are offered to every plugin implementing
// firmware.FocusEventHandler. This plugin answers the built-in ones and
// carries requests from other goroutines onto the firmware loop.
package focus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
)

// DefaultQueueSize is the number of requests that can wait for the loop.
const DefaultQueueSize = 16

var ErrBadArgument = errors.New("bad argument")

var commands = []string{
	"help",
	"plugins",
	"layer.activate",
	"layer.deactivate",
	"layer.isActive",
	"layer.moveTo",
	"layer.state",
	"layer.top",
	"keymap.live",
}

type request struct {
	line  string
	reply chan Reply
}

// Reply is the outcome of one command.
type Reply struct {
	Text string
	Err  error
}

// Plugin is the Focus plugin. Register it with the firmware so queued
// requests are executed at the end of every cycle.
type Plugin struct {
	requests chan request
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithQueueSize sets how many requests may wait for the loop.
func WithQueueSize(n int) Option {
	return func(p *Plugin) {
		if n > 0 {
			p.requests = make(chan request, n)
		}
	}
}

func New(opts ...Option) *Plugin {
	p := &Plugin{requests: make(chan request, DefaultQueueSize)}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Plugin) Name() string { return "Focus" }

// Dispatch hands line to the firmware loop and waits for its reply. It is
// safe to call from any goroutine. Unknown commands get an empty reply.
func (p *Plugin) Dispatch(ctx context.Context, line string) (string, error) {
	req := request{line: line, reply: make(chan Reply, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.Text, r.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Execute runs line right away. It must be called on the loop goroutine.
func Execute(fw *firmware.Context, line string) Reply {
	cmd := firmware.ParseFocusCommand(line)
	if cmd.Command == "" {
		return Reply{}
	}
	fw.OnFocusEvent(cmd)
	return Reply{Text: cmd.Result(), Err: cmd.Err()}
}

// AfterEachCycle executes every queued request.
func (p *Plugin) AfterEachCycle(fw *firmware.Context) firmware.Result {
	for {
		select {
		case req := <-p.requests:
			r := Execute(fw, req.line)
			fw.Logger().Debug("focus command", "command", req.line, "error", r.Err)
			req.reply <- r
		default:
			return firmware.Continue
		}
	}
}

// OnFocusEvent answers the built-in commands.
func (p *Plugin) OnFocusEvent(fw *firmware.Context, cmd *firmware.FocusCommand) firmware.Result {
	switch cmd.Command {
	case "help":
		cmd.Println(strings.Join(commands, "\n"))
		return firmware.Continue
	case "plugins":
		for _, name := range fw.Plugins() {
			cmd.Println(name)
		}
	case "layer.activate":
		if len(cmd.Args) == 0 {
			fw.Layers.ActivateNext()
			break
		}
		if n, ok := layerArg(fw, cmd, 0); ok {
			fw.Layers.Activate(n)
		}
	case "layer.deactivate":
		if len(cmd.Args) == 0 {
			fw.Layers.DeactivateTop()
			break
		}
		if n, ok := layerArg(fw, cmd, 0); ok {
			fw.Layers.Deactivate(n)
		}
	case "layer.isActive":
		if n, ok := layerArg(fw, cmd, 0); ok {
			cmd.Println(fw.Layers.IsActive(n))
		}
	case "layer.moveTo":
		if n, ok := layerArg(fw, cmd, 0); ok {
			fw.Layers.Move(n)
		}
	case "layer.state":
		layerState(fw, cmd)
	case "layer.top":
		cmd.Println(fw.Layers.Top())
	case "keymap.live":
		liveKeys(fw, cmd)
	default:
		return firmware.Continue
	}
	return firmware.Consumed
}

func layerArg(fw *firmware.Context, cmd *firmware.FocusCommand, i int) (uint8, bool) {
	if i >= len(cmd.Args) {
		cmd.Fail(fmt.Errorf("%w: %s needs a layer", ErrBadArgument, cmd.Command))
		return 0, false
	}
	n, err := strconv.ParseUint(cmd.Args[i], 10, 8)
	if err != nil || int(n) >= fw.Layers.Layers() {
		cmd.Fail(fmt.Errorf("%w: no layer %q", ErrBadArgument, cmd.Args[i]))
		return 0, false
	}
	return uint8(n), true
}

// layerState prints one 0/1 flag per layer, or sets the stack from such
// flags: the lowest flagged layer becomes the base, the others are
// activated on top of it in ascending order.
func layerState(fw *firmware.Context, cmd *firmware.FocusCommand) {
	if len(cmd.Args) == 0 {
		flags := make([]string, fw.Layers.Layers())
		for i := range flags {
			flags[i] = "0"
			if fw.Layers.IsActive(uint8(i)) {
				flags[i] = "1"
			}
		}
		cmd.Println(strings.Join(flags, " "))
		return
	}

	var set []uint8
	for i, a := range cmd.Args {
		switch a {
		case "0":
		case "1":
			if i >= fw.Layers.Layers() {
				cmd.Fail(fmt.Errorf("%w: no layer %d", ErrBadArgument, i))
				return
			}
			set = append(set, uint8(i))
		default:
			cmd.Fail(fmt.Errorf("%w: layer flag %q", ErrBadArgument, a))
			return
		}
	}
	if len(set) == 0 {
		fw.Layers.Move(0)
		return
	}
	fw.Layers.Move(set[0])
	for _, n := range set[1:] {
		fw.Layers.Activate(n)
	}
}

// liveKeys prints the live key table, prints one entry, or overwrites one
// entry and reports the result, for zero, two or three arguments.
func liveKeys(fw *firmware.Context, cmd *firmware.FocusCommand) {
	layout := fw.Layout()
	if len(cmd.Args) == 0 {
		for r := range layout.Rows {
			row := make([]string, layout.Cols)
			for c := range layout.Cols {
				row[c] = liveName(fw.Live.Get(layout.Addr(r, c)))
			}
			cmd.Println(strings.Join(row, " "))
		}
		return
	}
	if len(cmd.Args) != 2 && len(cmd.Args) != 3 {
		cmd.Fail(fmt.Errorf("%w: keymap.live takes no arguments, R C, or R C KEY", ErrBadArgument))
		return
	}

	r, errR := strconv.ParseUint(cmd.Args[0], 10, 8)
	c, errC := strconv.ParseUint(cmd.Args[1], 10, 8)
	a := layout.Addr(uint8(r), uint8(c))
	if errR != nil || errC != nil || a == key.AddrNone {
		cmd.Fail(fmt.Errorf("%w: no key at %s,%s", ErrBadArgument, cmd.Args[0], cmd.Args[1]))
		return
	}
	if len(cmd.Args) == 2 {
		cmd.Println(liveName(fw.Live.Get(a)))
		return
	}
	k, err := key.Parse(cmd.Args[2])
	if err != nil {
		cmd.Fail(fmt.Errorf("%w: %w", ErrBadArgument, err))
		return
	}
	fw.Live.Activate(a, k)
	fw.UpdateReport()
}

func liveName(k key.Key) string {
	if k == key.Inactive {
		return "-"
	}
	return k.String()
}
