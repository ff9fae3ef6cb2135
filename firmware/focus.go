package firmware

import (
	"fmt"
	"io"
	"strings"
)

// FocusCommand is one Focus protocol request together with its reply.
type FocusCommand struct {
	// Command is the command name, e.g. "layer.activate".
	Command string
	// Args are the whitespace separated arguments.
	Args []string

	reply strings.Builder
	err   error
}

// ParseFocusCommand splits a request line into command and arguments.
func ParseFocusCommand(line string) *FocusCommand {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return &FocusCommand{}
	}
	return &FocusCommand{Command: fields[0], Args: fields[1:]}
}

// Is reports whether the command is name.
func (c *FocusCommand) Is(name string) bool { return c.Command == name }

// Reply returns the writer the reply goes to.
func (c *FocusCommand) Reply() io.Writer { return &c.reply }

// Println appends a line to the reply.
func (c *FocusCommand) Println(a ...any) {
	_, _ = fmt.Fprintln(&c.reply, a...)
}

// Printf appends formatted text to the reply.
func (c *FocusCommand) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(&c.reply, format, a...)
}

// Result returns the reply text without its trailing newline.
func (c *FocusCommand) Result() string {
	return strings.TrimRight(c.reply.String(), "\n")
}

// Fail records that the command could not be carried out. The first
// failure wins.
func (c *FocusCommand) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Err returns the failure recorded by Fail.
func (c *FocusCommand) Err() error { return c.err }
