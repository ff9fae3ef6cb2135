package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Alia5/keypipe/apiclient"
)

// Focus sends one Focus command to a running instance and prints the reply.
type Focus struct {
	Addr     string        `help:"Focus server address" default:"localhost:3243" env:"KEYPIPE_FOCUS_ADDR"`
	Password string        `help:"Focus password" env:"KEYPIPE_FOCUS_PASSWORD"`
	KeyFile  string        `help:"Read the Focus password from this file" env:"KEYPIPE_FOCUS_KEY_FILE"`
	Timeout  time.Duration `help:"Request timeout" default:"5s" env:"KEYPIPE_FOCUS_TIMEOUT"`
	Command  []string      `arg:"" help:"Command and its arguments, e.g. layer.activate 1"`
}

func (f *Focus) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), f.Timeout)
	defer cancel()
	return f.Send(ctx, os.Stdout)
}

// Send runs the command and writes the reply, if any, to w.
func (f *Focus) Send(ctx context.Context, w io.Writer) error {
	pwd := f.Password
	if pwd == "" && f.KeyFile != "" {
		b, err := os.ReadFile(f.KeyFile)
		if err != nil {
			return fmt.Errorf("read Focus key file: %w", err)
		}
		pwd = strings.TrimSpace(string(b))
	}
	cfg := &apiclient.Config{
		DialTimeout:  f.Timeout,
		ReadTimeout:  f.Timeout,
		WriteTimeout: f.Timeout,
		Password:     pwd,
	}
	c, err := apiclient.NewWithConfig(f.Addr, cfg)
	if err != nil {
		return err
	}
	if len(f.Command) == 0 {
		return fmt.Errorf("no command given")
	}
	out, err := c.Command(ctx, f.Command[0], f.Command[1:]...)
	if err != nil {
		return err
	}
	if out != "" {
		_, err = fmt.Fprintln(w, out)
	}
	return err
}
