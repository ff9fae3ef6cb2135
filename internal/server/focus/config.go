package focus

import "time"

// ServerConfig configures the Focus TCP server.
type ServerConfig struct {
	Addr              string        `help:"Focus server listen address; empty disables it" default:"localhost:3243" env:"KEYPIPE_FOCUS_ADDR"`
	Password          string        `help:"Require clients to authenticate with this password" env:"KEYPIPE_FOCUS_PASSWORD"`
	ConnectionTimeout time.Duration `help:"Deadline for one request and its reply" default:"10s" env:"KEYPIPE_FOCUS_TIMEOUT"`
}
