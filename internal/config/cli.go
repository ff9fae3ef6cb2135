// Package config holds the root command line of keypipe.
package config

import (
	"github.com/Alia5/keypipe/internal/cmd"
	"github.com/Alia5/keypipe/internal/log"
)

// CLI is parsed by Kong. Flags may also come from a JSON, YAML or TOML
// configuration file and from KEYPIPE_* environment variables.
type CLI struct {
	Config string     `help:"Configuration file (.json, .yaml or .toml)" type:"path" env:"KEYPIPE_CONFIG"`
	Log    log.Config `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" help:"Run a keyboard firmware"`
	Keymap    cmd.KeymapCommand `cmd:"" help:"Inspect and convert keymap files"`
	Focus     cmd.Focus         `cmd:"" help:"Send a Focus command to a running instance"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file helpers"`
}
