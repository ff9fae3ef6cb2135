package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Alia5/keypipe/internal/configpaths"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit writes a configuration file holding every flag of a command
// with its default value.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for" enum:"run,focus"`
	Format  string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output  string `help:"Destination file path (defaults to <command>.<format> in the working directory)"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

func (c *ConfigInit) Run() error {
	var cmd any
	switch c.Command {
	case "run":
		cmd = Run{}
	case "focus":
		cmd = Focus{}
	default:
		return fmt.Errorf("unknown command %q; expected run or focus", c.Command)
	}
	data, err := Template(cmd, c.Format)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		dest = c.Command + "." + c.Format
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s exists; use --force to overwrite", dest)
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

// Template renders the flags of cmd, a Kong command struct, with their
// defaults. Keys follow the Kong configuration loaders: snake_case names,
// one nested table per embedded prefix.
func Template(cmd any, format string) ([]byte, error) {
	root := templateMap(reflect.TypeOf(cmd))
	switch format {
	case "json":
		return json.MarshalIndent(root, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(root)
	case "toml":
		return toml.Marshal(root)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

func templateMap(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := range t.NumField() {
		f := t.Field(i)
		_, isArg := f.Tag.Lookup("arg")
		_, isCmd := f.Tag.Lookup("cmd")
		if !f.IsExported() || f.Tag.Get("kong") == "-" || isArg || isCmd {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			sub := templateMap(f.Type)
			if prefix := strings.TrimSuffix(f.Tag.Get("prefix"), "."); prefix != "" {
				out[snakeCase(prefix)] = sub
				continue
			}
			for k, v := range sub {
				out[k] = v
			}
			continue
		}

		name := f.Tag.Get("name")
		if name == "" {
			name = f.Name
		}
		if v := defaultValue(f.Type, f.Tag.Get("default")); v != nil {
			out[snakeCase(name)] = v
		}
	}
	return out
}

// snakeCase turns MaxActiveLayers and max-active-layers into
// max_active_layers.
func snakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == '-' || r == '.':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}

func defaultValue(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeFor[time.Duration]() {
		if def == "" {
			return "0s"
		}
		return def
	}
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Float32, reflect.Float64:
		f, _ := strconv.ParseFloat(def, 64)
		return f
	case reflect.Struct:
		return templateMap(t)
	case reflect.Slice:
		if def == "" {
			return []string{}
		}
		return strings.Split(def, ",")
	}
	return nil
}
