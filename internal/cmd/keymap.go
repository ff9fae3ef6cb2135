package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Alia5/keypipe/internal/configpaths"
	"github.com/Alia5/keypipe/keymap"
)

// KeymapCommand groups keymap file subcommands.
type KeymapCommand struct {
	Show    KeymapShow    `cmd:"" help:"Print every layer of a keymap file by key name"`
	Convert KeymapConvert `cmd:"" help:"Rewrite a keymap file in another format"`
}

type KeymapShow struct {
	File string `arg:"" help:"Keymap file" type:"existingfile"`
}

func (c *KeymapShow) Run() error { return c.Print(os.Stdout) }

// Print writes one block per layer, keys aligned in columns.
func (c *KeymapShow) Print(w io.Writer) error {
	km, err := keymap.Load(c.File)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for n := range km.Layers() {
		if n > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "# layer %d", n)
		if name := km.Name(uint8(n)); name != "" {
			fmt.Fprintf(tw, " (%s)", name)
		}
		fmt.Fprintln(tw)
		for _, row := range km.Rows(uint8(n)) {
			for i, k := range row {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, k)
			}
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}

type KeymapConvert struct {
	File   string `arg:"" help:"Keymap file" type:"existingfile"`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file; stdout when empty"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (c *KeymapConvert) Run() error {
	km, err := keymap.Load(c.File)
	if err != nil {
		return err
	}
	data, err := keymap.Marshal(km, keymap.Format(c.Format))
	if err != nil {
		return err
	}
	if c.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil {
			return fmt.Errorf("%s exists; use --force to overwrite", c.Output)
		}
	}
	if err := configpaths.EnsureDir(c.Output); err != nil {
		return err
	}
	return os.WriteFile(c.Output, data, 0o644)
}
