package keymap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alia5/keypipe/key"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Format is a keymap file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported keymap file extension %q", filepath.Ext(path))
	}
}

// File is the on-disk representation of a keymap. Keys are written by
// name, one row per inner list.
type File struct {
	Layout key.Layout  `json:"layout" yaml:"layout" toml:"layout"`
	Layers []LayerFile `json:"layers" yaml:"layers" toml:"layers"`
}

// LayerFile is one layer of a File.
type LayerFile struct {
	Name string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Keys [][]string `json:"keys" yaml:"keys" toml:"keys"`
}

// Load reads a keymap file, choosing the decoder by extension.
func Load(path string) (*Keymap, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a keymap in the given format.
func Parse(data []byte, format Format) (*Keymap, error) {
	var f File
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported keymap format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s keymap: %w", format, err)
	}
	return f.Keymap()
}

// Keymap validates f and resolves its key names.
func (f *File) Keymap() (*Keymap, error) {
	layers := make([][]key.Key, len(f.Layers))
	for li, lf := range f.Layers {
		if len(lf.Keys) != int(f.Layout.Rows) {
			return nil, fmt.Errorf("layer %d: %d rows, want %d", li, len(lf.Keys), f.Layout.Rows)
		}
		keys := make([]key.Key, 0, f.Layout.Len())
		for r, row := range lf.Keys {
			if len(row) != int(f.Layout.Cols) {
				return nil, fmt.Errorf("layer %d row %d: %d keys, want %d", li, r, len(row), f.Layout.Cols)
			}
			for c, name := range row {
				k, err := key.Parse(name)
				if err != nil {
					return nil, fmt.Errorf("layer %d (%d,%d): %w", li, r, c, err)
				}
				keys = append(keys, k)
			}
		}
		layers[li] = keys
	}
	m, err := New(f.Layout, layers...)
	if err != nil {
		return nil, err
	}
	for i, lf := range f.Layers {
		if lf.Name != "" {
			m.names[i] = lf.Name
		}
	}
	return m, nil
}

// ToFile converts m back to its named representation.
func ToFile(m *Keymap) *File {
	f := &File{Layout: m.layout}
	for i := range m.layers {
		lf := LayerFile{Name: m.names[i]}
		for _, row := range m.Rows(uint8(i)) {
			names := make([]string, len(row))
			for c, k := range row {
				names[c] = k.String()
			}
			lf.Keys = append(lf.Keys, names)
		}
		f.Layers = append(f.Layers, lf)
	}
	return f
}

// Marshal encodes m in the given format.
func Marshal(m *Keymap, format Format) ([]byte, error) {
	f := ToFile(m)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatYAML:
		return yaml.Marshal(f)
	case FormatTOML:
		return toml.Marshal(f)
	default:
		return nil, fmt.Errorf("unsupported keymap format %q", format)
	}
}
