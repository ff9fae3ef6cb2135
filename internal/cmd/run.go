package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alia5/keypipe/driver/gadget"
	"github.com/Alia5/keypipe/driver/scanner"
	"github.com/Alia5/keypipe/driver/storage"
	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/hid"
	"github.com/Alia5/keypipe/internal/configpaths"
	"github.com/Alia5/keypipe/internal/log"
	srvfocus "github.com/Alia5/keypipe/internal/server/focus"
	"github.com/Alia5/keypipe/internal/server/focus/auth"
	"github.com/Alia5/keypipe/keymap"
	"github.com/Alia5/keypipe/plugin/eepromkeymap"
	pfocus "github.com/Alia5/keypipe/plugin/focus"
	"github.com/Alia5/keypipe/plugin/spacecadet"
)

// Storage layout: SpaceCadet settings first, custom keymap layers from
// keymapBase on.
const (
	spaceCadetBase = 0
	keymapBase     = 16
)

// Run drives a keyboard firmware until interrupted or the input ends.
type Run struct {
	Keymap          string                `arg:"" help:"Keymap file (.json, .yaml or .toml)" type:"existingfile"`
	Input           string                `help:"Key source: a script file, - for a script on stdin, or tty" default:"tty" env:"KEYPIPE_INPUT"`
	Output          string                `help:"HID gadget node receiving reports, e.g. /dev/hidg0; empty discards them" env:"KEYPIPE_OUTPUT"`
	Format          string                `help:"Report format written to the output" enum:"boot,nkro" default:"boot" env:"KEYPIPE_FORMAT"`
	Storage         string                `help:"File backing persistent settings; empty keeps them in memory" env:"KEYPIPE_STORAGE"`
	CustomLayers    int                   `help:"Editable keymap layers kept in storage" default:"0" env:"KEYPIPE_CUSTOM_LAYERS"`
	SpaceCadet      bool                  `help:"Type ( and ) when a shift key is tapped alone" default:"true" negatable:"" env:"KEYPIPE_SPACECADET"`
	TapTimeout      time.Duration         `help:"Longest hold that still counts as a SpaceCadet tap" default:"200ms" env:"KEYPIPE_TAP_TIMEOUT"`
	Interval        time.Duration         `help:"Scan cycle interval" default:"1ms" env:"KEYPIPE_INTERVAL"`
	MaxActiveLayers int                   `help:"Most layers that may be active at once" default:"16" env:"KEYPIPE_MAX_ACTIVE_LAYERS"`
	FocusKeyFile    string                `help:"Read the Focus password from this file, creating a random one if missing" env:"KEYPIPE_FOCUS_KEY_FILE"`
	Focus           srvfocus.ServerConfig `embed:"" prefix:"focus."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Start(ctx, logger, rawLogger, os.Stdin)
}

// Start builds the firmware and runs it until ctx ends or the input is
// exhausted. stdin feeds the tty and - inputs.
func (r *Run) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger, stdin io.Reader) error {
	km, err := keymap.Load(r.Keymap)
	if err != nil {
		return err
	}
	layout := km.Layout()

	size := keymapBase
	if r.CustomLayers > 0 {
		size += eepromkeymap.Size(layout, r.CustomLayers)
	}
	store, err := r.openStorage(size)
	if err != nil {
		return err
	}

	var (
		src     keymap.Source = km
		plugins []firmware.Plugin
	)
	if r.SpaceCadet {
		plugins = append(plugins, spacecadet.New(
			spacecadet.WithTimeout(r.TapTimeout),
			spacecadet.WithSettingsAt(spaceCadetBase),
		))
	}
	if r.CustomLayers > 0 {
		ek, err := eepromkeymap.New(km, store, r.CustomLayers,
			eepromkeymap.WithBase(keymapBase), eepromkeymap.WithLogger(logger))
		if err != nil {
			return err
		}
		src = ek
		plugins = append(plugins, ek)
	}
	focus := pfocus.New()
	plugins = append(plugins, focus)

	var sink hid.Sink
	if r.Output != "" {
		dev, err := gadget.Open(r.Output)
		if err != nil {
			return err
		}
		defer dev.Close()
		ws, err := hid.NewWriterSink(dev, hid.Format(r.Format))
		if err != nil {
			return err
		}
		sink = ws
		plugins = append(plugins, gadget.NewLEDPoller(dev))
	}

	scan, closeScan, err := r.openInput(src, stdin, logger)
	if err != nil {
		return err
	}
	defer closeScan()

	kb := hid.NewKeyboard(sink, hid.WithLogger(logger), hid.WithRawLogger(rawLogger),
		hid.WithLEDCallback(func(s hid.LEDState) { logger.Debug("host LEDs", "state", s) }))
	fw := firmware.New(src, kb, plugins,
		firmware.WithLogger(logger),
		firmware.WithScanner(scan),
		firmware.WithStorage(store),
		firmware.WithInterval(r.Interval),
		firmware.WithMaxActiveLayers(r.MaxActiveLayers),
	)

	if r.Focus.Addr != "" {
		if r.Focus.Password == "" && r.FocusKeyFile != "" {
			if r.Focus.Password, err = loadOrCreatePassword(r.FocusKeyFile, logger); err != nil {
				return err
			}
		}
		srv, err := srvfocus.New(focus, r.Focus, logger)
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return fmt.Errorf("start Focus server: %w", err)
		}
		defer srv.Close()
	}

	logger.Info("Starting keypipe", "keymap", r.Keymap, "layers", src.Layers(),
		"rows", layout.Rows, "cols", layout.Cols, "input", r.Input, "output", r.Output)
	err = fw.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if cerr := store.Commit(); cerr != nil {
		logger.Error("commit storage", "error", cerr)
	}
	logger.Info("keypipe stopped", "top layer", fw.Layers.Top())
	return err
}

func (r *Run) openStorage(size int) (firmware.Storage, error) {
	if r.Storage == "" {
		return storage.NewMemory(size), nil
	}
	return storage.OpenFile(r.Storage, size)
}

func (r *Run) openInput(src keymap.Source, stdin io.Reader, logger *slog.Logger) (firmware.Scanner, func(), error) {
	switch r.Input {
	case "tty":
		t, err := scanner.NewTerminal(stdin, src, scanner.WithTerminalLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Reading keys from the terminal; press Ctrl-C to stop")
		return t, func() { _ = t.Close() }, nil
	case "-":
		s, err := scanner.ParseScript(stdin, src.Layout())
		return s, func() {}, err
	default:
		s, err := scanner.LoadScript(r.Input, src.Layout())
		return s, func() {}, err
	}
}

// loadOrCreatePassword reads a password file, or writes a fresh random
// password to it.
func loadOrCreatePassword(path string, logger *slog.Logger) (string, error) {
	if b, err := os.ReadFile(path); err == nil {
		if pwd := strings.TrimSpace(string(b)); pwd != "" {
			return pwd, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read Focus key file: %w", err)
	}

	pwd, err := auth.GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("generate Focus password: %w", err)
	}
	if err := configpaths.EnsureDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(pwd+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write Focus key file: %w", err)
	}
	logger.Info("Generated Focus password", "path", path)
	return pwd, nil
}
