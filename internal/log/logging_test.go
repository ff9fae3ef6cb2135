package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/Alia5/keypipe/internal/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	type testCase struct {
		in   string
		want slog.Level
	}
	cases := []testCase{
		{"trace", log.LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, log.ParseLevel(tc.in))
		})
	}
}

func TestConsoleSplit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := log.NewLogger(log.LevelTrace, &stdout, &stderr, nil)

	l.Log(context.Background(), log.LevelTrace, "scan")
	l.Info("ready")
	l.Error("sink failed")

	assert.Contains(t, stdout.String(), "level=TRACE msg=scan")
	assert.Contains(t, stdout.String(), "msg=ready")
	assert.NotContains(t, stdout.String(), "sink failed")
	assert.Contains(t, stderr.String(), "level=ERROR msg=\"sink failed\"")
	assert.NotContains(t, stderr.String(), "ready")
}

func TestFileGetsEverything(t *testing.T) {
	var stdout, stderr, file bytes.Buffer
	l := log.NewLogger(slog.LevelInfo, &stdout, &stderr, &file).With("plugin", "Focus")

	l.Debug("hidden")
	l.Info("shown")
	l.Error("failed")

	assert.Empty(t, stdout.String())
	assert.NotContains(t, file.String(), "hidden")
	assert.Contains(t, file.String(), "msg=shown plugin=Focus")
	assert.Contains(t, file.String(), "msg=failed plugin=Focus")
	assert.Contains(t, stderr.String(), "msg=shown")
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	raw := log.NewRaw(&buf)
	raw.Log(false, []byte{0x08, 0x02, 0x00})
	raw.Log(true, []byte{0x01})
	raw.Log(true, nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "out 3 bytes: 08 02 00")
	assert.Contains(t, string(lines[1]), "in  1 bytes: 01")

	log.NewRaw(nil).Log(false, []byte{1})
}
