package scanner_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Alia5/keypipe/driver/scanner"
	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var layout = key.Layout{Rows: 2, Cols: 3}

func collect(s firmware.Scanner, cycles int) [][]firmware.Transition {
	out := make([][]firmware.Transition, cycles)
	for i := range cycles {
		s.ScanCycle(func(t firmware.Transition) { out[i] = append(out[i], t) })
	}
	return out
}

func down(a key.Addr) firmware.Transition { return firmware.Transition{Addr: a, Pressed: true} }
func up(a key.Addr) firmware.Transition   { return firmware.Transition{Addr: a} }

func TestScript(t *testing.T) {
	src := `
# hold shift and tap a key
press 0 0
tap 1 2   # trailing comment
wait 2
release 0 0; press 0 1
`
	s, err := scanner.ParseScript(strings.NewReader(src), layout)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())

	got := collect(s, 7)
	assert.Equal(t, [][]firmware.Transition{
		{down(0)},
		{down(5)},
		{up(5)},
		nil,
		nil,
		{up(0), down(1)},
		nil,
	}, got)
	assert.True(t, s.Done())
}

func TestScriptErrors(t *testing.T) {
	type testCase struct {
		name string
		src  string
		line string
	}

	cases := []testCase{
		{name: "unknown command", src: "press 0 0\nhold 0 0", line: "line 2"},
		{name: "outside matrix", src: "press 2 0", line: "line 1"},
		{name: "bad column", src: "\n\ntap 0 x", line: "line 3"},
		{name: "missing column", src: "press 0", line: "line 1"},
		{name: "wait not alone", src: "wait 1; press 0 0", line: "line 1"},
		{name: "bad wait", src: "wait -1", line: "line 1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scanner.ParseScript(strings.NewReader(tc.src), layout)
			require.ErrorIs(t, err, scanner.ErrSyntax)
			assert.Contains(t, err.Error(), tc.line)
		})
	}
}

func TestLoadScriptMissingFile(t *testing.T) {
	_, err := scanner.LoadScript(t.TempDir()+"/missing.txt", layout)
	assert.Error(t, err)
}

func TestTerminal(t *testing.T) {
	km := keymap.MustNew(key.Layout{Rows: 1, Cols: 3}, []key.Key{key.LeftShift, key.A, key.B})
	term, err := scanner.NewTerminal(strings.NewReader("aB?\x03"), km)
	require.NoError(t, err)
	defer term.Close()

	var got [][]firmware.Transition
	require.Eventually(t, func() bool {
		var cycle []firmware.Transition
		term.ScanCycle(func(tr firmware.Transition) { cycle = append(cycle, tr) })
		if cycle != nil {
			got = append(got, cycle)
		}
		return term.Done()
	}, time.Second, time.Millisecond)

	assert.Equal(t, [][]firmware.Transition{
		{down(1)},
		{up(1)},
		{down(0), down(2)},
		{up(0), up(2)},
	}, got)
}
