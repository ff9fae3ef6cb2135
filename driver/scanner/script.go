// Package scanner provides key switch transition sources for the firmware
// loop: a scripted scanner for replaying sessions and a terminal scanner
// for driving the keyboard interactively.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/key"
)

// Script replays transitions parsed from a text script, one step per cycle.
//
// Every line is one cycle. A line holds commands separated by ';':
//
//	press R C     switch at row R, column C goes down
//	release R C   switch goes up
//	tap R C       press now, release in the following cycle
//	wait N        N cycles without transitions
//
// '#' starts a comment.
type Script struct {
	cycles [][]firmware.Transition
	next   int
}

var ErrSyntax = errors.New("syntax error")

// LoadScript reads a script file. The path "-" reads standard input.
func LoadScript(path string, layout key.Layout) (*Script, error) {
	if path == "-" {
		return ParseScript(os.Stdin, layout)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return ParseScript(f, layout)
}

// ParseScript parses a script for the given layout.
func ParseScript(r io.Reader, layout key.Layout) (*Script, error) {
	s := &Script{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line, _, _ := strings.Cut(sc.Text(), "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := s.parseLine(line, layout); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return s, nil
}

func (s *Script) parseLine(line string, layout key.Layout) error {
	var now, later []firmware.Transition
	for cmd := range strings.SplitSeq(line, ";") {
		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			continue
		}
		verb := strings.ToLower(fields[0])

		if verb == "wait" {
			if len(fields) != 2 || line != strings.TrimSpace(cmd) {
				return fmt.Errorf("%w: wait takes one count and stands alone", ErrSyntax)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 0 {
				return fmt.Errorf("%w: bad wait count %q", ErrSyntax, fields[1])
			}
			for range n {
				s.cycles = append(s.cycles, nil)
			}
			return nil
		}

		if len(fields) != 3 {
			return fmt.Errorf("%w: %s takes a row and a column", ErrSyntax, verb)
		}
		a, err := parseAddr(layout, fields[1], fields[2])
		if err != nil {
			return err
		}
		switch verb {
		case "press":
			now = append(now, firmware.Transition{Addr: a, Pressed: true})
		case "release":
			now = append(now, firmware.Transition{Addr: a})
		case "tap":
			now = append(now, firmware.Transition{Addr: a, Pressed: true})
			later = append(later, firmware.Transition{Addr: a})
		default:
			return fmt.Errorf("%w: unknown command %q", ErrSyntax, fields[0])
		}
	}
	s.cycles = append(s.cycles, now)
	if len(later) > 0 {
		s.cycles = append(s.cycles, later)
	}
	return nil
}

func parseAddr(layout key.Layout, row, col string) (key.Addr, error) {
	r, err := strconv.ParseUint(row, 10, 8)
	if err != nil {
		return key.AddrNone, fmt.Errorf("%w: bad row %q", ErrSyntax, row)
	}
	c, err := strconv.ParseUint(col, 10, 8)
	if err != nil {
		return key.AddrNone, fmt.Errorf("%w: bad column %q", ErrSyntax, col)
	}
	a := layout.Addr(uint8(r), uint8(c))
	if a == key.AddrNone {
		return key.AddrNone, fmt.Errorf("%w: (%d,%d) outside %dx%d matrix", ErrSyntax, r, c, layout.Rows, layout.Cols)
	}
	return a, nil
}

// ScanCycle yields the transitions of the next step.
func (s *Script) ScanCycle(yield func(firmware.Transition)) {
	if s.Done() {
		return
	}
	for _, t := range s.cycles[s.next] {
		yield(t)
	}
	s.next++
}

// Done reports whether every step has been replayed.
func (s *Script) Done() bool { return s.next >= len(s.cycles) }

// Len returns the number of cycles the script spans.
func (s *Script) Len() int { return len(s.cycles) }
