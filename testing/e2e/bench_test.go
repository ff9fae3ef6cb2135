package e2e_bench_test

import (
	"context"
	"testing"
	"time"

	"github.com/Alia5/keypipe/apiclient"
	"github.com/Alia5/keypipe/firmware"
	"github.com/Alia5/keypipe/hid"
	srvfocus "github.com/Alia5/keypipe/internal/server/focus"
	th "github.com/Alia5/keypipe/internal/testing"
	"github.com/Alia5/keypipe/key"
	"github.com/Alia5/keypipe/keymap"
	pfocus "github.com/Alia5/keypipe/plugin/focus"
	"github.com/Alia5/keypipe/plugin/spacecadet"
)

type TimeWhat int

const (
	TimeWhat_ScanPress TimeWhat = iota
	TimeWhat_WaitReport
	TimeWhat_ScanRelease
	TimeWhat_WaitRelease
)

// matrix hands transitions to the loop goroutine, one batch per cycle.
type matrix struct {
	ch chan firmware.Transition
}

func (m *matrix) ScanCycle(yield func(firmware.Transition)) {
	for {
		select {
		case t := <-m.ch:
			yield(t)
		default:
			return
		}
	}
}

func startKeyboard(b *testing.B, cfg srvfocus.ServerConfig) (*matrix, <-chan bool, string) {
	b.Helper()
	km := keymap.MustNew(key.Layout{Rows: 1, Cols: 2},
		[]key.Key{key.A, key.LeftShift},
		[]key.Key{key.Transparent, key.B},
	)
	m := &matrix{ch: make(chan firmware.Transition, 16)}
	reports := make(chan bool, 16)
	sink := hid.SinkFunc(func(id hid.ReportID, data []byte) error {
		if id != hid.ReportIDNKRO {
			return nil
		}
		var r hid.KeyboardReport
		if err := r.UnmarshalBinary(data); err != nil {
			return err
		}
		select {
		case reports <- r.IsPressed(key.A.Code()):
		default:
		}
		return nil
	})

	p := pfocus.New()
	fw := firmware.New(km, hid.NewKeyboard(sink),
		[]firmware.Plugin{spacecadet.New(), p},
		firmware.WithScanner(m),
		firmware.WithInterval(100*time.Microsecond),
	)
	addr := th.StartFocus(b, fw, p, cfg)
	return m, reports, addr
}

func Benchmark_Keypress_Delay(b *testing.B) {

	type bench struct {
		name   string
		timeOn func(tw TimeWhat, b *testing.B)
	}
	benches := []bench{
		{
			name: "1 Scan-To-Report",
			timeOn: func(tw TimeWhat, b *testing.B) {
				switch tw {
				case TimeWhat_ScanPress:
					b.StartTimer()
				case TimeWhat_WaitReport:
					b.StartTimer()
				case TimeWhat_ScanRelease:
				case TimeWhat_WaitRelease:
				}
			},
		},
		{
			name: "2 Press-And-Release",
			timeOn: func(tw TimeWhat, b *testing.B) {
				switch tw {
				case TimeWhat_ScanPress:
					b.StartTimer()
				case TimeWhat_WaitReport:
					b.StartTimer()
				case TimeWhat_ScanRelease:
					b.StartTimer()
				case TimeWhat_WaitRelease:
					b.StartTimer()
				}
			},
		},
	}

	b.SetParallelism(1)
	m, reports, _ := startKeyboard(b, srvfocus.ServerConfig{ConnectionTimeout: 5 * time.Second})
	ctx := b.Context()

	for _, bench := range benches {
		b.Run(bench.name, func(b *testing.B) {
			for b.Loop() {
				b.StopTimer()
				bench.timeOn(TimeWhat_ScanPress, b)
				m.ch <- firmware.Transition{Addr: 0, Pressed: true}
				b.StopTimer()

				bench.timeOn(TimeWhat_WaitReport, b)
				if err := waitForReport(ctx, time.After(time.Second), reports, true); err != nil {
					b.Fatalf("press report: %v", err)
				}

				b.StopTimer()
				bench.timeOn(TimeWhat_ScanRelease, b)
				m.ch <- firmware.Transition{Addr: 0}
				b.StopTimer()

				bench.timeOn(TimeWhat_WaitRelease, b)
				if err := waitForReport(ctx, time.After(time.Second), reports, false); err != nil {
					b.Fatalf("release report: %v", err)
				}

				b.StartTimer()
			}
		})
	}
}

func Benchmark_Focus_RoundTrip(b *testing.B) {
	type bench struct {
		name     string
		password string
	}
	benches := []bench{
		{name: "1 Plain"},
		{name: "2 Authenticated", password: "bench"},
	}

	for _, bench := range benches {
		b.Run(bench.name, func(b *testing.B) {
			_, _, addr := startKeyboard(b, srvfocus.ServerConfig{
				Password:          bench.password,
				ConnectionTimeout: 5 * time.Second,
			})
			c := apiclient.New(addr)
			if bench.password != "" {
				var err error
				if c, err = apiclient.NewWithPassword(addr, bench.password); err != nil {
					b.Fatalf("client: %v", err)
				}
			}
			ctx := b.Context()
			for b.Loop() {
				if err := c.ActivateLayer(ctx, 1); err != nil {
					b.Fatalf("layer.activate: %v", err)
				}
				if _, err := c.TopLayer(ctx); err != nil {
					b.Fatalf("layer.top: %v", err)
				}
			}
		})
	}
}

func waitForReport(ctx context.Context, timeout <-chan time.Time, reports <-chan bool, wantPressed bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return context.DeadlineExceeded
		case pressed, ok := <-reports:
			if !ok {
				return context.Canceled
			}
			if pressed == wantPressed {
				return nil
			}
		}
	}
}
