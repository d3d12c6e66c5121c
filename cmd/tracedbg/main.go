// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// tracedbg replays a pre-recorded CPU execution trace through the GDB
// Remote Serial Protocol, so an off-the-shelf source-level debugger can
// navigate it interactively — including reverse-continue/reverse-step —
// without re-running the (possibly very slow) process that produced it.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/urfave/cli.v2"

	"github.com/master-g/tracedbg/pkg/cpustate"
	"github.com/master-g/tracedbg/pkg/server"
	"github.com/master-g/tracedbg/pkg/trace"
	"github.com/master-g/tracedbg/pkg/traceio"
	"github.com/master-g/tracedbg/pkg/tracelog"
)

func main() {
	app := &cli.App{
		Name:    "tracedbg",
		Usage:   "replay a CPU execution trace as a GDB Remote Serial Protocol target",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "trace",
				Aliases: []string{"t"},
				Usage:   "path to the trace file",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "trace format: json, spike, sifive-rtl",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "TCP bind address",
				Value: "localhost",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "TCP bind port",
				Value:   1234,
			},
			&cli.StringFlag{
				Name:  "pc",
				Usage: "initial PC at trace index 0 (decimal, or 0x-prefixed hex)",
				Value: "0",
			},
			&cli.BoolFlag{
				Name:  "multi",
				Usage: "accept multiple connections, each with independent state",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log coalesced uninitialized-memory diagnostics and debug detail",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "show a live termui monitor of PC/registers while serving",
			},
		},
		Action: run,
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.String("trace") == "" {
		cli.ShowAppHelp(c)
		return cli.Exit("", 86)
	}

	verbose := c.Bool("verbose")
	tracelog.SetLogger(tracelog.NewStdLogger(verbose))

	initPC, err := parsePC(c.String("pc"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("tracedbg: %v", err), 1)
	}

	records, err := traceio.Load(c.String("trace"), c.String("format"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("tracedbg: %v", err), 1)
	}
	tracelog.Infof("tracedbg: loaded %d trace records from %s", len(records), c.String("trace"))

	cfg := server.Config{
		Host:                     c.String("host"),
		Port:                     c.Int("port"),
		InitialPC:                initPC,
		AllowMultipleConnections: c.Bool("multi"),
		Verbose:                  verbose,
	}
	srv := server.New(cfg, cpustate.RISCV64(), records)

	installInterruptHandler()

	if c.Bool("tui") {
		return runWithMonitor(srv)
	}
	return srv.ListenAndServe()
}

// runWithMonitor wires a live termui view to each session the server
// accepts (one session unless --multi is set; with --multi every session
// starts its own monitor, all fed by one shared refresh channel); the
// monitor never mutates engine state (pkg/server's
// OnSession hook exists exactly so the core need not know a monitor is
// attached).
func runWithMonitor(srv *server.Server) error {
	refresh := make(chan struct{}, 1)

	srv.OnSession = func(engine *trace.Engine) {
		m := newMonitor(engine)
		go func() {
			if err := m.run(refresh); err != nil {
				tracelog.Warnf("tracedbg: tui: %v", err)
			}
		}()
	}
	// OnCommand fires inside the session's own goroutine after every RSP
	// command; forward a non-blocking tick so a slow render never stalls
	// command handling.
	srv.OnCommand = func(string) {
		select {
		case refresh <- struct{}{}:
		default:
		}
	}

	return srv.ListenAndServe()
}

// installInterruptHandler prints a notice and terminates the process on
// Ctrl-C, matching spec.md §5's "Ctrl-C at the server process terminates
// the process after printing a notice."
func installInterruptHandler() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "...Ctrl-C detected. Exiting...")
		os.Exit(0)
	}()
}

func parsePC(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid --pc %q: %w", s, err)
	}
	return v, nil
}
