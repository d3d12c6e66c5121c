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

// Package server drives one or more RSP sessions over TCP, wiring the
// framer and dispatcher to a fresh cpustate.State and trace.Engine per
// connection.
package server

import (
	"fmt"
	"io"
	"net"

	"github.com/master-g/tracedbg/pkg/cpustate"
	"github.com/master-g/tracedbg/pkg/rsp"
	"github.com/master-g/tracedbg/pkg/trace"
	"github.com/master-g/tracedbg/pkg/tracelog"
)

// Config holds the options spec.md §6 names for the dispatcher/server.
type Config struct {
	Host                     string
	Port                     int
	InitialPC                uint64
	AllowMultipleConnections bool
	Verbose                  bool
}

// DefaultConfig returns the documented defaults: localhost:1234, PC=0,
// single connection.
func DefaultConfig() Config {
	return Config{Host: "localhost", Port: 1234}
}

// Server accepts GDB connections and replays records against them. The
// trace is logically immutable and may be shared by reference across
// concurrent sessions; each session owns its own CPU state and engine.
type Server struct {
	cfg     Config
	profile cpustate.Profile
	records []cpustate.Record

	// OnSession, if set, is called once per accepted connection with that
	// session's engine, before the session loop starts. Used to wire an
	// optional live monitor without the core knowing about one.
	OnSession func(engine *trace.Engine)

	// OnCommand, if set, is wired as the per-session Dispatcher's
	// OnCommand hook (see pkg/rsp.Dispatcher): called after every RSP
	// command the session handles.
	OnCommand func(payload string)
}

// New constructs a Server that will replay records (under profile)
// against each accepted connection.
func New(cfg Config, profile cpustate.Profile, records []cpustate.Record) *Server {
	return &Server{cfg: cfg, profile: profile, records: records}
}

// ListenAndServe binds cfg.Host:cfg.Port and serves connections. With
// AllowMultipleConnections unset (the default), it serves exactly one
// connection to completion and returns. With it set, each accepted
// connection is served on its own goroutine with independent state, and
// ListenAndServe runs until the listener errors (typically because it was
// closed).
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	defer ln.Close()

	tracelog.Infof("tracedbg: listening on %s", addr)

	if !s.cfg.AllowMultipleConnections {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		tracelog.Infof("tracedbg: connection from %s", conn.RemoteAddr())
		s.handleConn(conn)
		tracelog.Infof("tracedbg: session ended")
		return nil
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		tracelog.Infof("tracedbg: connection from %s", conn.RemoteAddr())
		go s.handleConn(conn)
	}
}

// handleConn drives one session to completion: a fresh CPU state and
// replay engine, strictly FIFO packet-in/packet-out, until the session's
// running flag clears or the socket closes.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	cpu := cpustate.New(s.profile, s.cfg.InitialPC, s.cfg.Verbose)
	engine := trace.NewEngine(s.records, cpu)
	dispatcher := rsp.NewDispatcher(engine)
	dispatcher.OnCommand = s.OnCommand
	framer := rsp.NewFramer(conn)

	if s.OnSession != nil {
		s.OnSession(engine)
	}

	defer func() {
		if r := recover(); r != nil {
			tracelog.Warnf("tracedbg: session panic, closing connection: %v", r)
		}
	}()

	for engine.Running() {
		payload, err := framer.Recv()
		if err != nil {
			if err != io.EOF {
				tracelog.Warnf("tracedbg: connection error: %v", err)
			}
			return
		}
		resp, send := dispatcher.Handle(payload)
		if send {
			if err := framer.Send(resp); err != nil {
				tracelog.Warnf("tracedbg: send error: %v", err)
				return
			}
		}
	}
	tracelog.Infof("tracedbg: CPU no longer in running state")
}
