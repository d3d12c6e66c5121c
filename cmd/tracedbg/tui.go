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

package main

import (
	"fmt"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/master-g/tracedbg/pkg/trace"
)

// monitor is a read-only live view of a session's replay engine: PC,
// cursor position, running state, and the 32 general registers, refreshed
// on every RSP command the dispatcher handles. Breakpoints are not shown. It never writes to the
// engine it watches, preserving the core's exclusive ownership of CPU
// state during a session (spec.md §5).
type monitor struct {
	engine *trace.Engine

	paragraphStatus *widgets.Paragraph
	paragraphRegs   *widgets.Paragraph
	paragraphTips   *widgets.Paragraph
}

func newMonitor(engine *trace.Engine) *monitor {
	return &monitor{engine: engine}
}

func (m *monitor) initLayout() {
	m.paragraphStatus = widgets.NewParagraph()
	m.paragraphStatus.Title = "Session"
	m.paragraphStatus.SetRect(0, 0, 60, 6)

	m.paragraphRegs = widgets.NewParagraph()
	m.paragraphRegs.Title = "Registers"
	m.paragraphRegs.SetRect(0, 6, 60, 30)

	m.paragraphTips = widgets.NewParagraph()
	m.paragraphTips.Title = "Tips"
	m.paragraphTips.SetRect(0, 30, 60, 33)
	m.paragraphTips.Text = "Q = quit monitor (session keeps running)"
}

func (m *monitor) renderStatus() {
	cpu := m.engine.CPU()
	running := "yes"
	if !m.engine.Running() {
		running = "no"
	}
	m.paragraphStatus.Text = fmt.Sprintf(
		"PC:      0x%016x\nCursor:  %d / %d\nRunning: %s",
		cpu.PC(), m.engine.Index(), m.engine.Len(), running,
	)
}

func (m *monitor) renderRegs() {
	cpu := m.engine.CPU()
	var sb strings.Builder
	for i := 0; i < cpu.NumReg()-1; i++ { // last register is PC, shown above
		sb.WriteString(fmt.Sprintf("x%-2d 0x%016x  ", i, cpu.ReadReg(i)))
		if i%2 == 1 {
			sb.WriteRune('\n')
		}
	}
	m.paragraphRegs.Text = sb.String()
}

func (m *monitor) draw() {
	m.renderStatus()
	m.renderRegs()
	ui.Render(m.paragraphStatus, m.paragraphRegs, m.paragraphTips)
}

// run initializes termui and redraws on every tick received from refresh,
// until the user quits the monitor or refresh is closed. It does not own
// the terminal lifecycle of the rest of the program: closing the monitor
// leaves the RSP session running.
func (m *monitor) run(refresh <-chan struct{}) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	defer ui.Close()

	m.initLayout()
	m.draw()

	uiEvents := ui.PollEvents()
	for {
		select {
		case e, ok := <-uiEvents:
			if !ok {
				return nil
			}
			if e.Type == ui.KeyboardEvent && (e.ID == "q" || e.ID == "Q" || e.ID == "<C-c>") {
				return nil
			}
		case _, ok := <-refresh:
			if !ok {
				return nil
			}
			m.draw()
		}
	}
}
