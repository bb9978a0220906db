// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package progress reports the progress of blob downloads to the user.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"golang.org/x/term"

	"github.com/uber/modelpull/utils/log"
	"github.com/uber/modelpull/utils/memsize"
)

// Sink receives progress notifications for one transfer at a time.
type Sink interface {
	// Start begins a new transfer of total bytes. total may be zero if unknown.
	Start(name string, total int64)

	// Update reports the bytes transferred so far.
	Update(total, sofar int64)

	// Finish marks the transfer as complete.
	Finish()

	// Abort marks the transfer as failed.
	Abort()

	// Suspend hides the progress display while f runs, e.g. to prompt the
	// user, and redraws it afterwards. Returns the result of f.
	Suspend(f func() bool) bool
}

const (
	_barWidth    = 30
	_redrawEvery = 100 * time.Millisecond
)

// TerminalSink draws a single-line progress bar when writing to a terminal.
// Otherwise it only logs when transfers start and end.
type TerminalSink struct {
	sync.Mutex

	out io.Writer
	tty bool
	clk clock.Clock

	name     string
	total    int64
	sofar    int64
	started  time.Time
	lastDraw time.Time
	active   bool
}

// NewTerminalSink creates a TerminalSink writing to f.
func NewTerminalSink(f *os.File) *TerminalSink {
	return NewWriterSink(f, term.IsTerminal(int(f.Fd())), clock.New())
}

// NewWriterSink creates a TerminalSink writing to w.
func NewWriterSink(w io.Writer, tty bool, clk clock.Clock) *TerminalSink {
	return &TerminalSink{out: w, tty: tty, clk: clk}
}

// Start implements Sink.
func (s *TerminalSink) Start(name string, total int64) {
	s.Lock()
	defer s.Unlock()

	s.name = name
	s.total = total
	s.sofar = 0
	s.started = s.clk.Now()
	s.lastDraw = time.Time{}
	s.active = true
	if s.tty {
		s.draw()
	} else {
		log.Infof("Downloading %s (%s)", name, memsize.Format(uint64(total)))
	}
}

// Update implements Sink.
func (s *TerminalSink) Update(total, sofar int64) {
	s.Lock()
	defer s.Unlock()

	s.total = total
	s.sofar = sofar
	if s.tty && s.clk.Now().Sub(s.lastDraw) >= _redrawEvery {
		s.draw()
	}
}

// Finish implements Sink.
func (s *TerminalSink) Finish() {
	s.end("done")
}

// Abort implements Sink.
func (s *TerminalSink) Abort() {
	s.end("failed")
}

func (s *TerminalSink) end(status string) {
	s.Lock()
	defer s.Unlock()

	if !s.active {
		return
	}
	s.active = false
	if s.tty {
		s.draw()
		fmt.Fprintf(s.out, " %s\n", status)
		return
	}
	elapsed := s.clk.Now().Sub(s.started)
	log.Infof("Download of %s %s after %s (%s)",
		s.name, status, elapsed.Round(time.Millisecond), memsize.Format(uint64(s.sofar)))
}

// Suspend implements Sink.
func (s *TerminalSink) Suspend(f func() bool) bool {
	s.Lock()
	if s.tty && s.active {
		fmt.Fprint(s.out, "\r\033[K")
	}
	s.Unlock()

	result := f()

	s.Lock()
	defer s.Unlock()
	if s.tty && s.active {
		s.draw()
	}
	return result
}

func (s *TerminalSink) draw() {
	s.lastDraw = s.clk.Now()
	fmt.Fprintf(s.out, "\r\033[K%s", s.line())
}

func (s *TerminalSink) line() string {
	var rate string
	if elapsed := s.clk.Now().Sub(s.started).Seconds(); elapsed > 0 {
		rate = fmt.Sprintf(" %s/s", memsize.Format(uint64(float64(s.sofar)/elapsed)))
	}
	if s.total <= 0 {
		return fmt.Sprintf("%s %s%s", s.name, memsize.Format(uint64(s.sofar)), rate)
	}
	filled := int(float64(_barWidth) * float64(s.sofar) / float64(s.total))
	if filled > _barWidth {
		filled = _barWidth
	}
	return fmt.Sprintf("%s [%s%s] %s/%s%s",
		s.name,
		strings.Repeat("=", filled),
		strings.Repeat(" ", _barWidth-filled),
		memsize.Format(uint64(s.sofar)),
		memsize.Format(uint64(s.total)),
		rate)
}

// NopSink discards all progress notifications.
type NopSink struct{}

// Start implements Sink.
func (NopSink) Start(string, int64) {}

// Update implements Sink.
func (NopSink) Update(int64, int64) {}

// Finish implements Sink.
func (NopSink) Finish() {}

// Abort implements Sink.
func (NopSink) Abort() {}

// Suspend implements Sink.
func (NopSink) Suspend(f func() bool) bool { return f() }
