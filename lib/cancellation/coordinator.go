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
// Package cancellation turns asynchronously delivered interrupt and
// termination signals into cooperative cancellation of a pull. Unless
// disabled, the user must confirm before anything is cancelled.
package cancellation

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/andres-erbsen/clock"

	"github.com/uber/modelpull/utils/log"
)

// Coordinator owns the cancellation State of one process and the goroutine
// listening for signals.
type Coordinator struct {
	config   Config
	state    *State
	prompter Prompter
	exit     func(code int)
	clk      clock.Clock
	out      io.Writer

	signals  chan os.Signal
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option allows setting optional Coordinator parameters.
type Option func(*Coordinator)

// WithPrompter configures how the user is asked for confirmation.
func WithPrompter(p Prompter) Option {
	return func(c *Coordinator) { c.prompter = p }
}

// WithExitFunc configures how the process is terminated.
func WithExitFunc(f func(code int)) Option {
	return func(c *Coordinator) { c.exit = f }
}

// WithClock configures the clock used to wait for cleanup.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) { c.clk = clk }
}

// WithOutput configures where exit notices are printed.
func WithOutput(w io.Writer) Option {
	return func(c *Coordinator) { c.out = w }
}

// New creates a new Coordinator. Start must be called to listen for signals.
func New(config Config, opts ...Option) *Coordinator {
	config = config.applyDefaults()
	c := &Coordinator{
		config:   config,
		state:    NewState(!config.DisableConfirmation),
		prompter: NewTerminalPrompter(os.Stdin, os.Stderr),
		exit:     os.Exit,
		clk:      clock.New(),
		out:      os.Stderr,
		signals:  make(chan os.Signal, 1),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the shared cancellation state.
func (c *Coordinator) State() *State {
	return c.state
}

// Start begins listening for SIGINT and SIGTERM.
func (c *Coordinator) Start() {
	signal.Notify(c.signals, os.Interrupt, syscall.SIGTERM)
	c.wg.Add(1)
	go c.listen()
}

// Stop stops listening for signals.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		signal.Stop(c.signals)
		close(c.stop)
	})
	c.wg.Wait()
}

func (c *Coordinator) listen() {
	defer c.wg.Done()
	for {
		select {
		case s := <-c.signals:
			c.handle(toSignal(s))
		case <-c.stop:
			return
		}
	}
}

func toSignal(s os.Signal) Signal {
	if s == syscall.SIGTERM {
		return SignalTerminate
	}
	return SignalInterrupt
}

// handle runs on the listener goroutine for every received signal.
func (c *Coordinator) handle(sig Signal) {
	log.Debugf("Received %s signal in phase %s", sig.Label(), c.state.Phase())

	if !c.state.ConfirmationRequired() {
		fmt.Fprintf(c.out, "\n%s\n", sig.exitMessage())
		c.exit(sig.ExitCode())
		return
	}
	if c.state.Interrupted() {
		return
	}
	if c.state.ProgressActive() {
		// The progress display owns the terminal. The fetcher will confirm at
		// its next checkpoint.
		if !c.state.requestPending(sig) {
			log.Debugf("Ignoring %s signal, a request is already outstanding", sig.Label())
		}
		return
	}
	if c.confirm(sig) {
		c.awaitCleanup()
		c.exit(sig.ExitCode())
	}
}

// confirm prompts the user for sig. Returns false without prompting if a
// confirmation is already underway.
func (c *Coordinator) confirm(sig Signal) bool {
	if !c.state.beginConfirm() {
		log.Debugf("Ignoring %s signal during confirmation", sig.Label())
		return false
	}
	if c.prompter.Confirm(sig, c.config.PromptTimeout) {
		log.Infof("Cancellation confirmed, rolling back")
		c.state.cancel(sig)
		return true
	}
	c.state.resume()
	return false
}

func (c *Coordinator) awaitCleanup() {
	deadline := c.clk.Now().Add(c.config.CleanupTimeout)
	for !c.state.CleanupDone() {
		if !c.clk.Now().Before(deadline) {
			log.Warnf("Exiting before rollback was acknowledged")
			return
		}
		c.clk.Sleep(c.config.CleanupPollInterval)
	}
}

// ConfirmPending performs the confirmation of a deferred signal. It is called
// by the fetcher between chunks, with the progress display suspended. Returns
// true if cancellation is confirmed.
func (c *Coordinator) ConfirmPending() bool {
	sig := c.state.PendingSignal()
	if sig == SignalNone {
		return c.state.Interrupted()
	}
	return c.confirm(sig)
}

// Interrupted returns true once cancellation has been confirmed.
func (c *Coordinator) Interrupted() bool {
	return c.state.Interrupted()
}

// InterruptRequested returns true while a deferred signal awaits confirmation.
func (c *Coordinator) InterruptRequested() bool {
	return c.state.InterruptRequested()
}

// SetProgressActive marks whether a progress display owns the terminal.
func (c *Coordinator) SetProgressActive(active bool) {
	c.state.SetProgressActive(active)
}

// SetCleanupDone acknowledges that rollback has finished, releasing a
// listener waiting to exit.
func (c *Coordinator) SetCleanupDone() {
	c.state.SetCleanupDone(true)
}

// ExitCode returns the exit code for the signal that cancelled the
// workflow, or zero if it was not cancelled.
func (c *Coordinator) ExitCode() int {
	return c.state.CancelSignal().ExitCode()
}
