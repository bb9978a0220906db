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
package cancellation

import (
	"go.uber.org/atomic"
)

// Signal is an OS signal the coordinator reacts to.
type Signal int32

// Signals.
const (
	SignalNone Signal = iota
	SignalInterrupt
	SignalTerminate
)

// ExitCode returns the conventional exit code for a process terminated by s.
func (s Signal) ExitCode() int {
	switch s {
	case SignalInterrupt:
		return 130
	case SignalTerminate:
		return 143
	default:
		return 0
	}
}

// Label names s in user facing prompts.
func (s Signal) Label() string {
	switch s {
	case SignalInterrupt:
		return "Interrupt"
	case SignalTerminate:
		return "Termination"
	default:
		return "None"
	}
}

func (s Signal) exitMessage() string {
	if s == SignalTerminate {
		return "Termination signal received. Exiting..."
	}
	return "Interrupt received. Exiting..."
}

// Phase is the state of the cancellation protocol.
type Phase int32

// Phases. Idle -> SignalPending -> Confirming -> {Cancelled, Resumed}, where
// SignalPending is skipped when no progress display is active.
const (
	PhaseIdle Phase = iota
	PhaseSignalPending
	PhaseConfirming
	PhaseCancelled
	PhaseResumed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSignalPending:
		return "signal_pending"
	case PhaseConfirming:
		return "confirming"
	case PhaseCancelled:
		return "cancelled"
	case PhaseResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// State is shared between the signal listener and the workflow. All fields
// are atomics, so neither side ever blocks on the other to read or write it.
type State struct {
	interrupted          atomic.Bool
	interruptRequested   atomic.Bool
	progressActive       atomic.Bool
	confirmationRequired atomic.Bool
	cleanupDone          atomic.Bool
	pendingSignal        atomic.Int32
	cancelSignal         atomic.Int32
	phase                atomic.Int32
}

// NewState returns an idle State.
func NewState(confirmationRequired bool) *State {
	s := &State{}
	s.confirmationRequired.Store(confirmationRequired)
	return s
}

// Interrupted returns true once cancellation has been confirmed.
func (s *State) Interrupted() bool { return s.interrupted.Load() }

// InterruptRequested returns true while a deferred signal awaits confirmation.
func (s *State) InterruptRequested() bool { return s.interruptRequested.Load() }

// ProgressActive returns true while a progress display owns the terminal.
func (s *State) ProgressActive() bool { return s.progressActive.Load() }

// SetProgressActive marks whether a progress display owns the terminal.
func (s *State) SetProgressActive(v bool) { s.progressActive.Store(v) }

// ConfirmationRequired returns false if signals terminate immediately.
func (s *State) ConfirmationRequired() bool { return s.confirmationRequired.Load() }

// CleanupDone returns true once the workflow has finished rolling back.
func (s *State) CleanupDone() bool { return s.cleanupDone.Load() }

// SetCleanupDone acknowledges that the workflow has finished rolling back.
func (s *State) SetCleanupDone(v bool) { s.cleanupDone.Store(v) }

// PendingSignal returns the deferred signal, if any.
func (s *State) PendingSignal() Signal { return Signal(s.pendingSignal.Load()) }

// CancelSignal returns the signal whose confirmation cancelled the workflow.
func (s *State) CancelSignal() Signal { return Signal(s.cancelSignal.Load()) }

// Phase returns the current phase.
func (s *State) Phase() Phase { return Phase(s.phase.Load()) }

// requestPending records sig as pending. The slot holds one request; false is
// returned if it is already taken or confirmation is underway.
func (s *State) requestPending(sig Signal) bool {
	if !s.pendingSignal.CAS(int32(SignalNone), int32(sig)) {
		return false
	}
	if !s.transition(PhaseSignalPending, PhaseIdle, PhaseResumed) {
		s.pendingSignal.Store(int32(SignalNone))
		return false
	}
	s.interruptRequested.Store(true)
	return true
}

// beginConfirm enters Confirming. Only one caller can win.
func (s *State) beginConfirm() bool {
	return s.transition(PhaseConfirming, PhaseIdle, PhaseResumed, PhaseSignalPending)
}

func (s *State) cancel(sig Signal) {
	s.cancelSignal.Store(int32(sig))
	s.interrupted.Store(true)
	s.clearPending()
	s.phase.Store(int32(PhaseCancelled))
}

func (s *State) resume() {
	s.clearPending()
	s.phase.Store(int32(PhaseResumed))
}

func (s *State) clearPending() {
	s.pendingSignal.Store(int32(SignalNone))
	s.interruptRequested.Store(false)
}

func (s *State) transition(to Phase, from ...Phase) bool {
	for _, f := range from {
		if s.phase.CAS(int32(f), int32(to)) {
			return true
		}
	}
	return false
}
