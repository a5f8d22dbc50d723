// Copyright (c) 2026 The cm3sim Authors
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
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package machine binds a CPU and a Bus into a runnable simulation: it
// drives Step, fans out SimulationObserver events, and owns the stop-reason
// bookkeeping external collaborators (the CLI, the DAP server, the CI test
// runner) use to decide when to quit asking for more steps (spec §5, §6).
package machine

import (
	"errors"
	"log/slog"

	"github.com/cm3sim/cm3sim/internal/bus"
	"github.com/cm3sim/cm3sim/internal/cpu"
	"github.com/cm3sim/cm3sim/internal/manifest"
	"github.com/cm3sim/cm3sim/internal/simerr"
	"github.com/cm3sim/cm3sim/internal/tracelog"
)

// StopReason names why RunUntil (or the caller's own loop) stopped.
type StopReason string

const (
	StopMaxSteps         StopReason = "max_steps"
	StopWallTime         StopReason = "wall_time"
	StopMemoryViolation  StopReason = "memory_violation"
	StopDecodeError      StopReason = "decode_error"
	StopHalt             StopReason = "halt"
	StopPredicateReached StopReason = "predicate"
)

// SimulationObserver is notified synchronously from Machine after each
// lifecycle event. Observers must not mutate CPU or peripheral state (spec
// §5 "Shared resources"). Fan-out across multiple observers is unordered;
// an absent observer list costs nothing (spec §6, §9).
type SimulationObserver interface {
	OnReset()
	OnStepPre(pc uint32, opcode uint32)
	OnStepPost(instructionsRetired uint64, cycles uint64)
	OnStart()
	OnStop(reason StopReason)
}

// Machine binds one CPU to one Bus and runs the per-step protocol described
// in spec §2 "Data flow per step": CPU fetch/decode/execute, then exactly
// one peripheral tick pass, with the exception check happening at the next
// step's entry.
type Machine struct {
	cpu *cpu.CPU
	bus *bus.Bus
	log *slog.Logger

	observers []SimulationObserver

	steps  uint64
	cycles uint64
}

// Option configures a Machine at construction.
type Option func(*Machine)

// WithObserver attaches an observer. May be called more than once; observers
// are never detached except by constructing a new Machine (spec §6).
func WithObserver(o SimulationObserver) Option {
	return func(m *Machine) { m.observers = append(m.observers, o) }
}

// WithLogger sets the logger used for bus/decode fault reporting. Defaults
// to a discard logger when omitted.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.log = logger }
}

// New builds a Machine from a ChipDescriptor (spec §6). The returned Machine
// has not been reset; call Reset before the first Step.
func New(desc manifest.ChipDescriptor, opts ...Option) (*Machine, error) {
	m := &Machine{log: tracelog.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	b, err := manifest.Build(desc, m.log)
	if err != nil {
		return nil, err
	}
	m.bus = b
	m.cpu = cpu.New(m.log)
	return m, nil
}

// LoadFirmware copies every segment of a ProgramImage into memory via the
// loader path (bypassing flash write protection, spec §6). Call before
// Reset so the vector table Reset reads is already in place.
func (m *Machine) LoadFirmware(img manifest.ProgramImage) error {
	for _, seg := range img.Segments {
		if err := m.bus.LoadSegment(seg.LoadAddress, seg.Bytes); err != nil {
			return err
		}
	}
	return nil
}

// Reset reinitializes CPU state from the vector table at VTOR (spec §4.5)
// and notifies observers. VTOR itself is preserved across reset at the SCB
// peripheral (a simulation affordance spec §3 calls out explicitly).
func (m *Machine) Reset() error {
	if err := m.cpu.Reset(m.bus); err != nil {
		return err
	}
	m.steps = 0
	m.cycles = 0
	for _, o := range m.observers {
		o.OnReset()
	}
	return nil
}

// Step runs exactly one CPU fetch/decode/execute cycle followed by one
// Bus.TickPeripherals pass (spec §2, §5 ordering guarantees 1-3). Firing
// OnStepPre before execution and OnStepPost after lets an observer see the
// pre-execution PC/opcode even when execution itself returns an error.
func (m *Machine) Step() error {
	pc := m.cpu.Registers().PC
	opcode, _ := m.bus.ReadU16(pc)
	for _, o := range m.observers {
		o.OnStepPre(pc, uint32(opcode))
	}

	err := m.cpu.Step(m.bus)
	m.bus.TickPeripherals()

	m.steps++
	cyc := uint64(1)
	if top := opcode >> 11; top == 0x1D || top == 0x1E || top == 0x1F {
		cyc = 2 // 32-bit encoding
	}
	m.cycles += cyc

	for _, o := range m.observers {
		o.OnStepPost(m.steps, m.cycles)
	}
	return err
}

// StepCount returns the number of Steps executed since the last Reset.
func (m *Machine) StepCount() uint64 { return m.steps }

// CycleCount returns the simulator's cycle estimate since the last Reset:
// one cycle per 16-bit instruction, two per 32-bit (spec §1 Non-goals — no
// pipeline stalls or bus contention are modeled).
func (m *Machine) CycleCount() uint64 { return m.cycles }

// Halted reports whether the CPU has reached its halt state (WFI/WFE,
// spec §6 stop reason "halt"); there is no separate halt sentinel.
func (m *Machine) Halted() bool { return m.cpu.Halted() }

// CPU exposes the underlying CPU for callers (tests, snapshot code) that
// need register-level access beyond what Machine itself surfaces.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the underlying Bus for the same reason.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// StopPredicate decides whether RunUntil should stop before the next Step.
// It's evaluated before each step, including the first.
type StopPredicate func(m *Machine) bool

// RunUntil drives Step in a loop until pred reports true, the CPU halts, an
// error is returned, or maxSteps is exhausted (0 means unbounded). External
// wall-clock budgets are the caller's responsibility (spec §5 "Cancellation
// and timeouts are external") — RunUntil itself never consults a clock.
func (m *Machine) RunUntil(maxSteps uint64, pred StopPredicate) (StopReason, error) {
	for _, o := range m.observers {
		o.OnStart()
	}
	reason, err := m.runLoop(maxSteps, pred)
	for _, o := range m.observers {
		o.OnStop(reason)
	}
	return reason, err
}

func (m *Machine) runLoop(maxSteps uint64, pred StopPredicate) (StopReason, error) {
	for {
		if m.Halted() {
			return StopHalt, nil
		}
		if pred != nil && pred(m) {
			return StopPredicateReached, nil
		}
		if maxSteps != 0 && m.steps >= maxSteps {
			return StopMaxSteps, nil
		}
		if err := m.Step(); err != nil {
			return stopReasonFor(err), err
		}
	}
}

// stopReasonFor classifies a Step error into one of the spec §6 stop
// reasons so RunUntil callers don't need to re-derive it from the error's
// dynamic type themselves.
func stopReasonFor(err error) StopReason {
	var unk *simerr.UnknownInstruction
	if errors.As(err, &unk) {
		return StopDecodeError
	}
	var unaligned *simerr.UnalignedFetch
	if errors.As(err, &unaligned) {
		return StopDecodeError
	}
	return StopMemoryViolation
}
