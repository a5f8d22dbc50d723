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

// Package manifest holds the already-decoded chip and firmware description
// the core consumes, plus a Build constructor that wires a ChipDescriptor
// into a live Bus. Parsing a YAML chip manifest into these structs, and
// parsing an ELF into a ProgramImage, are both external collaborators (spec
// §1) — nothing in this package reads bytes off disk for that purpose.
package manifest

import (
	"fmt"
	"log/slog"

	"github.com/cm3sim/cm3sim/internal/bus"
	"github.com/cm3sim/cm3sim/internal/memory"
	"github.com/cm3sim/cm3sim/internal/simerr"
	"github.com/cm3sim/cm3sim/peripheral"
	"github.com/cm3sim/cm3sim/peripheral/afio"
	"github.com/cm3sim/cm3sim/peripheral/dma"
	"github.com/cm3sim/cm3sim/peripheral/exti"
	"github.com/cm3sim/cm3sim/peripheral/gpio"
	"github.com/cm3sim/cm3sim/peripheral/i2c"
	"github.com/cm3sim/cm3sim/peripheral/nvic"
	"github.com/cm3sim/cm3sim/peripheral/rcc"
	"github.com/cm3sim/cm3sim/peripheral/scb"
	"github.com/cm3sim/cm3sim/peripheral/spi"
	"github.com/cm3sim/cm3sim/peripheral/stub"
	"github.com/cm3sim/cm3sim/peripheral/systick"
	"github.com/cm3sim/cm3sim/peripheral/timer"
	"github.com/cm3sim/cm3sim/peripheral/uart"
)

// RegionKind mirrors memory.Kind for the parts of a chip descriptor that
// name a memory region rather than a peripheral window.
type RegionKind = memory.Kind

const (
	Flash = memory.Flash
	RAM   = memory.RAM
)

// MemoryRegion is one (name, base, size, kind) entry from the chip's
// `memory_map` (spec §6).
type MemoryRegion struct {
	Name string
	Base uint32
	Size uint32
	Kind RegionKind
}

// PeripheralKind names one of the closed set of peripheral variants a
// manifest may wire (spec §4.3).
type PeripheralKind string

const (
	KindUART    PeripheralKind = "uart"
	KindSysTick PeripheralKind = "systick"
	KindNVIC    PeripheralKind = "nvic"
	KindSCB     PeripheralKind = "scb"
	KindGPIO    PeripheralKind = "gpio"
	KindRCC     PeripheralKind = "rcc"
	KindTIM     PeripheralKind = "tim"
	KindI2C     PeripheralKind = "i2c"
	KindSPI     PeripheralKind = "spi"
	KindDMA     PeripheralKind = "dma"
	KindEXTI    PeripheralKind = "exti"
	KindAFIO    PeripheralKind = "afio"
	KindStub    PeripheralKind = "stub"
)

// PeripheralConfig describes one peripheral instance. Options carries
// kind-specific construction parameters (e.g. TIM's update IRQ number,
// EXTI's line-to-IRQ map, Stub's fill byte); it is deliberately a loose
// map rather than per-kind struct fields so the manifest shape can grow new
// peripheral variants without widening this type (the external YAML parser
// decides what Options means for its own kind values).
type PeripheralConfig struct {
	Name    string
	Kind    PeripheralKind
	Base    uint32
	Size    uint32
	Options map[string]any
}

// ChipDescriptor is the fully-decoded wiring instruction set a Build call
// consumes (spec §6 "Chip descriptor (YAML)" — this struct is what the
// external parser produces).
type ChipDescriptor struct {
	MemoryMap   []MemoryRegion
	Peripherals []PeripheralConfig
}

// Segment is one (load_address, bytes) pair from a ProgramImage.
type Segment struct {
	LoadAddress uint32
	Bytes       []byte
}

// ProgramImage is the decoded firmware the ELF loader produces (spec §6).
// EntryPoint is carried for informational purposes only — actual execution
// entry always comes from the vector table per spec §4.5.
type ProgramImage struct {
	EntryPoint uint32
	Segments   []Segment
}

// Build constructs a Bus from a ChipDescriptor: every memory region and
// peripheral is registered in manifest order, matching the teacher's
// Option-list-driven device construction without this package owning any
// text parsing. logger may be nil.
func Build(desc ChipDescriptor, logger *slog.Logger) (*bus.Bus, error) {
	b := bus.New(logger)

	for _, m := range desc.MemoryMap {
		if err := b.AddRegion(memory.NewRegion(m.Name, m.Base, m.Size, m.Kind)); err != nil {
			return nil, fmt.Errorf("region %q: %w", m.Name, err)
		}
	}

	for _, p := range desc.Peripherals {
		inst, size, err := build(p, logger)
		if err != nil {
			return nil, fmt.Errorf("peripheral %q: %w", p.Name, err)
		}
		if p.Size != 0 {
			size = p.Size
		}
		if err := b.RegisterPeripheral(p.Base, size, inst); err != nil {
			return nil, fmt.Errorf("peripheral %q: %w", p.Name, err)
		}
	}
	return b, nil
}

func build(p PeripheralConfig, logger *slog.Logger) (peripheral.Peripheral, uint32, error) {
	switch p.Kind {
	case KindUART:
		return uart.New(nil, optionBool(p.Options, "quiet")), uart.Size, nil
	case KindSysTick:
		return systick.New(), systick.Size, nil
	case KindNVIC:
		return nvic.New(), nvic.Size, nil
	case KindSCB:
		return scb.New(), scb.Size, nil
	case KindGPIO:
		return gpio.New(p.Name), gpio.Size, nil
	case KindRCC:
		return rcc.New(), rcc.Size, nil
	case KindTIM:
		irq := optionUint32(p.Options, "irq")
		return timer.New(p.Name, irq), timer.Size, nil
	case KindI2C:
		return i2c.New(p.Name), i2c.Size, nil
	case KindSPI:
		return spi.New(p.Name), spi.Size, nil
	case KindDMA:
		return dma.New(p.Name), dma.Size, nil
	case KindEXTI:
		return exti.New(optionLineIRQ(p.Options)), exti.Size, nil
	case KindAFIO:
		return afio.New(), afio.Size, nil
	case KindStub:
		fill := uint8(optionUint32(p.Options, "fill"))
		return stub.New(p.Name, p.Size, fill, logger), p.Size, nil
	default:
		return nil, 0, &simerr.Internal{Message: "unknown peripheral kind: " + string(p.Kind)}
	}
}

func optionUint32(opts map[string]any, key string) uint32 {
	switch v := opts[key].(type) {
	case uint32:
		return v
	case int:
		return uint32(v)
	case float64:
		return uint32(v)
	default:
		return 0
	}
}

func optionBool(opts map[string]any, key string) bool {
	v, _ := opts[key].(bool)
	return v
}

func optionLineIRQ(opts map[string]any) map[uint]uint32 {
	raw, ok := opts["line_irq"].(map[string]any)
	out := make(map[uint]uint32, len(raw))
	if !ok {
		return out
	}
	for k, v := range raw {
		var line uint
		if _, err := fmt.Sscanf(k, "%d", &line); err != nil {
			continue
		}
		out[line] = optionUint32(map[string]any{"irq": v}, "irq")
	}
	return out
}
