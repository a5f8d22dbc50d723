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

package manifest

import (
	"encoding/hex"

	"gopkg.in/yaml.v3"

	"github.com/cm3sim/cm3sim/peripheral/nvic"
	"github.com/cm3sim/cm3sim/peripheral/scb"
	"github.com/cm3sim/cm3sim/peripheral/systick"
	"github.com/cm3sim/cm3sim/peripheral/uart"
)

// Scenario is a tiny, self-contained boot scenario: a chip with just flash,
// RAM and the always-present core peripherals, plus a firmware blob. It is
// not the external chip-manifest format (spec §6) — that format wires an
// arbitrary peripheral set and is owned by a component outside the core.
// Scenario exists only so cmd/cm3sim has something to run when the caller
// hasn't supplied a real manifest, the same way the teacher's own sample
// `command` invocation ran against a canned configuration.
type Scenario struct {
	Name        string `yaml:"name"`
	FlashBase   uint32 `yaml:"flash_base"`
	FlashSize   uint32 `yaml:"flash_size"`
	RAMBase     uint32 `yaml:"ram_base"`
	RAMSize     uint32 `yaml:"ram_size"`
	FirmwareHex string `yaml:"firmware_hex"`
	MaxSteps    int    `yaml:"max_steps"`
}

// DecodeScenario parses a Scenario from YAML bytes.
func DecodeScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Firmware decodes the scenario's hex-encoded flash image into bytes.
func (s *Scenario) Firmware() ([]byte, error) {
	return hex.DecodeString(s.FirmwareHex)
}

// ChipDescriptor builds the minimal descriptor (flash, RAM, SCB, SysTick,
// NVIC, UART) this scenario wires — enough to run a firmware image and
// observe SysTick/NVIC exception delivery per spec §8's end-to-end
// scenarios.
func (s *Scenario) ChipDescriptor() ChipDescriptor {
	return ChipDescriptor{
		MemoryMap: []MemoryRegion{
			{Name: "flash", Base: s.FlashBase, Size: s.FlashSize, Kind: Flash},
			{Name: "ram", Base: s.RAMBase, Size: s.RAMSize, Kind: RAM},
		},
		Peripherals: []PeripheralConfig{
			{Name: "SCB", Kind: KindSCB, Base: scb.Base},
			{Name: "SysTick", Kind: KindSysTick, Base: systick.Base},
			{Name: "NVIC", Kind: KindNVIC, Base: nvic.Base},
			{Name: "UART", Kind: KindUART, Base: 0x4000C000},
		},
	}
}
