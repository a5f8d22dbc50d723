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

// Command cm3sim is a minimal demonstration binary: it loads a boot
// scenario (flash image plus a tiny always-present chip wiring), runs the
// machine until it halts or hits a step budget, and prints a final
// snapshot. It is not the CLI front-end named as an external collaborator
// in the specification — there is no argument grammar beyond a scenario
// path and a step budget, no REPL, no interactive debugger. It exists so
// the engine has a runnable entry point, the way the teacher's own main.go
// exercises its core package directly.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cm3sim/cm3sim/internal/machine"
	"github.com/cm3sim/cm3sim/internal/manifest"
	"github.com/cm3sim/cm3sim/internal/tracelog"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file (see internal/manifest.Scenario)")
	maxSteps := flag.Uint64("max-steps", 10000, "stop after this many CPU steps (0 = unbounded)")
	quiet := flag.Bool("quiet", false, "suppress stderr logging (CI mode)")
	flag.Parse()

	logger := slog.New(tracelog.New(nil, slog.LevelInfo, *quiet))

	if err := run(*scenarioPath, *maxSteps, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(scenarioPath string, maxSteps uint64, logger *slog.Logger) error {
	scenario, err := loadScenario(scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	firmware, err := scenario.Firmware()
	if err != nil {
		return fmt.Errorf("decode firmware: %w", err)
	}

	m, err := machine.New(scenario.ChipDescriptor(), machine.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build machine: %w", err)
	}
	if err := m.LoadFirmware(manifest.ProgramImage{
		Segments: []manifest.Segment{{LoadAddress: scenario.FlashBase, Bytes: firmware}},
	}); err != nil {
		return fmt.Errorf("load firmware: %w", err)
	}
	if err := m.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	budget := maxSteps
	if scenario.MaxSteps > 0 && (budget == 0 || uint64(scenario.MaxSteps) < budget) {
		budget = uint64(scenario.MaxSteps)
	}

	reason, err := m.RunUntil(budget, nil)
	logger.Info("run stopped", "reason", reason, "steps", m.StepCount(), "cycles", m.CycleCount())
	if err != nil {
		return err
	}

	snap := m.Snapshot()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// demoScenario is the canned scenario used when no -scenario flag is given:
// a vector table (initial SP, initial PC) at the base of flash followed
// immediately by a single MOV R0,#0x2A (the literal bytes from spec §8's
// "MOV immediate" end-to-end scenario), and a small RAM region for the
// initial stack.
const demoScenario = `
name: demo
flash_base: 0x00000000
flash_size: 0x1000
ram_base: 0x20000000
ram_size: 0x2000
max_steps: 2
firmware_hex: "00200020090000002a20" # SP=0x20002000, PC=0x9 -> 0x8, then MOV R0,#0x2A
`

func loadScenario(path string) (*manifest.Scenario, error) {
	if path == "" {
		return manifest.DecodeScenario([]byte(demoScenario))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return manifest.DecodeScenario(data)
}
