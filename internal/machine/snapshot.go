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

package machine

import "github.com/google/go-cmp/cmp"

// CPUState is the JSON-serializable half of Snapshot (spec §6 snapshot
// format: "cpu: { registers, xpsr, primask, vtor }").
type CPUState struct {
	Registers [16]uint32 `json:"registers"`
	XPSR      uint32     `json:"xpsr"`
	PRIMASK   bool       `json:"primask"`
	VTOR      uint32     `json:"vtor"`
}

// Snapshot is the structured state dump Machine.Snapshot returns. Handles
// and callbacks (observers, the logger) are omitted as non-serializable
// (spec §6).
type Snapshot struct {
	CPU         CPUState       `json:"cpu"`
	Peripherals map[string]any `json:"peripherals"`
}

// regionSnapshot is captured alongside Snapshot for Restore, but is kept out
// of the public Snapshot struct: spec §6's JSON format names only cpu and
// peripherals, and flash/RAM contents would dwarf it in practice.
type regionSnapshot struct {
	cpu     CPUState
	regions map[string][]byte
}

// Snapshot captures CPU registers and every peripheral's own Snapshot, keyed
// by name (spec §6).
func (m *Machine) Snapshot() Snapshot {
	regs := m.cpu.Registers()
	var flat [16]uint32
	copy(flat[0:13], regs.R[:])
	flat[13], flat[14], flat[15] = regs.SP, regs.LR, regs.PC

	vtor, _ := m.bus.VTOR()
	return Snapshot{
		CPU: CPUState{
			Registers: flat,
			XPSR:      regs.XPSR,
			PRIMASK:   m.cpu.PRIMASK(),
			VTOR:      vtor,
		},
		Peripherals: m.bus.SnapshotPeripherals(),
	}
}

// snapshotForRestore captures the strictly-more-than-JSON state Restore
// needs: CPU registers plus raw memory region contents. Peripheral internal
// state (enable bits, counters) is not restored — see bus.SnapshotRegions's
// doc comment for why that's a deliberate, spec-consistent limitation.
func (m *Machine) snapshotForRestore() regionSnapshot {
	return regionSnapshot{
		cpu:     m.Snapshot().CPU,
		regions: m.bus.SnapshotRegions(),
	}
}

// restoreState is the exported counterpart used by Restore's round trip.
type restoreState = regionSnapshot

// Restore is the round-trip counterpart the spec §8 idempotence property
// ("snapshot → restore → snapshot produces equal JSON") needs: it reapplies
// a previously captured CPU register file and memory contents. Use
// SaveRestorePoint/Restore together rather than Snapshot, since Snapshot
// alone discards memory contents (spec §6 only names cpu/peripherals in the
// wire format).
func (m *Machine) SaveRestorePoint() restoreState {
	return m.snapshotForRestore()
}

// Restore reapplies a restoreState captured by SaveRestorePoint: CPU
// registers, XPSR, PRIMASK, and every flash/RAM region's bytes. Peripheral
// state is left as-is (see SnapshotRegions doc comment).
func (m *Machine) Restore(s restoreState) {
	m.cpu.Restore(s.cpu.Registers, s.cpu.XPSR, s.cpu.PRIMASK)
	m.bus.RestoreRegions(s.regions)
}

// Diff reports a structural difference between two snapshots, mirroring the
// "what changed this step" queries a DAP server front-end issues (spec §6 is
// silent on a diff helper; this is the supplemented feature named in
// SPEC_FULL.md). Two identical snapshots diff to "".
func Diff(a, b Snapshot) string {
	return cmp.Diff(a, b)
}
