// Package machine assembles Reg, MMU, CPU, PPU, Timer and Keypad into the
// single cycle-driven emulation loop: decode one instruction (or idle one
// cycle while halted), let PPU and Timer catch up to the new cycle count,
// then let the interrupt controller apply EI/DI delay and service (or
// wake from) a pending interrupt.
package machine

import (
	"fmt"

	"github.com/tkappe/gbcore/internal/cart"
	"github.com/tkappe/gbcore/internal/cpu"
	"github.com/tkappe/gbcore/internal/keypad"
	"github.com/tkappe/gbcore/internal/mmu"
	"github.com/tkappe/gbcore/internal/ppu"
	"github.com/tkappe/gbcore/internal/reg"
	"github.com/tkappe/gbcore/internal/timer"
)

// Interrupt vectors and their IF/IE bit positions, in service priority
// order. Serial and Joypad are structurally equivalent and listed for
// completeness even though nothing in this core requests them yet.
const (
	bitVBlank = 0
	bitStat   = 1
	bitTimer  = 2
	bitSerial = 3
	bitJoypad = 4
)

var vectors = [5]uint16{
	bitVBlank: 0x0040,
	bitStat:   0x0048,
	bitTimer:  0x0050,
	bitSerial: 0x0058,
	bitJoypad: 0x0060,
}

// Machine is the aggregated, single-owner emulation state. The emulation
// thread drives Run/Step; the host thread only touches Keypad and the
// PPU's frame lock (see internal/ppu's LockFrame/WaitFrameReady).
type Machine struct {
	cfg Config

	Reg    *reg.Reg
	Mmu    *mmu.Mmu
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	Timer  *timer.Timer
	Keypad *keypad.Keypad

	Cycles uint32

	cartridgeKind cart.Kind
	traceHook     func(c *cpu.CPU)
}

// New wires a fresh Machine around the given ROM image. rom must already
// have been validated as readable; header/cartridge-type errors surface
// from cart.New as *cart.ErrInvalidROM / *cart.ErrUnknownCartridge.
func New(cfg Config, rom []byte) (*Machine, error) {
	if cfg.ValidateChecksum && len(rom) >= 0x014E {
		if want, got := rom[0x014D], headerChecksum(rom); want != got {
			return nil, &ErrInvalidChecksum{Want: want, Got: got}
		}
	}

	if h, err := cart.ParseHeader(rom); err == nil {
		if h.ROMSizeBytes > len(rom) {
			return nil, &ErrBankSize{WantBytes: h.ROMSizeBytes, GotBytes: len(rom)}
		}
	}

	c, err := cart.New(rom)
	if err != nil {
		return nil, err
	}

	m := &Machine{cfg: cfg, Reg: &reg.Reg{}, cartridgeKind: c.Kind()}

	ifReq := func(bit int) { m.Mmu.RequestInterrupt(bit) }
	m.PPU = ppu.New(ifReq)
	m.Timer = timer.New(ifReq)
	m.Keypad = &keypad.Keypad{}
	m.Mmu = mmu.New(c, m.PPU, m.Timer, m.Keypad, func(n uint32) { m.Cycles += n })
	m.CPU = cpu.New(m.Reg, m.Mmu)

	m.applyPostBootState()
	return m, nil
}

// applyPostBootState sets registers, stack/program counters and IME to
// the values a real DMG boot ROM leaves behind, and enables external RAM
// through the cartridge's RAM-enable register. The PPU and cartridge
// constructors already set their other post-boot defaults (LCDC=0x91,
// rom_bank=1).
func (m *Machine) applyPostBootState() {
	m.Mmu.Write(0x0000, 0x0A)
	m.Reg.SetA(0x01)
	m.Reg.SetF(0xB0)
	m.Reg.SetB(0x00)
	m.Reg.SetC(0x13)
	m.Reg.SetD(0x00)
	m.Reg.SetE(0xD8)
	m.Reg.SetH(0x01)
	m.Reg.SetL(0x4D)
	m.CPU.SP = 0xFFFE
	m.CPU.PC = 0x0100
	m.CPU.IME = true
}

// SetTraceHook installs a callback invoked immediately before each
// instruction decode when Config.Trace is set. The host owns formatting
// and output; this core never logs on its own.
func (m *Machine) SetTraceHook(fn func(c *cpu.CPU)) { m.traceHook = fn }

// CartridgeKind reports which bank-switching scheme the loaded ROM uses.
func (m *Machine) CartridgeKind() cart.Kind { return m.cartridgeKind }

// Step runs exactly one emulation iteration: CPU decode-or-idle, PPU/Timer
// catch-up, interrupt servicing. Returns the machine cycles the CPU
// portion consumed. A *cpu.ErrUnhandledOpcode is unrecoverable — callers
// should stop the loop and surface it to the host.
func (m *Machine) Step() (int, error) {
	if m.cfg.Trace && m.traceHook != nil {
		m.traceHook(m.CPU)
	}
	before := m.Cycles
	cycles, err := m.CPU.Step()
	if err != nil {
		return 0, err
	}
	m.Cycles += uint32(cycles)
	m.PPU.Step(m.Cycles)
	m.Timer.Step(m.Cycles - before) // includes any OAM DMA cycles
	m.serviceInterrupts()
	return cycles, nil
}

// Run drives Step in a loop until it returns an error (typically a fatal
// *cpu.ErrUnhandledOpcode) or stop is closed. The caller — cmd/gbemu or a
// test — owns pacing; this core does not throttle to real time.
func (m *Machine) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if _, err := m.Step(); err != nil {
			return fmt.Errorf("machine: fatal: %w", err)
		}
	}
}

// serviceInterrupts implements the interrupt controller: apply any
// pending EI/DI delay, then — if IME is set, or the CPU is
// halted waiting to wake — check VBlank/STAT/Timer/Serial/Joypad in
// priority order and either service the first pending one or, if merely
// halted with IME clear, just clear Halted without servicing.
func (m *Machine) serviceInterrupts() {
	if m.CPU.DIDelay > 0 {
		m.CPU.DIDelay--
		if m.CPU.DIDelay == 0 {
			m.CPU.IME = false
		}
	}
	if m.CPU.EIDelay > 0 {
		m.CPU.EIDelay--
		if m.CPU.EIDelay == 0 {
			m.CPU.IME = true
		}
	}

	if !m.CPU.IME && !m.CPU.Halted {
		return
	}

	pending := m.Mmu.IF() & m.Mmu.IE()
	if pending == 0 {
		return
	}
	for bit := 0; bit < 5; bit++ {
		if pending&(1<<uint(bit)) == 0 {
			continue
		}
		if m.CPU.IME {
			m.Mmu.ClearIFBit(bit)
			m.CPU.IME = false
			m.CPU.Halted = false
			m.CPU.Mem.Push16(&m.CPU.SP, m.CPU.PC)
			m.CPU.PC = vectors[bit]
		} else {
			m.CPU.Halted = false
		}
		return
	}
}
