// Package mmu implements the 16-bit address space: cartridge ROM/RAM
// banking (delegated to internal/cart), VRAM/OAM/LCD registers (delegated
// to internal/ppu), the keypad register, work RAM, high RAM, and the
// interrupt enable/flag registers. It is the single address-decode point
// every CPU memory access goes through.
package mmu

import (
	"github.com/tkappe/gbcore/internal/cart"
	"github.com/tkappe/gbcore/internal/keypad"
	"github.com/tkappe/gbcore/internal/ppu"
	"github.com/tkappe/gbcore/internal/timer"
)

// CycleAdder lets a write (OAM DMA) charge extra machine cycles to the
// machine's counter without the Mmu holding a reference to it directly.
type CycleAdder func(n uint32)

// Mmu wires the CPU-visible address space to its backing stores.
type Mmu struct {
	cart cart.Cartridge
	ppu  *ppu.PPU
	tm   *timer.Timer
	kp   *keypad.Keypad

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ie    byte // 0xFFFF
	ifReg byte // 0xFF0F, low 5 bits used

	addCycles CycleAdder
}

// New wires a Mmu around an already-constructed cartridge, PPU, timer and
// keypad. The PPU and timer must have been constructed with a
// ppu.InterruptRequester/timer.InterruptRequester that calls back into
// Mmu.RequestInterrupt, closing the loop between the subsystems and the
// shared IF register.
func New(c cart.Cartridge, p *ppu.PPU, tm *timer.Timer, kp *keypad.Keypad, addCycles CycleAdder) *Mmu {
	return &Mmu{cart: c, ppu: p, tm: tm, kp: kp, addCycles: addCycles}
}

// RequestInterrupt sets IF bit `bit` (0=VBlank, 1=STAT, 2=Timer, 3=Serial, 4=Joypad).
func (m *Mmu) RequestInterrupt(bit int) { m.ifReg |= 1 << uint(bit) }

func (m *Mmu) PPU() *ppu.PPU   { return m.ppu }
func (m *Mmu) Timer() *timer.Timer { return m.tm }
func (m *Mmu) Cart() cart.Cartridge { return m.cart }
func (m *Mmu) Keypad() *keypad.Keypad { return m.kp }

func (m *Mmu) IE() byte { return m.ie }
func (m *Mmu) IF() byte { return m.ifReg & 0x1F }

// ClearIFBit clears a single IF bit, used by the interrupt controller once
// it services that interrupt.
func (m *Mmu) ClearIFBit(bit int) { m.ifReg &^= 1 << uint(bit) }

func (m *Mmu) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return m.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return m.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return m.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return m.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return m.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0x00
	case addr == 0xFF00:
		return m.kp.Read()
	case addr == 0xFF04:
		return m.tm.DIV()
	case addr == 0xFF05:
		return m.tm.TIMA()
	case addr == 0xFF06:
		return m.tm.TMA()
	case addr == 0xFF07:
		return 0xF8 | m.tm.TAC()
	case addr == 0xFF0F:
		return 0xE0 | m.IF()
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return m.ppu.CPURead(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return m.ie
	default:
		return 0xFF
	}
}

func (m *Mmu) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		m.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		m.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		m.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		m.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m.ppu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// ignored
	case addr == 0xFF00:
		m.kp.SetRegion(value)
	case addr == 0xFF04:
		m.tm.ResetDIV()
	case addr == 0xFF05:
		m.tm.SetTIMA(value)
	case addr == 0xFF06:
		m.tm.SetTMA(value)
	case addr == 0xFF07:
		m.tm.SetTAC(value)
	case addr == 0xFF0F:
		m.ifReg = value & 0x1F
	case addr == 0xFF46:
		m.triggerDMA(value)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		m.ppu.CPUWrite(addr, value)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		m.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		m.ie = value
	}
}

// triggerDMA copies 160 bytes from value<<8 into OAM and charges 160
// machine cycles to the caller's cycle counter.
func (m *Mmu) triggerDMA(value byte) {
	src := uint16(value) << 8
	for i := 0; i < 0xA0; i++ {
		m.ppu.WriteOAMByte(i, m.Read(src+uint16(i)))
	}
	if m.addCycles != nil {
		m.addCycles(160)
	}
}

// Push16/Pop16/Immediate8/Immediate16 are the CPU's stack and fetch
// primitives; word accesses are little-endian.
func (m *Mmu) Push16(sp *uint16, v uint16) {
	*sp -= 2
	m.Write(*sp, byte(v))
	m.Write(*sp+1, byte(v>>8))
}

func (m *Mmu) Pop16(sp *uint16) uint16 {
	lo := m.Read(*sp)
	hi := m.Read(*sp + 1)
	*sp += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (m *Mmu) Immediate8(pc uint16) byte { return m.Read(pc + 1) }

func (m *Mmu) Immediate16(pc uint16) uint16 {
	lo := m.Read(pc + 1)
	hi := m.Read(pc + 2)
	return uint16(hi)<<8 | uint16(lo)
}
