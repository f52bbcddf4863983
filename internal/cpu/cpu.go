// Package cpu implements the Sharp LR35902 fetch-decode-execute loop: 256
// base opcodes plus 256 CB-prefixed bit operations, dispatched through
// table-driven opcode records rather than a hand-written switch.
package cpu

import (
	"fmt"

	"github.com/tkappe/gbcore/internal/reg"
)

// Mem is the address-space surface the decoder needs: byte read/write and
// the little-endian stack primitives. internal/mmu.Mmu satisfies this.
type Mem interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
	Push16(sp *uint16, v uint16)
	Pop16(sp *uint16) uint16
}

// ErrUnhandledOpcode marks a byte with no mapped instruction — the DMG
// opcode map has eleven such gaps (0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB,
// 0xEC, 0xED, 0xF4, 0xFC, 0xFD). Hitting one is fatal.
type ErrUnhandledOpcode struct {
	Opcode byte
	PC     uint16
}

func (e *ErrUnhandledOpcode) Error() string {
	return fmt.Sprintf("cpu: unhandled opcode %#02x at pc=%#04x", e.Opcode, e.PC)
}

// CPU holds the registers, stack/program counters and interrupt-delay
// state. EIDelay/DIDelay are decremented by the interrupt controller
// (outside this package, once per machine iteration) rather than by Step
// itself, since the decrement must happen after the instruction that
// follows EI/DI has already executed.
type CPU struct {
	Reg *reg.Reg
	Mem Mem

	SP uint16
	PC uint16

	IME     bool
	Halted  bool
	Stopped bool

	EIDelay byte
	DIDelay byte
}

// New creates a CPU around an already-constructed register file and
// memory surface. Callers apply post-boot state separately.
func New(r *reg.Reg, mem Mem) *CPU {
	return &CPU{Reg: r, Mem: mem, SP: 0xFFFE}
}

func (c *CPU) fetch8() byte {
	v := c.Mem.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | hi<<8
}

// readR8/writeR8 treat index 6 as "memory at HL"; callers that dispatch
// through these on index 6 must have already charged the extra machine
// cycle the opcode tables bake into that entry's cost.
func (c *CPU) readR8(idx byte) byte {
	if idx == 6 {
		return c.Mem.Read(c.Reg.HL())
	}
	return c.Reg.Index(int(idx))
}

func (c *CPU) writeR8(idx byte, v byte) {
	if idx == 6 {
		c.Mem.Write(c.Reg.HL(), v)
		return
	}
	c.Reg.SetIndex(int(idx), v)
}

// r16 groups exposed by LD rr,d16 / INC rr / DEC rr / ADD HL,rr / PUSH/POP.
const (
	r16BC = 0
	r16DE = 1
	r16HL = 2
	r16SP = 3 // PUSH/POP use AF instead of SP in this slot
)

func (c *CPU) readR16(k byte) uint16 {
	switch k {
	case r16BC:
		return c.Reg.BC()
	case r16DE:
		return c.Reg.DE()
	case r16HL:
		return c.Reg.HL()
	case r16SP:
		return c.SP
	}
	panic("cpu: bad r16 group")
}

func (c *CPU) writeR16(k byte, v uint16) {
	switch k {
	case r16BC:
		c.Reg.SetBC(v)
	case r16DE:
		c.Reg.SetDE(v)
	case r16HL:
		c.Reg.SetHL(v)
	case r16SP:
		c.SP = v
	}
}

func (c *CPU) push16(v uint16) { c.Mem.Push16(&c.SP, v) }
func (c *CPU) pop16() uint16   { return c.Mem.Pop16(&c.SP) }

// Step runs one instruction (or, while halted, burns one cycle without
// fetching) and returns the machine cycles consumed. The interrupt
// controller is responsible for clearing Halted and applying EI/DI delay.
func (c *CPU) Step() (int, error) {
	if c.Halted {
		return 1, nil
	}
	op := c.fetch8()
	entry := baseTable[op]
	if entry == nil {
		return 0, &ErrUnhandledOpcode{Opcode: op, PC: c.PC - 1}
	}
	return entry(c), nil
}
