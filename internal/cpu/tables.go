package cpu

import "github.com/tkappe/gbcore/internal/alu"

// baseTable maps each of the 256 base opcodes to a closure that executes
// the instruction and returns the machine cycles it consumed (1 machine
// cycle = 4 master clock ticks). Entries are built once, mostly by
// iterating over the regular opcode blocks the DMG encoding groups
// register operands into; the irregular control-flow and miscellaneous
// opcodes are assigned individually. A nil entry means the byte is one of
// the eleven unmapped opcodes.
var baseTable [256]func(*CPU) int

func init() {
	baseTable[0x00] = func(c *CPU) int { return 1 }

	// LD rr,d16 / INC rr / DEC rr / ADD HL,rr for rr in BC,DE,HL,SP.
	for k := byte(0); k < 4; k++ {
		k := k
		baseTable[0x01+k*0x10] = func(c *CPU) int { c.writeR16(k, c.fetch16()); return 3 }
		baseTable[0x03+k*0x10] = func(c *CPU) int { c.writeR16(k, c.readR16(k)+1); return 2 }
		baseTable[0x0B+k*0x10] = func(c *CPU) int { c.writeR16(k, c.readR16(k)-1); return 2 }
		baseTable[0x09+k*0x10] = func(c *CPU) int {
			c.Reg.SetHL(alu.Add16(c.Reg, c.Reg.HL(), c.readR16(k)))
			return 2
		}
	}

	// INC r / DEC r / LD r,d8 for r in B,C,D,E,H,L,(HL),A.
	for d := byte(0); d < 8; d++ {
		d := d
		cost := 1
		loadCost := 2
		if d == 6 {
			cost = 3
			loadCost = 3
		}
		baseTable[0x04+d*8] = func(c *CPU) int {
			old := c.readR8(d)
			c.writeR8(d, alu.Add8(c.Reg, old, 1, false))
			return cost
		}
		baseTable[0x05+d*8] = func(c *CPU) int {
			old := c.readR8(d)
			c.writeR8(d, alu.Sub8(c.Reg, old, 1, false))
			return cost
		}
		baseTable[0x06+d*8] = func(c *CPU) int {
			c.writeR8(d, c.fetch8())
			return loadCost
		}
	}

	// LD r,r' for all (d,s) pairs except 0x76 (HALT).
	for d := byte(0); d < 8; d++ {
		for s := byte(0); s < 8; s++ {
			op := 0x40 + d*8 + s
			if op == 0x76 {
				continue
			}
			d, s := d, s
			cost := 1
			if d == 6 || s == 6 {
				cost = 2
			}
			baseTable[op] = func(c *CPU) int {
				c.writeR8(d, c.readR8(s))
				return cost
			}
		}
	}
	baseTable[0x76] = func(c *CPU) int { c.Halted = true; return 1 }

	// ALU A,r for ADD/ADC/SUB/SBC/AND/XOR/OR/CP, register and immediate forms.
	type aluGroup struct {
		base byte
		op   func(c *CPU, b byte)
	}
	groups := []aluGroup{
		{0x80, func(c *CPU, b byte) { c.Reg.SetA(alu.Add8(c.Reg, c.Reg.A(), b, true)) }},
		{0x88, func(c *CPU, b byte) { c.Reg.SetA(alu.Adc8(c.Reg, c.Reg.A(), b)) }},
		{0x90, func(c *CPU, b byte) { c.Reg.SetA(alu.Sub8(c.Reg, c.Reg.A(), b, true)) }},
		{0x98, func(c *CPU, b byte) { c.Reg.SetA(alu.Sbc8(c.Reg, c.Reg.A(), b)) }},
		{0xA0, func(c *CPU, b byte) { c.Reg.SetA(alu.And8(c.Reg, c.Reg.A(), b)) }},
		{0xA8, func(c *CPU, b byte) { c.Reg.SetA(alu.Xor8(c.Reg, c.Reg.A(), b)) }},
		{0xB0, func(c *CPU, b byte) { c.Reg.SetA(alu.Or8(c.Reg, c.Reg.A(), b)) }},
		{0xB8, func(c *CPU, b byte) { alu.Cp8(c.Reg, c.Reg.A(), b) }},
	}
	for _, g := range groups {
		g := g
		for s := byte(0); s < 8; s++ {
			s := s
			cost := 1
			if s == 6 {
				cost = 2
			}
			baseTable[g.base+s] = func(c *CPU) int {
				g.op(c, c.readR8(s))
				return cost
			}
		}
		// Immediate form lives a fixed offset from the register block:
		// 0x80->0xC6, 0x88->0xCE, ..., 0xB8->0xFE.
		immOp := 0xC6 + (g.base-0x80)/8*8
		baseTable[immOp] = func(c *CPU) int {
			g.op(c, c.fetch8())
			return 2
		}
	}

	// PUSH/POP for BC,DE,HL,AF.
	push := []func(c *CPU) uint16{
		func(c *CPU) uint16 { return c.Reg.BC() },
		func(c *CPU) uint16 { return c.Reg.DE() },
		func(c *CPU) uint16 { return c.Reg.HL() },
		func(c *CPU) uint16 { return c.Reg.AF() },
	}
	pop := []func(c *CPU, v uint16){
		func(c *CPU, v uint16) { c.Reg.SetBC(v) },
		func(c *CPU, v uint16) { c.Reg.SetDE(v) },
		func(c *CPU, v uint16) { c.Reg.SetHL(v) },
		func(c *CPU, v uint16) { c.Reg.SetAF(v) },
	}
	for k := byte(0); k < 4; k++ {
		k := k
		baseTable[0xC5+k*0x10] = func(c *CPU) int { c.push16(push[k](c)); return 4 }
		baseTable[0xC1+k*0x10] = func(c *CPU) int { pop[k](c, c.pop16()); return 3 }
	}

	// RST 00h,08h,...,38h.
	for i := byte(0); i < 8; i++ {
		i := i
		baseTable[0xC7+i*8] = func(c *CPU) int {
			c.push16(c.PC)
			c.PC = uint16(i) * 8
			return 4
		}
	}

	// JP cc,a16 / CALL cc,a16 / RET cc / JR cc,r8 for NZ,Z,NC,C.
	conds := []func(c *CPU) bool{
		func(c *CPU) bool { return !c.Reg.FlagZ() },
		func(c *CPU) bool { return c.Reg.FlagZ() },
		func(c *CPU) bool { return !c.Reg.FlagC() },
		func(c *CPU) bool { return c.Reg.FlagC() },
	}
	for cc := byte(0); cc < 4; cc++ {
		cc := cc
		baseTable[0xC2+cc*8] = func(c *CPU) int {
			addr := c.fetch16()
			if conds[cc](c) {
				c.PC = addr
				return 4
			}
			return 3
		}
		baseTable[0xC4+cc*8] = func(c *CPU) int {
			addr := c.fetch16()
			if conds[cc](c) {
				c.push16(c.PC)
				c.PC = addr
				return 6
			}
			return 3
		}
		baseTable[0xC0+cc*8] = func(c *CPU) int {
			if conds[cc](c) {
				c.PC = c.pop16()
				return 5
			}
			return 2
		}
		baseTable[0x20+cc*8] = func(c *CPU) int {
			off := int8(c.fetch8())
			if conds[cc](c) {
				c.PC = uint16(int32(c.PC) + int32(off))
				return 3
			}
			return 2
		}
	}

	assignMisc()
}

// assignMisc fills in the opcodes that don't belong to a regular block:
// unconditional control flow, loads through (BC)/(DE)/(HL±)/immediate
// addresses, stack-pointer arithmetic, accumulator rotates/flag ops, and
// EI/DI/HALT's sibling instructions.
func assignMisc() {
	baseTable[0x02] = func(c *CPU) int { c.Mem.Write(c.Reg.BC(), c.Reg.A()); return 2 }
	baseTable[0x12] = func(c *CPU) int { c.Mem.Write(c.Reg.DE(), c.Reg.A()); return 2 }
	baseTable[0x0A] = func(c *CPU) int { c.Reg.SetA(c.Mem.Read(c.Reg.BC())); return 2 }
	baseTable[0x1A] = func(c *CPU) int { c.Reg.SetA(c.Mem.Read(c.Reg.DE())); return 2 }

	baseTable[0x22] = func(c *CPU) int {
		hl := c.Reg.HL()
		c.Mem.Write(hl, c.Reg.A())
		c.Reg.SetHL(hl + 1)
		return 2
	}
	baseTable[0x2A] = func(c *CPU) int {
		hl := c.Reg.HL()
		c.Reg.SetA(c.Mem.Read(hl))
		c.Reg.SetHL(hl + 1)
		return 2
	}
	baseTable[0x32] = func(c *CPU) int {
		hl := c.Reg.HL()
		c.Mem.Write(hl, c.Reg.A())
		c.Reg.SetHL(hl - 1)
		return 2
	}
	baseTable[0x3A] = func(c *CPU) int {
		hl := c.Reg.HL()
		c.Reg.SetA(c.Mem.Read(hl))
		c.Reg.SetHL(hl - 1)
		return 2
	}

	baseTable[0x08] = func(c *CPU) int {
		addr := c.fetch16()
		c.Mem.Write(addr, byte(c.SP))
		c.Mem.Write(addr+1, byte(c.SP>>8))
		return 5
	}
	baseTable[0xEA] = func(c *CPU) int { c.Mem.Write(c.fetch16(), c.Reg.A()); return 4 }
	baseTable[0xFA] = func(c *CPU) int { c.Reg.SetA(c.Mem.Read(c.fetch16())); return 4 }

	baseTable[0xE0] = func(c *CPU) int { c.Mem.Write(0xFF00+uint16(c.fetch8()), c.Reg.A()); return 3 }
	baseTable[0xF0] = func(c *CPU) int { c.Reg.SetA(c.Mem.Read(0xFF00 + uint16(c.fetch8()))); return 3 }
	baseTable[0xE2] = func(c *CPU) int { c.Mem.Write(0xFF00+uint16(c.Reg.C()), c.Reg.A()); return 2 }
	baseTable[0xF2] = func(c *CPU) int { c.Reg.SetA(c.Mem.Read(0xFF00 + uint16(c.Reg.C()))); return 2 }

	baseTable[0x18] = func(c *CPU) int {
		off := int8(c.fetch8())
		c.PC = uint16(int32(c.PC) + int32(off))
		return 3
	}
	baseTable[0xC3] = func(c *CPU) int { c.PC = c.fetch16(); return 4 }
	baseTable[0xE9] = func(c *CPU) int { c.PC = c.Reg.HL(); return 1 }
	baseTable[0xCD] = func(c *CPU) int {
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 6
	}
	baseTable[0xC9] = func(c *CPU) int { c.PC = c.pop16(); return 4 }
	baseTable[0xD9] = func(c *CPU) int { c.PC = c.pop16(); c.IME = true; return 4 }

	baseTable[0xE8] = func(c *CPU) int {
		e8 := c.fetch8()
		c.SP = alu.AddSPSigned8(c.Reg, c.SP, e8)
		return 4
	}
	baseTable[0xF8] = func(c *CPU) int {
		e8 := c.fetch8()
		c.Reg.SetHL(alu.AddSPSigned8(c.Reg, c.SP, e8))
		return 3
	}
	baseTable[0xF9] = func(c *CPU) int { c.SP = c.Reg.HL(); return 2 }

	baseTable[0x07] = func(c *CPU) int { c.Reg.SetA(alu.Rlca(c.Reg, c.Reg.A())); return 1 }
	baseTable[0x0F] = func(c *CPU) int { c.Reg.SetA(alu.Rrca(c.Reg, c.Reg.A())); return 1 }
	baseTable[0x17] = func(c *CPU) int { c.Reg.SetA(alu.Rla(c.Reg, c.Reg.A())); return 1 }
	baseTable[0x1F] = func(c *CPU) int { c.Reg.SetA(alu.Rra(c.Reg, c.Reg.A())); return 1 }
	baseTable[0x27] = func(c *CPU) int { c.Reg.SetA(alu.Daa(c.Reg, c.Reg.A())); return 1 }
	baseTable[0x2F] = func(c *CPU) int { c.Reg.SetA(alu.Cpl(c.Reg, c.Reg.A())); return 1 }
	baseTable[0x37] = func(c *CPU) int { alu.Scf(c.Reg); return 1 }
	baseTable[0x3F] = func(c *CPU) int { alu.Ccf(c.Reg); return 1 }

	baseTable[0x10] = func(c *CPU) int { c.fetch8(); c.Stopped = true; return 1 }
	baseTable[0xF3] = func(c *CPU) int { c.DIDelay = 2; return 1 }
	baseTable[0xFB] = func(c *CPU) int { c.EIDelay = 2; return 1 }

	baseTable[0xCB] = func(c *CPU) int {
		sub := c.fetch8()
		return cbTable[sub](c)
	}
}
