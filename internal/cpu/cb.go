package cpu

import "github.com/tkappe/gbcore/internal/alu"

// cbTable maps each of the 256 CB-prefixed bytes to a closure, built from
// the same 8x8 shape the encoding uses: the low 3 bits select one of the 8
// byte-register targets (6 = (HL)), the next 3 bits select the rotate/
// shift kind or the bit index, and the top 2 bits pick the block
// (rotate/shift group, BIT, RES, SET).
var cbTable [256]func(*CPU) int

func init() {
	shiftOps := []func(c *CPU, a byte) byte{
		func(c *CPU, a byte) byte { return alu.Rlc(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Rrc(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Rl(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Rr(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Sla(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Sra(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Swap(c.Reg, a) },
		func(c *CPU, a byte) byte { return alu.Srl(c.Reg, a) },
	}

	for reg8 := byte(0); reg8 < 8; reg8++ {
		reg8 := reg8
		cost := 2
		if reg8 == 6 {
			cost = 4
		}
		for y := byte(0); y < 8; y++ {
			y := y
			op := func(c *CPU) int {
				c.writeR8(reg8, shiftOps[y](c, c.readR8(reg8)))
				return cost
			}
			cbTable[0x00+y*8+reg8] = op
		}

		bitCost := cost
		setResCost := cost
		if reg8 == 6 {
			bitCost = 3 // BIT n,(HL) reads memory once, no write-back
		}
		for n := byte(0); n < 8; n++ {
			n := n
			cbTable[0x40+n*8+reg8] = func(c *CPU) int {
				alu.Bit(c.Reg, c.readR8(reg8), uint(n))
				return bitCost
			}
			cbTable[0x80+n*8+reg8] = func(c *CPU) int {
				c.writeR8(reg8, alu.Res(c.readR8(reg8), uint(n)))
				return setResCost
			}
			cbTable[0xC0+n*8+reg8] = func(c *CPU) int {
				c.writeR8(reg8, alu.Set(c.readR8(reg8), uint(n)))
				return setResCost
			}
		}
	}
}
