package mmu

import (
	"testing"

	"github.com/tkappe/gbcore/internal/cart"
	"github.com/tkappe/gbcore/internal/keypad"
	"github.com/tkappe/gbcore/internal/ppu"
	"github.com/tkappe/gbcore/internal/timer"
)

func newTestMmu(t *testing.T) (*Mmu, *uint32) {
	t.Helper()
	var ifReg byte
	var extraCycles uint32
	req := func(bit int) { ifReg |= 1 << uint(bit) }
	p := ppu.New(req)
	tm := timer.New(req)
	kp := &keypad.Keypad{}
	c := cart.NewROMOnly(make([]byte, 0x8000))
	m := New(c, p, tm, kp, func(n uint32) { extraCycles += n })
	_ = ifReg
	return m, &extraCycles
}

func TestWRAMRoundTrip(t *testing.T) {
	m, _ := newTestMmu(t)
	for addr := uint32(0xC000); addr <= 0xDFFF; addr += 0x333 {
		m.Write(uint16(addr), 0x5A)
		if got := m.Read(uint16(addr)); got != 0x5A {
			t.Fatalf("Read(%#04x) = %#02x, want 0x5A", addr, got)
		}
	}
}

func TestEchoRAMAliasesWRAM(t *testing.T) {
	m, _ := newTestMmu(t)
	m.Write(0xC010, 0x77)
	if got := m.Read(0xE010); got != 0x77 {
		t.Fatalf("echo read = %#02x, want 0x77", got)
	}
	m.Write(0xE020, 0x88)
	if got := m.Read(0xC020); got != 0x88 {
		t.Fatalf("wram read after echo write = %#02x, want 0x88", got)
	}
}

func TestOAMRoundTripAndUnusableRegion(t *testing.T) {
	m, _ := newTestMmu(t)
	m.Write(0xFE10, 0x42)
	if got := m.Read(0xFE10); got != 0x42 {
		t.Fatalf("OAM read = %#02x, want 0x42", got)
	}
	if got := m.Read(0xFEA0); got != 0x00 {
		t.Fatalf("unusable region read = %#02x, want 0x00", got)
	}
}

func TestHRAMRoundTrip(t *testing.T) {
	m, _ := newTestMmu(t)
	m.Write(0xFF90, 0x3C)
	if got := m.Read(0xFF90); got != 0x3C {
		t.Fatalf("HRAM read = %#02x, want 0x3C", got)
	}
}

func TestIEAndIFRegisters(t *testing.T) {
	m, _ := newTestMmu(t)
	m.Write(0xFFFF, 0x1F)
	if got := m.Read(0xFFFF); got != 0x1F {
		t.Fatalf("IE read = %#02x, want 0x1F", got)
	}
	m.RequestInterrupt(2)
	if got := m.Read(0xFF0F); got&0x04 == 0 {
		t.Fatalf("IF bit 2 not set after RequestInterrupt(2): %#02x", got)
	}
}

func TestOAMDMACopiesAndChargesCycles(t *testing.T) {
	m, extra := newTestMmu(t)
	rom := make([]byte, 0x8000)
	for i := 0; i < 0xA0; i++ {
		rom[0x4000+i] = byte(i + 1)
	}
	m.cart = cart.NewROMOnly(rom)

	m.Write(0xFF46, 0x40) // source = 0x4000
	for i := 0; i < 0xA0; i++ {
		if got := m.Read(0xFE00 + uint16(i)); got != byte(i+1) {
			t.Fatalf("OAM[%d] = %#02x, want %#02x", i, got, byte(i+1))
		}
	}
	if *extra != 160 {
		t.Fatalf("extra cycles charged = %d, want 160", *extra)
	}
}

func TestStackPushPop(t *testing.T) {
	m, _ := newTestMmu(t)
	sp := uint16(0xFFFE)
	m.Push16(&sp, 0xBEEF)
	if sp != 0xFFFC {
		t.Fatalf("sp after push = %#04x, want 0xFFFC", sp)
	}
	got := m.Pop16(&sp)
	if got != 0xBEEF || sp != 0xFFFE {
		t.Fatalf("pop = %#04x sp=%#04x, want 0xBEEF/0xFFFE", got, sp)
	}
}
