package alu

import (
	"testing"

	"github.com/tkappe/gbcore/internal/reg"
)

func TestAdd8Flags(t *testing.T) {
	cases := []struct {
		a, b             byte
		wantZ, wantH, wantC bool
	}{
		{0x3A, 0xC6, true, true, true},   // 0x3A+0xC6 = 0x100 -> 0, half+full carry
		{0x00, 0x00, true, false, false}, // 0+0 = 0
		{0x0F, 0x01, false, true, false}, // half-carry only
		{0x44, 0x11, false, false, false},
	}
	for _, c := range cases {
		var r reg.Reg
		res := Add8(&r, c.a, c.b, true)
		want := c.a + c.b
		if res != want {
			t.Fatalf("Add8(%#x,%#x)=%#x want %#x", c.a, c.b, res, want)
		}
		if r.FlagZ() != c.wantZ {
			t.Errorf("Add8(%#x,%#x) Z=%v want %v", c.a, c.b, r.FlagZ(), c.wantZ)
		}
		if r.FlagH() != c.wantH {
			t.Errorf("Add8(%#x,%#x) H=%v want %v", c.a, c.b, r.FlagH(), c.wantH)
		}
		if r.FlagC() != c.wantC {
			t.Errorf("Add8(%#x,%#x) C=%v want %v", c.a, c.b, r.FlagC(), c.wantC)
		}
		if r.FlagN() {
			t.Errorf("Add8(%#x,%#x) N should be clear", c.a, c.b)
		}
	}
}

func TestAdd8NoCarryUpdate(t *testing.T) {
	var r reg.Reg
	r.SetFlagC(true)
	Add8(&r, 0xFF, 0x01, false)
	if !r.FlagC() {
		t.Fatalf("C flag should be left untouched when updateCarry=false")
	}
}

func TestSub8Flags(t *testing.T) {
	var r reg.Reg
	res := Sub8(&r, 0x10, 0x01, true)
	if res != 0x0F {
		t.Fatalf("Sub8(0x10,0x01)=%#x want 0x0F", res)
	}
	if !r.FlagH() {
		t.Fatalf("expected half-borrow")
	}
	if r.FlagC() {
		t.Fatalf("expected no borrow")
	}
	if !r.FlagN() {
		t.Fatalf("N must be set after subtraction")
	}

	r2 := reg.Reg{}
	Sub8(&r2, 0x01, 0x10, true)
	if !r2.FlagC() {
		t.Fatalf("expected borrow for 0x01-0x10")
	}
}

func TestAdcSbcRespectIncomingCarry(t *testing.T) {
	var r reg.Reg
	r.SetFlagC(true)
	res := Adc8(&r, 0x0F, 0x00)
	if res != 0x10 {
		t.Fatalf("Adc8(0x0F,0x00) with carry in = %#x want 0x10", res)
	}
	if !r.FlagH() {
		t.Fatalf("expected half-carry from incoming carry bit")
	}

	var r2 reg.Reg
	r2.SetFlagC(true)
	res2 := Sbc8(&r2, 0x00, 0x00)
	if res2 != 0xFF {
		t.Fatalf("Sbc8(0x00,0x00) with carry in = %#x want 0xFF", res2)
	}
	if !r2.FlagC() || !r2.FlagH() {
		t.Fatalf("expected borrow and half-borrow from incoming carry bit")
	}
}

func TestDaaRoundTrip(t *testing.T) {
	// 0x15 + 0x27 = 0x3C in binary; DAA should adjust to 0x42 (BCD 15+27=42).
	var r reg.Reg
	res := Add8(&r, 0x15, 0x27, true)
	res = Daa(&r, res)
	if res != 0x42 {
		t.Fatalf("DAA(0x15+0x27) = %#x want 0x42", res)
	}
	if r.FlagC() {
		t.Fatalf("no decimal overflow expected")
	}

	// 0x90 + 0x90 = 0x120 truncated to 0x20; DAA should carry and yield 0x80 (90+90=180).
	var r2 reg.Reg
	res2 := Add8(&r2, 0x90, 0x90, true)
	res2 = Daa(&r2, res2)
	if res2 != 0x80 {
		t.Fatalf("DAA(0x90+0x90) = %#x want 0x80", res2)
	}
	if !r2.FlagC() {
		t.Fatalf("expected decimal carry for 90+90")
	}
}

func TestRotateIdentityAndCarry(t *testing.T) {
	var r reg.Reg
	a := byte(0x85)
	res := Rlc(&r, a)
	want := byte((a << 1) | (a >> 7))
	if res != want {
		t.Fatalf("Rlc(%#x)=%#x want %#x", a, res, want)
	}
	if !r.FlagC() {
		t.Fatalf("expected carry out of bit 7")
	}
	back := Rrc(&r, res)
	if back != a {
		t.Fatalf("Rlc then Rrc should be identity: got %#x want %#x", back, a)
	}
}

func TestSwapInvolution(t *testing.T) {
	var r reg.Reg
	for _, a := range []byte{0x00, 0x0F, 0xF0, 0xAB, 0xFF} {
		once := Swap(&r, a)
		twice := Swap(&r, once)
		if twice != a {
			t.Fatalf("Swap(Swap(%#x))=%#x want %#x", a, twice, a)
		}
	}
}

func TestBitSetRes(t *testing.T) {
	var r reg.Reg
	a := Set(0x00, 3)
	Bit(&r, a, 3)
	if r.FlagZ() {
		t.Fatalf("BIT 3 on a set bit should clear Z")
	}
	a = Res(a, 3)
	Bit(&r, a, 3)
	if !r.FlagZ() {
		t.Fatalf("BIT 3 on a cleared bit should set Z")
	}
}

func TestSraPreservesSignBit(t *testing.T) {
	var r reg.Reg
	res := Sra(&r, 0x81)
	if res != 0xC0 {
		t.Fatalf("Sra(0x81)=%#x want 0xC0", res)
	}
	if !r.FlagC() {
		t.Fatalf("expected carry out of bit 0")
	}
}

func TestSlaShiftsInZero(t *testing.T) {
	var r reg.Reg
	res := Sla(&r, 0x81)
	if res != 0x02 {
		t.Fatalf("Sla(0x81)=%#x want 0x02", res)
	}
	if !r.FlagC() {
		t.Fatalf("expected carry from bit 7")
	}
}
