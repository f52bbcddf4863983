// Package keypad implements the JOYP register's synthesis logic and the
// lock guarding it, since keypad state is the one piece of machine state
// the host thread writes directly while the emulation thread reads it.
package keypad

import "sync"

// Button bit positions within the pressed mask.
const (
	Right = 1 << iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// Keypad holds which buttons are pressed and the host-selected region
// (directions vs buttons), synthesizing the 0xFF00 read value on demand.
// All access goes through the mutex: held only for a single read or write,
// never across a line or frame.
type Keypad struct {
	mu      sync.Mutex
	region  byte // raw bits 4-5 as last written
	pressed byte // Button bitmask, set bits mean pressed
}

// SetRegion records the region-select nibble written to JOYP's upper bits.
func (k *Keypad) SetRegion(v byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.region = v & 0x30
}

// Read synthesizes the JOYP byte: bits 7-6 read as 1, bits 5-4 reflect the
// last-written region select, and bits 3-0 are active-low "pressed" bits
// for whichever region(s) are selected (0x10 -> directions, 0x20 -> buttons).
func (k *Keypad) Read() byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	res := byte(0xC0 | k.region | 0x0F)
	if k.region&0x10 == 0 {
		if k.pressed&Right != 0 {
			res &^= 0x01
		}
		if k.pressed&Left != 0 {
			res &^= 0x02
		}
		if k.pressed&Up != 0 {
			res &^= 0x04
		}
		if k.pressed&Down != 0 {
			res &^= 0x08
		}
	}
	if k.region&0x20 == 0 {
		if k.pressed&A != 0 {
			res &^= 0x01
		}
		if k.pressed&B != 0 {
			res &^= 0x02
		}
		if k.pressed&Select != 0 {
			res &^= 0x04
		}
		if k.pressed&Start != 0 {
			res &^= 0x08
		}
	}
	return res
}

// SetButton records a single button's pressed state, called by the host
// thread. Directional opposites are mutually exclusive.
func (k *Keypad) SetButton(button byte, pressed bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if pressed {
		k.pressed |= button
		switch button {
		case Right:
			k.pressed &^= Left
		case Left:
			k.pressed &^= Right
		case Up:
			k.pressed &^= Down
		case Down:
			k.pressed &^= Up
		}
	} else {
		k.pressed &^= button
	}
}
