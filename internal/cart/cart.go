// Package cart implements the cartridge side of the address space: ROM
// bank storage, MBC1/MBC2 bank-switching side effects, and external RAM.
// ROM-only, MBC1 and MBC2 are supported; other MBC variants (MBC3, MBC5,
// MBC6, MBC7, HuC1, ...) are not.
package cart

import "fmt"

// Kind identifies which bank-switching behavior a cartridge implements.
type Kind int

const (
	KindROMOnly Kind = iota
	KindMBC1
	KindMBC2
)

func (k Kind) String() string {
	switch k {
	case KindROMOnly:
		return "ROM ONLY"
	case KindMBC1:
		return "MBC1"
	case KindMBC2:
		return "MBC2"
	default:
		return "unknown"
	}
}

// ErrUnknownCartridge is returned when the header names a cartridge type
// this core doesn't implement banking for.
type ErrUnknownCartridge struct{ Type byte }

func (e *ErrUnknownCartridge) Error() string {
	return fmt.Sprintf("cart: unsupported cartridge type %#02x", e.Type)
}

// Cartridge is the minimal interface the MMU needs for ROM/RAM banking.
// Addresses are CPU addresses: Read/Write cover both the 0x0000-0x7FFF
// ROM+bank-select window and the 0xA000-0xBFFF external RAM window.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	Kind() Kind
}

// BatteryBacked is an optional interface for cartridges whose external RAM
// should survive across runs (battery-backed SRAM, not full save-state
// serialization — that's a non-goal).
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// New picks an implementation based on the ROM header's cartridge-type
// byte (0x0147). Returns ErrUnknownCartridge for any type byte this core
// doesn't implement; the loader must abort startup on that error.
func New(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x05, 0x06:
		return NewMBC2(rom), nil
	default:
		return nil, &ErrUnknownCartridge{Type: h.CartType}
	}
}
