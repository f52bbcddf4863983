package cart

// MBC2 implements ROM banking plus MBC2's built-in 512x4-bit RAM. Unlike
// MBC1 there is no external RAM bank register: the chip carries its own
// small RAM, and only the low nibble of each byte is wired up.
type MBC2 struct {
	rom []byte
	ram [512]byte // only the low nibble of each byte is meaningful

	romBank    byte // 4 bits, 0 remapped to 1
	ramEnabled bool
}

func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		off := int(m.romBank)*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		return 0xF0 | (m.ram[int(addr-0xA000)%len(m.ram)] & 0x0F)
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value byte) {
	switch {
	case addr < 0x4000:
		// Bit 8 of the address distinguishes RAM-enable from ROM-bank-select
		// writes in this 0x0000-0x3FFF window.
		if addr&0x0100 == 0 {
			m.ramEnabled = (value & 0x0F) == 0x0A
			return
		}
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[int(addr-0xA000)%len(m.ram)] = value & 0x0F
	}
}

func (m *MBC2) Kind() Kind { return KindMBC2 }

func (m *MBC2) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram[:])
	return out
}

func (m *MBC2) LoadRAM(data []byte) {
	copy(m.ram[:], data)
}
