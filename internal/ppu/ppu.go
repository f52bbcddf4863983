// Package ppu implements the scanline pixel pipeline: VRAM/OAM storage, the
// four-mode timing state machine driven by accumulated machine cycles,
// background/window/sprite line rendering, and the frame-ready handoff to
// the host thread.
package ppu

import "sync"

// Mode values mirror the low two bits of STAT.
const (
	ModeHBlank   byte = 0
	ModeVBlank   byte = 1
	ModeScanOAM  byte = 2
	ModeScanVRAM byte = 3
)

// Mode durations in machine cycles.
const (
	DurationScanOAM  = 20
	DurationScanVRAM = 43
	DurationHBlank   = 51
	DurationVBlank   = 114
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// InterruptRequester raises an IF bit (0=VBlank, 1=LCD STAT, 2=Timer, ...).
type InterruptRequester func(bit int)

// PPU owns VRAM, OAM, the LCD control/status registers, and the completed
// framebuffer. The CPU only ever touches it through CPURead/CPUWrite; the
// MMU forwards the address ranges it owns here.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF: tileset1, tileset_s, tileset0, tilemap0, tilemap1
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc, stat           byte
	scy, scx, ly, lyc    byte
	bgp, obp0, obp1      byte
	wy, wx               byte

	mode byte
	done uint32

	screen [ScreenWidth * ScreenHeight * 3]byte

	// periods/lastChange implement the "don't re-render or re-signal a
	// frame nobody changed" optimization: periods is a monotonic frame
	// counter, lastChange records its value as of the most recent write
	// that could affect pixel output.
	periods    uint32
	lastChange uint32

	req InterruptRequester

	frameMu    sync.Mutex
	frameCond  *sync.Cond
	frameReady bool
}

func New(req InterruptRequester) *PPU {
	p := &PPU{req: req}
	p.frameCond = sync.NewCond(&p.frameMu)
	// Post-boot LCDC (0x91) has operation/tile-data/bg-display set; window
	// display is off.
	p.lcdc = 0x91
	p.mode = ModeScanOAM
	return p
}

func (p *PPU) Mode() byte { return p.mode }
func (p *PPU) LY() byte   { return p.ly }

func (p *PPU) markChange() { p.lastChange = p.periods }

func (p *PPU) recentlyChanged() bool { return p.periods-p.lastChange <= 2 }

// CPURead returns bytes for VRAM, OAM, and the PPU's I/O registers.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and the PPU's I/O registers.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		p.vram[addr-0x8000] = value
		p.markChange()
	case addr >= 0xFE00 && addr <= 0xFE9F:
		p.oam[addr-0xFE00] = value
		p.markChange()
	case addr == 0xFF40:
		p.lcdc = value
		p.markChange()
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
		p.markChange()
	case addr == 0xFF42:
		p.scy = value
		p.markChange()
	case addr == 0xFF43:
		p.scx = value
		p.markChange()
	case addr == 0xFF44:
		p.ly = 0
		p.markChange()
	case addr == 0xFF45:
		p.lyc = value
		p.markChange()
	case addr == 0xFF47:
		p.bgp = value
		p.markChange()
	case addr == 0xFF48:
		p.obp0 = value
		p.markChange()
	case addr == 0xFF49:
		p.obp1 = value
		p.markChange()
	case addr == 0xFF4A:
		p.wy = value
		p.markChange()
	case addr == 0xFF4B:
		p.wx = value
		p.markChange()
	}
}

// WriteOAMByte is used by OAM DMA, which bypasses the normal CPU gating.
func (p *PPU) WriteOAMByte(index int, value byte) {
	p.oam[index] = value
	p.markChange()
}

// Framebuffer returns the completed frame as packed RGB8 rows, no padding.
// Callers must hold the frame lock (LockFrame/UnlockFrame) while reading it
// from a different goroutine than the emulation loop.
func (p *PPU) Framebuffer() []byte { return p.screen[:] }

// LockFrame/UnlockFrame let the host safely blit the framebuffer while the
// emulation thread is blocked in publishFrame.
func (p *PPU) LockFrame()   { p.frameMu.Lock() }
func (p *PPU) UnlockFrame() { p.frameMu.Unlock() }

// WaitFrameReady blocks the host until a frame has been published, then
// clears the flag so the emulation thread (blocked in publishFrame) can
// resume. Must be called with the frame lock held (see LockFrame).
func (p *PPU) WaitFrameReady() {
	for !p.frameReady {
		p.frameCond.Wait()
	}
	p.frameReady = false
	p.frameCond.Signal()
}

// publishFrame is called from the emulation thread at the end of a frame
// that had a recent change. It signals the host and blocks until the host
// has observed the frame, preventing the emulator from overwriting pixels
// mid-blit.
func (p *PPU) publishFrame() {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	p.frameReady = true
	p.frameCond.Signal()
	for p.frameReady {
		p.frameCond.Wait()
	}
}
