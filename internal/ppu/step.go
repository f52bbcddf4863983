package ppu

// Step advances the PPU until it has caught up with totalCycles, the
// machine's accumulated cycle counter. Each iteration acts only once the
// accumulated backlog covers the current mode's full duration, mirroring
// the original driving loop rather than a per-dot simulation.
func (p *PPU) Step(totalCycles uint32) {
	for {
		left := totalCycles - p.done
		switch p.mode {
		case ModeScanOAM:
			if left < DurationScanOAM {
				return
			}
			p.stepScanOAM()
		case ModeScanVRAM:
			if left < DurationScanVRAM {
				return
			}
			p.stepScanVRAM()
		case ModeHBlank:
			if left < DurationHBlank {
				return
			}
			p.stepHBlank()
		case ModeVBlank:
			if left < DurationVBlank {
				return
			}
			p.stepVBlank()
		}
	}
}

func (p *PPU) lcdOn() bool { return p.lcdc&0x80 != 0 }

func (p *PPU) setModeAndCheckStat(mode byte) {
	p.mode = mode
	p.stat = (p.stat &^ 0x03) | mode
	var enableBit byte
	switch mode {
	case ModeHBlank:
		enableBit = 1 << 3
	case ModeVBlank:
		enableBit = 1 << 4
	case ModeScanOAM:
		enableBit = 1 << 5
	default:
		return // ScanVRAM has no STAT interrupt source
	}
	if p.stat&enableBit != 0 {
		p.requestStat()
	}
}

func (p *PPU) requestStat() {
	if p.req != nil {
		p.req(1)
	}
}

func (p *PPU) requestVBlank() {
	if p.req != nil {
		p.req(0)
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if p.stat&(1<<6) != 0 {
			p.requestStat()
		}
	} else {
		p.stat &^= 1 << 2
	}
}

func (p *PPU) stepScanOAM() {
	p.done += DurationScanOAM
	p.setModeAndCheckStat(ModeScanVRAM)
}

func (p *PPU) stepScanVRAM() {
	p.done += DurationScanVRAM
	p.setModeAndCheckStat(ModeHBlank)
}

func (p *PPU) stepHBlank() {
	p.done += DurationHBlank
	if p.ly < 144 && p.lcdOn() {
		if p.recentlyChanged() {
			p.renderLine(p.ly)
		}
		p.setModeAndCheckStat(ModeScanOAM)
	} else {
		p.requestVBlank()
		p.setModeAndCheckStat(ModeVBlank)
	}
	p.ly++
	p.updateLYC()
}

func (p *PPU) stepVBlank() {
	p.done += DurationVBlank
	p.ly++
	if p.ly >= 154 {
		p.ly = 0
		p.setModeAndCheckStat(ModeScanOAM)
		p.completeFrame()
	}
}

func (p *PPU) completeFrame() {
	if p.recentlyChanged() {
		p.publishFrame()
	}
	p.periods++
}
