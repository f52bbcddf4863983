package ppu

// renderLine renders background/window pixels for line y, then composites
// sprites on top, following the LCDC/BGP/OBP0/OBP1 semantics of the DMG
// pixel pipeline.
func (p *PPU) renderLine(y byte) {
	base := int(y) * ScreenWidth * 3

	bgEnabled := p.lcdc&0x01 != 0
	wdEnabled := p.lcdc&0x20 != 0
	if !bgEnabled && !wdEnabled {
		for x := 0; x < ScreenWidth; x++ {
			p.setPixel(base, x, 0xFF)
		}
		p.renderSprites(y, base)
		return
	}

	usingTileData1 := p.lcdc&0x10 != 0
	bgTilemapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		bgTilemapBase = 0x9C00
	}
	wdTilemapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		wdTilemapBase = 0x9C00
	}

	for x := 0; x < ScreenWidth; x++ {
		var code byte
		if wdEnabled && y >= p.wy && byte(x) >= p.wx {
			code = p.tileCode(wdTilemapBase, usingTileData1, x-int(p.wx), int(y)-int(p.wy))
		} else {
			code = p.tileCode(bgTilemapBase, usingTileData1, (x+int(p.scx))&0xFF, (int(y)+int(p.scy))&0xFF)
		}
		p.setPixel(base, x, p.shade(p.bgp, code))
	}

	p.renderSprites(y, base)
}

// tileDataAddr returns the absolute VRAM address (0x8000-based) of the
// first byte of the given tile. With usingTileData1, tile indices are
// unsigned across tileset1 (0-127) and tileset_s (128-255). Otherwise
// indices are signed: non-negative reads tileset_0 at 0x9000, negative
// reads tileset_s at 0x8800.
func (p *PPU) tileDataAddr(tileIndex byte, usingTileData1 bool) uint16 {
	if usingTileData1 {
		return 0x8000 + uint16(tileIndex)*16
	}
	signed := int32(int8(tileIndex))
	return uint16(0x9000 + signed*16)
}

func (p *PPU) tileCode(tilemapBase uint16, usingTileData1 bool, px, py int) byte {
	tileX, tileY := px/8, py/8
	mapAddr := tilemapBase - 0x8000 + uint16(tileY*32+tileX)
	tileIndex := p.vram[mapAddr]
	dataAddr := p.tileDataAddr(tileIndex, usingTileData1) - 0x8000
	rowOffset := uint16(py%8) * 2
	low := p.vram[dataAddr+rowOffset]
	high := p.vram[dataAddr+rowOffset+1]
	bit := byte(0x80 >> uint(px%8))
	var code byte
	if low&bit != 0 {
		code |= 0x01
	}
	if high&bit != 0 {
		code |= 0x02
	}
	return code
}

func (p *PPU) shade(palette, code byte) byte {
	s := (palette >> (code * 2)) & 0x03
	return 0xFF - 85*s
}

func (p *PPU) setPixel(lineBase, x int, v byte) {
	i := lineBase + x*3
	p.screen[i], p.screen[i+1], p.screen[i+2] = v, v, v
}

func (p *PPU) pixelIsWhite(lineBase, x int) bool {
	i := lineBase + x*3
	return p.screen[i] == 0xFF && p.screen[i+1] == 0xFF && p.screen[i+2] == 0xFF
}

type oamEntry struct {
	ypos, xpos, tileNo, attr byte
}

func (p *PPU) oamEntry(index int) oamEntry {
	i := index * 4
	return oamEntry{ypos: p.oam[i], xpos: p.oam[i+1], tileNo: p.oam[i+2], attr: p.oam[i+3]}
}

// renderSprites composites up to 10 sprites onto line y, in reverse OAM
// index order, skipping any that don't intersect the line.
func (p *PPU) renderSprites(y byte, lineBase int) {
	if p.lcdc&0x02 == 0 {
		return
	}
	drawn := 0
	for idx := 39; idx >= 0 && drawn < 10; idx-- {
		s := p.oamEntry(idx)
		top := int(s.ypos) - 16
		if top > int(y) || top+8 <= int(y) {
			continue
		}
		drawn++

		palette := p.obp0
		if s.attr&0x10 != 0 {
			palette = p.obp1
		}
		xflip := s.attr&0x20 != 0
		yflip := s.attr&0x40 != 0
		behindBG := s.attr&0x80 != 0

		ty := int(y) - top
		if yflip {
			ty = 7 - ty
		}
		dataAddr := uint16(s.tileNo)*16 + uint16(ty)*2

		for tx := 0; tx < 8; tx++ {
			screenX := int(s.xpos) - 8 + tx
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			srcX := tx
			if xflip {
				srcX = 7 - tx
			}
			bit := byte(0x80 >> uint(srcX))
			var code byte
			if p.vram[dataAddr]&bit != 0 {
				code |= 0x01
			}
			if p.vram[dataAddr+1]&bit != 0 {
				code |= 0x02
			}
			if code == 0 {
				continue
			}
			if behindBG && !p.pixelIsWhite(lineBase, screenX) {
				continue
			}
			p.setPixel(lineBase, screenX, p.shade(palette, code))
		}
	}
}
