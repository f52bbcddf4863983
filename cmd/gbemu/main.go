// Command gbemu loads a ROM into internal/machine and either drives it
// through an ebiten window (internal/ui) or, in -headless mode, runs a
// fixed number of frames and reports a framebuffer checksum for scripted
// testing.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tkappe/gbcore/internal/cart"
	"github.com/tkappe/gbcore/internal/cpu"
	"github.com/tkappe/gbcore/internal/machine"
	"github.com/tkappe/gbcore/internal/ui"
)

type CLIFlags struct {
	ROMPath string
	Scale   int
	Title   string
	Trace   bool
	SaveRAM bool // persist battery RAM next to ROM (.sav)

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace log")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "machine-cycle frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

// runHeadless steps the machine for roughly `frames` PPU frames (17556
// machine cycles each) and reports a checksum of the final framebuffer.
// A *cpu.ErrUnhandledOpcode from Step aborts the run.
func runHeadless(m *machine.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	const cyclesPerFrame = 17556

	// Stand in for the display host: consume each published frame so the
	// PPU's frame handoff does not block the stepping loop below.
	go func() {
		for {
			m.PPU.LockFrame()
			m.PPU.WaitFrameReady()
			m.PPU.UnlockFrame()
		}
	}()

	start := time.Now()
	var ran uint32
	target := uint32(frames) * cyclesPerFrame
	for ran < target {
		cyc, err := m.Step()
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		ran += uint32(cyc)
	}
	dur := time.Since(start)

	m.PPU.LockFrame()
	rgba := make([]byte, 160*144*4)
	rgbToRGBA(m.PPU.Framebuffer(), rgba)
	m.PPU.UnlockFrame()

	crc := crc32.ChecksumIEEE(rgba)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(rgba, 160, 144, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// rgbToRGBA expands the PPU's packed RGB8 framebuffer into opaque RGBA
// for PNG output and checksumming; kept in sync with internal/ui's copy.
func rgbToRGBA(rgb, rgba []byte) {
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		rgba[j] = rgb[i]
		rgba[j+1] = rgb[i+1]
		rgba[j+2] = rgb[i+2]
		rgba[j+3] = 0xFF
	}
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{
		Pix:    pix,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func savPath(romPath string) string {
	return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("-rom is required")
	}
	rom := mustRead(f.ROMPath)

	if h, err := cart.ParseHeader(rom); err == nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	m, err := machine.New(machine.Config{Trace: f.Trace}, rom)
	if err != nil {
		log.Fatalf("load cartridge: %v", err)
	}
	if f.Trace {
		m.SetTraceHook(func(c *cpu.CPU) {
			log.Printf("trace: pc=%04x op=%02x sp=%04x af=%04x bc=%04x de=%04x hl=%04x",
				c.PC, c.Mem.Read(c.PC), c.SP, c.Reg.AF(), c.Reg.BC(), c.Reg.DE(), c.Reg.HL())
		})
	}

	var sav string
	if f.SaveRAM {
		sav = savPath(f.ROMPath)
		if data, err := os.ReadFile(sav); err == nil {
			if bb, ok := m.Mmu.Cart().(cart.BatteryBacked); ok {
				bb.LoadRAM(data)
				log.Printf("loaded save RAM: %s (%d bytes)", sav, len(data))
			}
		}
	}
	writeBattery := func() {
		if !f.SaveRAM || sav == "" {
			return
		}
		if bb, ok := m.Mmu.Cart().(cart.BatteryBacked); ok {
			if err := os.WriteFile(sav, bb.SaveRAM(), 0644); err == nil {
				log.Printf("wrote %s", sav)
			}
		}
	}

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		writeBattery()
		return
	}

	uiCfg := ui.Config{Title: f.Title, Scale: f.Scale}
	app := ui.NewApp(uiCfg, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	writeBattery()
}
