package ui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tkappe/gbcore/internal/keypad"
	"github.com/tkappe/gbcore/internal/machine"
)

// App is an ebiten.Game driving a Machine: it owns the host-thread side
// of the split described in internal/machine (host touches Keypad and the
// PPU's frame lock; the emulation goroutine drives Machine.Run).
type App struct {
	cfg Config
	m   *machine.Machine
	tex *ebiten.Image
	rgba [160 * 144 * 4]byte // scratch buffer: PPU.Framebuffer is packed RGB8, ebiten wants RGBA

	paused bool

	runErr chan error
	stop   chan struct{}

	toastMsg   string
	toastUntil time.Time
}

// NewApp wires an App around an already-loaded Machine and starts its
// emulation loop on its own goroutine. The host thread only ever touches
// m.Keypad and the PPU's framebuffer through the locking it already
// provides (see ppu.LockFrame/WaitFrameReady).
func NewApp(cfg Config, m *machine.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)

	a := &App{cfg: cfg, m: m, runErr: make(chan error, 1), stop: make(chan struct{})}
	go func() { a.runErr <- m.Run(a.stop) }()
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	select {
	case err := <-a.runErr:
		return err
	default:
	}

	a.m.Keypad.SetButton(keypad.Right, ebiten.IsKeyPressed(ebiten.KeyRight))
	a.m.Keypad.SetButton(keypad.Left, ebiten.IsKeyPressed(ebiten.KeyLeft))
	a.m.Keypad.SetButton(keypad.Up, ebiten.IsKeyPressed(ebiten.KeyUp))
	a.m.Keypad.SetButton(keypad.Down, ebiten.IsKeyPressed(ebiten.KeyDown))
	a.m.Keypad.SetButton(keypad.A, ebiten.IsKeyPressed(ebiten.KeyZ))
	a.m.Keypad.SetButton(keypad.B, ebiten.IsKeyPressed(ebiten.KeyX))
	a.m.Keypad.SetButton(keypad.Start, ebiten.IsKeyPressed(ebiten.KeyEnter))
	a.m.Keypad.SetButton(keypad.Select, ebiten.IsKeyPressed(ebiten.KeyShiftRight))

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
		a.toast(fmt.Sprintf("Paused: %v", a.paused))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		} else {
			a.toast("Screenshot saved")
		}
	}

	return nil
}

// Draw's WaitFrameReady call is where real-time pacing actually happens:
// the emulation goroutine blocks in PPU.publishFrame until this call
// consumes the frame, so the host's vsync-driven Draw cadence (~60Hz) is
// what throttles emulation to roughly native DMG speed.
// Pausing simply stops calling it, leaving the emulation goroutine parked.
func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	if !a.paused {
		a.m.PPU.LockFrame()
		a.m.PPU.WaitFrameReady()
		rgbToRGBA(a.m.PPU.Framebuffer(), a.rgba[:])
		a.m.PPU.UnlockFrame()
		a.tex.WritePixels(a.rgba[:])
	}
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) saveScreenshot() error {
	var rgba [160 * 144 * 4]byte
	a.m.PPU.LockFrame()
	rgbToRGBA(a.m.PPU.Framebuffer(), rgba[:])
	a.m.PPU.UnlockFrame()

	img := &image.RGBA{Pix: rgba[:], Stride: 4 * 160, Rect: image.Rect(0, 0, 160, 144)}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// rgbToRGBA expands the PPU's packed RGB8 framebuffer into opaque RGBA,
// the format ebiten.Image.WritePixels and image.RGBA both expect.
func rgbToRGBA(rgb, rgba []byte) {
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		rgba[j] = rgb[i]
		rgba[j+1] = rgb[i+1]
		rgba[j+2] = rgb[i+2]
		rgba[j+3] = 0xFF
	}
}
