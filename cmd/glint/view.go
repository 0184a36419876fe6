package main

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/glint/pkg/log"
	"github.com/taigrr/glint/pkg/render"
	"github.com/taigrr/glint/pkg/scene"
	"github.com/taigrr/glint/pkg/timing"
	"github.com/taigrr/glint/pkg/tracer"
	"github.com/urfave/cli"
)

const (
	orbitStep     = 0.15 // Radians per key press
	dragSpeed     = 0.03 // Radians per cell dragged
	zoomStep      = 0.9
	statusRows    = 1
	maxFrameDelta = 100 * time.Millisecond
)

// View runs the interactive terminal viewer.
func View(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	logFile, err := os.Create(ctx.String("log"))
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	log.SetSink(logFile)

	s, err := loadScene(ctx)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	v, err := newViewer(ctx, s, width, height)
	if err != nil {
		return err
	}
	defer v.tr.Close()

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	// Context for clean shutdown
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// The tracer and camera belong to this goroutine; events are handed over.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-runCtx.Done():
				return
			}
		}
	}()

	clock := timing.NewClock(maxFrameDelta)
	frameTime := time.Second / time.Duration(max(ctx.Int("fps"), 1))
	redraw := true

	for {
		start := time.Now()

	drain:
		for {
			select {
			case <-runCtx.Done():
				return nil
			case ev := <-events:
				quit, resized := v.handle(ev)
				if quit {
					return nil
				}
				if resized {
					term.Erase()
					term.Resize(v.width, v.height)
					redraw = true
				}
			default:
				break drain
			}
		}

		if v.tr.Update(clock.Tick()) {
			redraw = true
		}
		if redraw {
			if err := v.draw(term); err != nil {
				return err
			}
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
			redraw = false
		}

		if elapsed := time.Since(start); elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}

// viewer owns the tracer, the orbit camera and the display buffers.
type viewer struct {
	tr     *tracer.Tracer
	camera *render.OrbitCamera
	gamma  bool
	scale  int
	spp    int

	width, height int // Terminal cells
	tex           []byte
	traced        *render.Framebuffer // Tracer resolution
	display       *render.Framebuffer // Terminal resolution

	dragging     bool
	lastX, lastY int
}

func newViewer(ctx *cli.Context, s *scene.Scene, width, height int) (*viewer, error) {
	v := &viewer{
		gamma: ctx.BoolT("gamma"),
		scale: max(ctx.Int("scale"), 1),
		spp:   ctx.Int("spp"),
	}

	tw, th := v.traceSize(width, height)
	tr, err := newTracer(ctx, s, tw, th)
	if err != nil {
		return nil, err
	}
	v.tr = tr

	off := s.Camera.Eye.Sub(s.Camera.LookAt)
	dist := off.Len()
	v.camera = render.NewOrbitCamera(s.Camera.LookAt, dist)
	if dist > 0 {
		v.camera.SetAngles(math.Atan2(off.X, off.Z), math.Asin(off.Y/dist))
	}
	v.camera.SetFOV(s.Camera.FovY)

	tr.SetAperture(aperture(ctx, s))
	tr.SetCamera(v.camera)
	v.resize(width, height)
	return v, nil
}

// traceSize returns the tracer resolution for a terminal of the given size:
// half-blocks double the vertical resolution, and the status line is kept
// free.
func (v *viewer) traceSize(width, height int) (int, int) {
	fbH := 2 * max(height-statusRows, 1)
	return max(width/v.scale, 1), max(fbH/v.scale, 1)
}

func (v *viewer) resize(width, height int) {
	v.width, v.height = width, height
	tw, th := v.traceSize(width, height)
	v.tr.SetSize(tw, th)
	v.camera.SetScreen(tw, th)
	v.tex = make([]byte, tracer.TexSize(tw, th))
	v.traced = render.NewFramebuffer(tw, th)
	v.display = render.NewFramebuffer(width, 2*max(height-statusRows, 1))
	logger.Debugf("resized to %dx%d cells, tracing %dx%d", width, height, tw, th)
}

// handle applies one terminal event. It reports whether to quit and whether
// the terminal was resized.
func (v *viewer) handle(ev uv.Event) (quit, resized bool) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.resize(ev.Width, ev.Height)
		return false, true

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape", "ctrl+c", "q"):
			return true, false
		case ev.MatchString("w", "up"):
			v.camera.Orbit(0, orbitStep)
		case ev.MatchString("s", "down"):
			v.camera.Orbit(0, -orbitStep)
		case ev.MatchString("a", "left"):
			v.camera.Orbit(-orbitStep, 0)
		case ev.MatchString("d", "right"):
			v.camera.Orbit(orbitStep, 0)
		case ev.MatchString("+", "="):
			v.camera.Dolly(zoomStep)
		case ev.MatchString("-", "_"):
			v.camera.Dolly(1 / zoomStep)
		case ev.MatchString("r"):
			v.camera.Reset()
		}

	case uv.MouseClickEvent:
		v.dragging = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.dragging = false

	case uv.MouseMotionEvent:
		if v.dragging {
			dx, dy := ev.X-v.lastX, ev.Y-v.lastY
			v.camera.Orbit(float64(dx)*dragSpeed, float64(dy)*dragSpeed)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.camera.Dolly(zoomStep)
		case uv.MouseWheelDown:
			v.camera.Dolly(1 / zoomStep)
		}
	}
	return false, false
}

// draw copies the current estimate to the screen along with the status line.
func (v *viewer) draw(scr uv.Screen) error {
	if err := v.tr.WriteTex(v.tex, v.gamma); err != nil {
		return err
	}
	if err := v.traced.LoadRGBA(v.tex); err != nil {
		return err
	}
	v.traced.ScaleTo(v.display)

	rows := max(v.height-statusRows, 1)
	v.display.Draw(scr, uv.Rectangle(image.Rect(0, 0, v.width, rows)))

	status := fmt.Sprintf(" %d/%d spp  %s  arrows/drag: orbit  +/-: zoom  r: reset  esc: quit", v.tr.Samples(), v.spp, v.tr.State())
	fg := render.ColorGray
	if v.tr.Done() {
		fg = render.ColorGreen
	}
	blank := fmt.Sprintf("%*s", v.width, "")
	render.DrawText(scr, 0, rows, v.width, blank, fg, render.ColorBlack)
	render.DrawText(scr, 0, rows, v.width, status, fg, render.ColorBlack)
	return nil
}
