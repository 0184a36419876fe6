package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/cpu"
	"github.com/taigrr/glint/pkg/scene"
	"github.com/taigrr/glint/pkg/tracer"
	"github.com/urfave/cli"
)

var (
	sceneFlag = cli.StringFlag{
		Name:  "scene",
		Value: "spheres",
		Usage: "built-in scene when no model is given (" + strings.Join(scene.Names(), ", ") + ")",
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed for scene placement and sampling",
	}
)

// traceFlags returns the tracer settings shared by view and render.
func traceFlags(depth, spp int) []cli.Flag {
	return []cli.Flag{
		sceneFlag,
		seedFlag,
		cli.IntFlag{
			Name:  "depth",
			Value: depth,
			Usage: "maximum bounces per path",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: spp,
			Usage: "samples per pixel",
		},
		cli.IntFlag{
			Name:  "threads",
			Usage: "worker goroutines, 0 renders on the main goroutine (default: logical CPUs)",
		},
		cli.Float64Flag{
			Name:  "aperture",
			Value: -1,
			Usage: "lens aperture, negative keeps the scene's",
		},
		cli.BoolTFlag{
			Name:  "gamma",
			Usage: "apply gamma 2 correction to the output",
		},
	}
}

// loadScene loads the model named on the command line, or the built-in scene
// selected by --scene.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() > 0 {
		return scene.LoadGLTF(ctx.Args().First())
	}
	return scene.ByName(ctx.String("scene"), ctx.Uint64("seed"))
}

// defaultThreads returns the logical CPU count.
func defaultThreads() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		logger.Debugf("cpu count unavailable (%v), using runtime.NumCPU", err)
		return runtime.NumCPU()
	}
	return n
}

// newTracer creates an enabled tracer of size w x h with the scene loaded and
// the flag settings applied. The caller still has to give it a lens or camera.
func newTracer(ctx *cli.Context, s *scene.Scene, w, h int) (*tracer.Tracer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}

	tr := tracer.New()
	tr.SetSize(w, h)
	tr.SetMaxDepth(ctx.Int("depth"))
	tr.SetMaxSamples(ctx.Int("spp"))
	tr.SetSeed(ctx.Uint64("seed"))

	threads := defaultThreads()
	if ctx.IsSet("threads") {
		threads = ctx.Int("threads")
	}
	tr.SetThreads(threads)

	if err := s.Build(tr); err != nil {
		return nil, err
	}
	tr.SetEnabled(true)
	logger.Infof("scene %q: %d spheres, %dx%d, %d threads", s.Name, tr.World().Len(), w, h, threads)
	return tr, nil
}

// aperture returns the --aperture override, or the scene's own.
func aperture(ctx *cli.Context, s *scene.Scene) float64 {
	if a := ctx.Float64("aperture"); a >= 0 {
		return a
	}
	return s.Camera.Aperture
}
