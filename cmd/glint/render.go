package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/taigrr/glint/pkg/render"
	"github.com/taigrr/glint/pkg/timing"
	"github.com/taigrr/glint/pkg/tracer"
	"github.com/urfave/cli"
)

// RenderFrame traces a scene to the sample budget and writes it as a PNG.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	s, err := loadScene(ctx)
	if err != nil {
		return err
	}

	w, h := ctx.Int("width"), ctx.Int("height")
	tr, err := newTracer(ctx, s, w, h)
	if err != nil {
		return err
	}
	defer tr.Close()

	lens := s.Camera.Lens(float64(w) / float64(h))
	tr.SetLens(lens)
	tr.SetAperture(aperture(ctx, s))

	spp := ctx.Int("spp")
	report := max(spp/8, 1)
	clock := timing.NewClock(0)
	var (
		checkpoints []checkpoint
		start       = time.Now()
		last        = start
	)
	for tr.Update(clock.Tick()) {
		if n := tr.Samples(); n%report == 0 || tr.Done() {
			now := time.Now()
			checkpoints = append(checkpoints, checkpoint{samples: n, elapsed: now.Sub(last)})
			last = now
			logger.Infof("%d/%d samples", n, spp)
		}
	}

	if err := tr.Close(); err != nil {
		return err
	}

	fb, err := frameBuffer(tr, ctx.BoolT("gamma"), ctx.Int("upscale"))
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if err := fb.SavePNG(out); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}

	displayRenderStats(checkpoints, time.Since(start))
	logger.Noticef("wrote %s (%dx%d, %d spp)", out, fb.Width, fb.Height, tr.Samples())
	return nil
}

// frameBuffer copies the tracer output into a framebuffer, upscaled by factor.
func frameBuffer(tr *tracer.Tracer, gamma bool, factor int) (*render.Framebuffer, error) {
	w, h := tr.Size()
	tex := make([]byte, tracer.TexSize(w, h))
	if err := tr.WriteTex(tex, gamma); err != nil {
		return nil, err
	}
	fb := render.NewFramebuffer(w, h)
	if err := fb.LoadRGBA(tex); err != nil {
		return nil, err
	}
	if factor <= 1 {
		return fb, nil
	}
	big := render.NewFramebuffer(w*factor, h*factor)
	fb.ScaleTo(big)
	return big, nil
}

type checkpoint struct {
	samples int
	elapsed time.Duration
}

func displayRenderStats(checkpoints []checkpoint, total time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Samples", "Time", "Per sample"})

	prev := 0
	for _, c := range checkpoints {
		n := c.samples - prev
		table.Append([]string{
			fmt.Sprintf("%d-%d", prev+1, c.samples),
			c.elapsed.Round(time.Millisecond).String(),
			(c.elapsed / time.Duration(max(n, 1))).Round(time.Microsecond).String(),
		})
		prev = c.samples
	}
	table.SetFooter([]string{"TOTAL", total.Round(time.Millisecond).String(), ""})

	table.Render()
	logger.Noticef("render statistics\n%s", buf.String())
}
