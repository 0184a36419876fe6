// Package render displays tracer output: an orbit camera that drives the
// tracer, an RGBA framebuffer, terminal drawing and PNG export.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Framebuffer is a 2D array of pixels that can be rendered to the terminal.
// We use double vertical resolution by using half-block characters (▀).
type Framebuffer struct {
	Width  int          // Width in pixels (same as terminal columns)
	Height int          // Height in pixels (2x terminal rows due to half-blocks)
	Pixels []color.RGBA // Row-major pixel data, top row first
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// LoadRGBA copies packed 8-bit RGBA bytes, top row first, into the
// framebuffer. This is the layout tracer.WriteTex produces.
func (fb *Framebuffer) LoadRGBA(tex []byte) error {
	if n := 4 * len(fb.Pixels); len(tex) < n {
		return fmt.Errorf("load rgba: need %d bytes, got %d: %w", n, len(tex), io.ErrShortBuffer)
	}
	for i := range fb.Pixels {
		j := 4 * i
		fb.Pixels[i] = color.RGBA{tex[j], tex[j+1], tex[j+2], tex[j+3]}
	}
	return nil
}

// ScaleTo resamples the framebuffer into dst with bilinear filtering. The
// viewer traces at a fraction of the terminal resolution and scales up.
func (fb *Framebuffer) ScaleTo(dst *Framebuffer) {
	if dst.Width == fb.Width && dst.Height == fb.Height {
		copy(dst.Pixels, fb.Pixels)
		return
	}
	out := image.NewRGBA(image.Rect(0, 0, dst.Width, dst.Height))
	draw.BiLinear.Scale(out, out.Bounds(), fb.ToImage(), image.Rect(0, 0, fb.Width, fb.Height), draw.Src, nil)
	for y := range dst.Height {
		for x := range dst.Width {
			dst.Pixels[y*dst.Width+x] = out.RGBAAt(x, y)
		}
	}
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
