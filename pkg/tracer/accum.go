package tracer

import (
	"fmt"
	"io"
	"math"

	"github.com/taigrr/glint/pkg/math3d"
)

// accum is the progressive accumulation buffer: one linear RGB mean per pixel,
// stored top-down (row 0 is the top of the image). Every pixel holds the mean
// of exactly samples draws; all pixels advance together, one sample per frame.
type accum struct {
	width, height int
	pix           []float64 // 3 floats per pixel
	samples       int
}

func (a *accum) resize(w, h int) {
	a.width, a.height = w, h
	if n := 3 * w * h; cap(a.pix) >= n {
		a.pix = a.pix[:n]
	} else {
		a.pix = make([]float64, n)
	}
	a.reset()
}

func (a *accum) reset() {
	a.samples = 0
	clear(a.pix)
}

// offset returns the index of pixel (x, y), where y counts up from the bottom.
func (a *accum) offset(x, y int) int {
	return 3 * ((a.height-y-1)*a.width + x)
}

func (a *accum) at(x, y int) math3d.Vec3 {
	i := a.offset(x, y)
	return math3d.V3(a.pix[i], a.pix[i+1], a.pix[i+2])
}

// blend folds sample c into the running mean of n previous samples.
func (a *accum) blend(x, y, n int, c math3d.Vec3) {
	i := a.offset(x, y)
	fn := float64(n)
	a.pix[i] = (a.pix[i]*fn + c.X) / (fn + 1)
	a.pix[i+1] = (a.pix[i+1]*fn + c.Y) / (fn + 1)
	a.pix[i+2] = (a.pix[i+2]*fn + c.Z) / (fn + 1)
}

// TexSize returns the number of bytes WriteTex needs for a w×h image.
func TexSize(w, h int) int {
	return 4 * w * h
}

// writeTex converts the buffer to 8-bit RGBA, top-down, alpha 255.
func (a *accum) writeTex(dst []byte, gamma bool) error {
	if n := TexSize(a.width, a.height); len(dst) < n {
		return fmt.Errorf("write tex: need %d bytes, got %d: %w", n, len(dst), io.ErrShortBuffer)
	}
	for i, j := 0, 0; i < len(a.pix); i, j = i+3, j+4 {
		dst[j] = toByte(a.pix[i], gamma)
		dst[j+1] = toByte(a.pix[i+1], gamma)
		dst[j+2] = toByte(a.pix[i+2], gamma)
		dst[j+3] = 255
	}
	return nil
}

func toByte(x float64, gamma bool) byte {
	if gamma {
		x = math.Sqrt(x)
	}
	x *= 255.99
	switch {
	case x >= 255:
		return 255
	case x > 0:
		return byte(x)
	default:
		return 0
	}
}
