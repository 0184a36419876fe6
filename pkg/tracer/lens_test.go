package tracer

import (
	"math"
	"testing"

	"github.com/taigrr/glint/pkg/math3d"
)

func TestLensBasis(t *testing.T) {
	l := NewLens(math.Pi/2, 2, 0, 1)
	l.SetPose(math3d.V3(0, 0, -1), math3d.Zero3(), math3d.Up())

	u, v, w := l.Basis()
	if !u.Near(math3d.V3(1, 0, 0), 1e-12) {
		t.Errorf("u = %v, want +X", u)
	}
	if !v.Near(math3d.V3(0, 1, 0), 1e-12) {
		t.Errorf("v = %v, want +Y", v)
	}
	if !w.Near(math3d.V3(0, 0, 1), 1e-12) {
		t.Errorf("w = %v, want +Z (backward)", w)
	}
}

func TestTracerLensAccessors(t *testing.T) {
	tr := New()
	l := NewLens(math.Pi/3, 1.5, 0, 2)
	l.SetPose(math3d.V3(1, 0, 0), math3d.V3(1, 2, 3), math3d.Up())
	tr.SetLens(l)

	if got := tr.Lens().Origin(); got != math3d.V3(1, 2, 3) {
		t.Errorf("Lens().Origin() = %v, want (1, 2, 3)", got)
	}
	_, _, w := tr.Lens().Basis()
	if want := math3d.V3(0, 2, 3).Normalize(); !w.Near(want, 1e-12) {
		t.Errorf("Lens().Basis() w = %v, want %v", w, want)
	}
}

func TestLensPinholeCorners(t *testing.T) {
	// 90 degree FOV, square aspect, focal plane at distance 1.
	l := NewLens(math.Pi/2, 1, 0, 1)
	l.SetPose(math3d.V3(0, 0, -1), math3d.Zero3(), math3d.Up())
	rng := newTestRNG()

	tests := []struct {
		name string
		s, t float64
		dir  math3d.Vec3
	}{
		{"lower left", 0, 0, math3d.V3(-1, -1, -1)},
		{"upper right", 1, 1, math3d.V3(1, 1, -1)},
		{"center", 0.5, 0.5, math3d.V3(0, 0, -1)},
		{"lower right", 1, 0, math3d.V3(1, -1, -1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := l.RayFor(tc.s, tc.t, rng)
			if r.Origin != math3d.Zero3() {
				t.Errorf("pinhole origin = %v, want eye", r.Origin)
			}
			if !r.Dir.Near(tc.dir, 1e-12) {
				t.Errorf("dir = %v, want %v", r.Dir, tc.dir)
			}
		})
	}
}

func TestLensFocusPlaneIsSharp(t *testing.T) {
	const focus = 4.0
	l := NewLens(math.Pi/3, 1.5, 0.8, focus)
	l.SetPose(math3d.V3(0, 0, -1), math3d.V3(0, 0, 0), math3d.Up())
	rng := newTestRNG()

	pinhole := l
	pinhole.LensRadius = 0
	want := pinhole.RayFor(0.3, 0.7, rng).At(1)

	moved := false
	for range 200 {
		r := l.RayFor(0.3, 0.7, rng)
		if r.Origin != l.Origin() {
			moved = true
		}
		if off := r.Origin.Sub(l.Origin()).Len(); off > l.LensRadius {
			t.Fatalf("lens offset %v exceeds radius %v", off, l.LensRadius)
		}
		// Every lens sample converges on the same focal-plane point.
		if got := r.At(1); !got.Near(want, 1e-9) {
			t.Fatalf("focal point = %v, want %v", got, want)
		}
	}
	if !moved {
		t.Error("non-zero aperture should jitter the ray origin")
	}
}
