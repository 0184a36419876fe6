package tracer

import (
	"math"
	"testing"

	"github.com/taigrr/glint/pkg/math3d"
)

func TestSphereHitDistance(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
	}{
		{"unit", 1},
		{"half", 0.5},
		{"large", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Sphere{Center: math3d.Zero3(), Radius: tc.radius}
			r := math3d.Ray{Origin: math3d.V3(0, 0, 5), Dir: math3d.V3(0, 0, -1)}

			h, ok := s.Hit(r, 1e-3, math.Inf(1))
			if !ok {
				t.Fatal("expected hit")
			}
			if math.Abs(h.T-(5-tc.radius)) > 1e-9 {
				t.Errorf("t = %v, want %v", h.T, 5-tc.radius)
			}
			if math.Abs(h.Point.Len()-tc.radius) > 1e-9 {
				t.Errorf("|point| = %v, want %v", h.Point.Len(), tc.radius)
			}
			// Normal parallel to the hit point.
			if h.Normal.Cross(h.Point).Len() > 1e-9 || h.Normal.Dot(h.Point) <= 0 {
				t.Errorf("normal %v not parallel to point %v", h.Normal, h.Point)
			}
			if math.Abs(h.Normal.Len()-1) > 1e-9 {
				t.Errorf("normal length = %v, want 1", h.Normal.Len())
			}
		})
	}
}

func TestSphereHitRange(t *testing.T) {
	s := Sphere{Center: math3d.Zero3(), Radius: 1}
	r := math3d.Ray{Origin: math3d.V3(0, 0, 5), Dir: math3d.V3(0, 0, -1)}

	t.Run("miss", func(t *testing.T) {
		off := math3d.Ray{Origin: math3d.V3(2, 0, 5), Dir: math3d.V3(0, 0, -1)}
		if _, ok := s.Hit(off, 0, math.Inf(1)); ok {
			t.Error("ray passing beside the sphere should miss")
		}
	})

	t.Run("far root when near is clipped", func(t *testing.T) {
		h, ok := s.Hit(r, 4.5, math.Inf(1))
		if !ok || math.Abs(h.T-6) > 1e-9 {
			t.Errorf("got (%v, %v), want far root t=6", h.T, ok)
		}
	})

	t.Run("beyond tMax", func(t *testing.T) {
		if _, ok := s.Hit(r, 0, 3.9); ok {
			t.Error("hit beyond tMax should be rejected")
		}
	})

	t.Run("inside keeps outward normal", func(t *testing.T) {
		in := math3d.Ray{Origin: math3d.Zero3(), Dir: math3d.V3(0, 0, -1)}
		h, ok := s.Hit(in, 1e-3, math.Inf(1))
		if !ok {
			t.Fatal("expected hit from inside")
		}
		if !h.Normal.Near(math3d.V3(0, 0, -1), 1e-9) {
			t.Errorf("normal = %v, want outward (0, 0, -1)", h.Normal)
		}
	})

	t.Run("unnormalized direction", func(t *testing.T) {
		long := math3d.Ray{Origin: math3d.V3(0, 0, 5), Dir: math3d.V3(0, 0, -2)}
		h, ok := s.Hit(long, 1e-3, math.Inf(1))
		if !ok || math.Abs(h.T-2) > 1e-9 {
			t.Errorf("got (%v, %v), want t=2", h.T, ok)
		}
	})
}

func TestWorldClosestHit(t *testing.T) {
	var w World
	far := MaterialID{kind: KindLambertian, index: 0}
	near := MaterialID{kind: KindLambertian, index: 1}

	// Insert the far sphere first; order must not matter.
	w.Add(Sphere{Center: math3d.V3(0, 0, -10), Radius: 1, Material: far})
	w.Add(Sphere{Center: math3d.V3(0, 0, -4), Radius: 1, Material: near})
	w.Add(Sphere{Center: math3d.V3(5, 0, -2), Radius: 1, Material: far})

	r := math3d.Ray{Origin: math3d.Zero3(), Dir: math3d.V3(0, 0, -1)}
	h, ok := w.Hit(r, 1e-3, math.Inf(1))
	if !ok {
		t.Fatal("expected hit")
	}
	if h.Material != near || math.Abs(h.T-3) > 1e-9 {
		t.Errorf("got material %v at t=%v, want nearest sphere at t=3", h.Material, h.T)
	}

	if _, ok := w.Hit(math3d.Ray{Origin: math3d.Zero3(), Dir: math3d.V3(0, 1, 0)}, 1e-3, math.Inf(1)); ok {
		t.Error("ray pointing up should miss every sphere")
	}

	if w.Len() != 3 {
		t.Errorf("Len() = %d, want 3", w.Len())
	}
}

func BenchmarkWorldHit(b *testing.B) {
	var w World
	for i := range 100 {
		w.Add(Sphere{Center: math3d.V3(float64(i%10)-5, 0, -float64(i/10)-2), Radius: 0.3})
	}
	r := math3d.Ray{Origin: math3d.Zero3(), Dir: math3d.V3(0.01, 0, -1)}

	for b.Loop() {
		_, _ = w.Hit(r, 1e-3, math.Inf(1))
	}
}
