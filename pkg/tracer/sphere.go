// Package tracer implements a progressive Monte-Carlo path tracer over a
// sphere-only scene. Each call to Tracer.Update adds one sample per pixel to an
// accumulation buffer, optionally splitting the image rows across a fixed pool
// of worker goroutines.
package tracer

import (
	"math"

	"github.com/taigrr/glint/pkg/math3d"
)

// Hit describes a ray/primitive intersection.
type Hit struct {
	T        float64     // Ray parameter of the hit
	Point    math3d.Vec3 // World-space hit point
	Normal   math3d.Vec3 // Outward unit normal, not flipped for rays starting inside
	Material MaterialID  // Material of the primitive that was hit
}

// Sphere is the only primitive type. Radius must be positive; it is not
// validated and a non-positive radius yields NaN/Inf hits.
type Sphere struct {
	Center   math3d.Vec3
	Radius   float64
	Material MaterialID
}

// Hit intersects r with the sphere, accepting the nearest root in
// (tMin, tMax].
func (s *Sphere) Hit(r math3d.Ray, tMin, tMax float64) (Hit, bool) {
	oc := r.Origin.Sub(s.Center)
	a := r.Dir.Dot(r.Dir)
	halfB := oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius

	disc := halfB*halfB - a*c
	if disc < 0 {
		return Hit{}, false
	}
	sq := math.Sqrt(disc)

	for _, t := range [2]float64{(-halfB - sq) / a, (-halfB + sq) / a} {
		if t <= tMin || t > tMax {
			continue
		}
		p := r.At(t)
		return Hit{
			T:        t,
			Point:    p,
			Normal:   p.Sub(s.Center).Div(s.Radius),
			Material: s.Material,
		}, true
	}
	return Hit{}, false
}

// World is an unordered set of spheres, owned by value.
// Materials are referenced by handle and live in the Tracer's arena.
type World struct {
	spheres []Sphere
}

// Add appends a sphere and returns its index.
func (w *World) Add(s Sphere) int {
	w.spheres = append(w.spheres, s)
	return len(w.spheres) - 1
}

// Len returns the number of spheres.
func (w *World) Len() int {
	return len(w.spheres)
}

// Hit returns the closest intersection in (tMin, tMax] over every sphere.
// This is a linear scan; there is no acceleration structure.
func (w *World) Hit(r math3d.Ray, tMin, tMax float64) (Hit, bool) {
	var (
		closest Hit
		found   bool
	)
	for i := range w.spheres {
		if h, ok := w.spheres[i].Hit(r, tMin, tMax); ok {
			closest, found = h, true
			tMax = h.T
		}
	}
	return closest, found
}
