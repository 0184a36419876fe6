package tracer

import (
	"math"
	"math/rand/v2"

	"github.com/taigrr/glint/pkg/math3d"
)

// Lens is a thin-lens perspective camera. Objects at FocusDist are always in
// focus; the aperture only controls how blurry everything else gets.
type Lens struct {
	FovY       float64 // Vertical field of view in radians
	Aspect     float64 // Width / Height
	LensRadius float64 // Half the aperture
	FocusDist  float64 // Distance from the eye to the focal plane

	// Derived by SetPose
	origin     math3d.Vec3
	lowerLeft  math3d.Vec3
	horizontal math3d.Vec3
	vertical   math3d.Vec3
	u, v, w    math3d.Vec3
}

// NewLens creates a lens. The pose must be set with SetPose before use.
func NewLens(fovY, aspect, aperture, focusDist float64) Lens {
	return Lens{
		FovY:       fovY,
		Aspect:     aspect,
		LensRadius: aperture / 2,
		FocusDist:  focusDist,
	}
}

// SetPose places the eye and orients the lens toward lookAt, then derives the
// focal-plane rectangle.
func (l *Lens) SetPose(lookAt, eye, up math3d.Vec3) {
	halfH := math.Tan(l.FovY / 2)
	halfW := l.Aspect * halfH

	l.w = eye.Sub(lookAt).Normalize()
	l.u = up.Cross(l.w).Normalize()
	l.v = l.w.Cross(l.u)
	l.origin = eye

	l.horizontal = l.u.Scale(2 * halfW * l.FocusDist)
	l.vertical = l.v.Scale(2 * halfH * l.FocusDist)
	l.lowerLeft = eye.
		Sub(l.horizontal.Scale(0.5)).
		Sub(l.vertical.Scale(0.5)).
		Sub(l.w.Scale(l.FocusDist))
}

// Origin returns the eye position.
func (l Lens) Origin() math3d.Vec3 {
	return l.origin
}

// Basis returns the right, up and backward unit vectors.
func (l Lens) Basis() (u, v, w math3d.Vec3) {
	return l.u, l.v, l.w
}

// RayFor returns the primary ray through normalized image coordinates (s, t),
// with (0, 0) at the lower-left corner. The origin is jittered over the lens
// disk when LensRadius is non-zero.
func (l *Lens) RayFor(s, t float64, rng *rand.Rand) math3d.Ray {
	var off math3d.Vec3
	if l.LensRadius > 0 {
		rd := math3d.RandomInUnitDisk(rng).Scale(l.LensRadius)
		off = l.u.Scale(rd.X).Add(l.v.Scale(rd.Y))
	}
	target := l.lowerLeft.
		Add(l.horizontal.Scale(s)).
		Add(l.vertical.Scale(t))
	origin := l.origin.Add(off)
	return math3d.Ray{Origin: origin, Dir: target.Sub(origin)}
}
