package render

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/glint/pkg/math3d"
	"github.com/taigrr/glint/pkg/timing"
)

const (
	// Spring parameters. Frequency 6 settles in well under a second;
	// damping 1 is critically damped, so the camera never overshoots.
	springFreq    = 6.0
	springDamping = 1.0

	// A spring closer than this to its target counts as settled.
	settleEps = 1e-4

	maxPitch    = math.Pi/2 - 0.01
	minDistance = 0.1
)

// axis is one spring-smoothed camera parameter.
type axis struct {
	pos, vel, target float64
}

// step advances the spring and reports whether the value moved. Once it is
// within settleEps of the target it snaps there and stops moving, so a resting
// camera stops invalidating the image.
func (a *axis) step(s harmonica.Spring) bool {
	if a.pos == a.target && a.vel == 0 {
		return false
	}
	a.pos, a.vel = s.Update(a.pos, a.vel, a.target)
	if math.Abs(a.pos-a.target) < settleEps && math.Abs(a.vel) < settleEps {
		a.pos, a.vel = a.target, 0
	}
	return true
}

func (a *axis) set(v float64) {
	a.pos, a.vel, a.target = v, 0, v
}

// OrbitCamera orbits a target point at a given distance. Yaw, pitch and
// distance follow their targets through harmonica springs, and the camera
// reports a change on every tick where any of them moved.
type OrbitCamera struct {
	Target math3d.Vec3 // Point the camera looks at

	yaw, pitch, dist axis

	fovY          float64
	width, height int

	spring   harmonica.Spring
	springDt float64

	// Set by any direct mutation; consumed by Update.
	dirty bool

	home struct{ yaw, pitch, dist float64 }
}

// NewOrbitCamera creates a camera looking at target from dist away, with a
// 40 degree vertical field of view.
func NewOrbitCamera(target math3d.Vec3, dist float64) *OrbitCamera {
	c := &OrbitCamera{
		Target: target,
		fovY:   40 * math.Pi / 180,
		dirty:  true,
	}
	c.dist.set(math.Max(dist, minDistance))
	c.home.dist = c.dist.pos
	return c
}

// SetAngles jumps to the given yaw and pitch (radians) without animation and
// makes them the Reset position.
func (c *OrbitCamera) SetAngles(yaw, pitch float64) {
	pitch = clampPitch(pitch)
	c.yaw.set(yaw)
	c.pitch.set(pitch)
	c.home.yaw, c.home.pitch = yaw, pitch
	c.dirty = true
}

// SetFOV sets the vertical field of view in radians.
func (c *OrbitCamera) SetFOV(fovY float64) {
	if fovY != c.fovY {
		c.fovY = fovY
		c.dirty = true
	}
}

// SetScreen records the output size the projection is built for.
func (c *OrbitCamera) SetScreen(w, h int) {
	if w != c.width || h != c.height {
		c.width, c.height = w, h
		c.dirty = true
	}
}

// Orbit moves the yaw and pitch targets by the given deltas (radians).
func (c *OrbitCamera) Orbit(dYaw, dPitch float64) {
	c.yaw.target += dYaw
	c.pitch.target = clampPitch(c.pitch.target + dPitch)
}

// Dolly scales the distance target by factor, e.g. 0.9 to move closer.
func (c *OrbitCamera) Dolly(factor float64) {
	c.dist.target = math.Max(c.dist.target*factor, minDistance)
}

// Reset animates back to the pose given by NewOrbitCamera and SetAngles.
func (c *OrbitCamera) Reset() {
	c.yaw.target = c.home.yaw
	c.pitch.target = c.home.pitch
	c.dist.target = c.home.dist
}

// Settled reports whether every spring has reached its target.
func (c *OrbitCamera) Settled() bool {
	return c.yaw.pos == c.yaw.target && c.yaw.vel == 0 &&
		c.pitch.pos == c.pitch.target && c.pitch.vel == 0 &&
		c.dist.pos == c.dist.target && c.dist.vel == 0
}

// Update advances the springs by t.Dt and reports whether the pose or
// projection changed since the previous call.
func (c *OrbitCamera) Update(t timing.Timing) bool {
	if dt := t.Seconds(); dt > 0 && dt != c.springDt {
		c.spring = harmonica.NewSpring(dt, springFreq, springDamping)
		c.springDt = dt
	}

	changed := c.dirty
	c.dirty = false
	if c.springDt > 0 {
		// Evaluate all three; || would skip the rest.
		y := c.yaw.step(c.spring)
		p := c.pitch.step(c.spring)
		d := c.dist.step(c.spring)
		changed = changed || y || p || d
	}
	return changed
}

// Pos returns the look-at point.
func (c *OrbitCamera) Pos() math3d.Vec3 { return c.Target }

// Eye returns the camera position.
func (c *OrbitCamera) Eye() math3d.Vec3 {
	rot := math3d.RotateY(c.yaw.pos).Mul(math3d.RotateX(-c.pitch.pos))
	return c.Target.Add(rot.MulVec3Dir(math3d.V3(0, 0, c.dist.pos)))
}

// Up returns world up.
func (c *OrbitCamera) Up() math3d.Vec3 { return math3d.Up() }

// FovY returns the vertical field of view in radians.
func (c *OrbitCamera) FovY() float64 { return c.fovY }

// Zoom returns the distance to the target, which the tracer uses as the
// focus distance so the target stays sharp.
func (c *OrbitCamera) Zoom() float64 { return c.dist.pos }

// Screen returns the size set by SetScreen.
func (c *OrbitCamera) Screen() (w, h int) { return c.width, c.height }

// Angles returns the current yaw and pitch.
func (c *OrbitCamera) Angles() (yaw, pitch float64) {
	return c.yaw.pos, c.pitch.pos
}

func clampPitch(p float64) float64 {
	return math.Max(-maxPitch, math.Min(maxPitch, p))
}
