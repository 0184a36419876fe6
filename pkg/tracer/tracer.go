package tracer

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/taigrr/glint/pkg/log"
	"github.com/taigrr/glint/pkg/math3d"
	"github.com/taigrr/glint/pkg/timing"
)

var logger = log.New("tracer")

// ErrBusy is returned by Close when called while a frame is being rendered.
var ErrBusy = errors.New("tracer: close called during a frame")

// CameraSource is the engine camera the tracer follows. It is read once per
// frame from the goroutine calling Update.
type CameraSource interface {
	// Update advances the camera by one tick and reports whether its pose or
	// projection changed since the previous call.
	Update(t timing.Timing) bool
	Pos() math3d.Vec3 // Point the camera looks at
	Eye() math3d.Vec3 // Camera position
	Up() math3d.Vec3
	FovY() float64 // Vertical field of view in radians
	Zoom() float64 // Used as the focus distance
	Screen() (w, h int)
}

// State is the lifecycle stage of a Tracer.
type State int

const (
	StateIdle        State = iota // No frame rendered yet
	StateSynchronous              // Rendering on the caller's goroutine
	StateParallel                 // Rendering on the worker pool
	StateStopped                  // Closed; Update does nothing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSynchronous:
		return "synchronous"
	case StateParallel:
		return "parallel"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Tracer coordinates progressive rendering: it owns the scene, the material
// arena, the lens, the accumulation buffer and the worker pool.
//
// A Tracer is driven from a single goroutine. Configuration and scene calls
// made between Update calls become visible to the workers at the next frame.
type Tracer struct {
	enabled bool
	state   State
	busy    atomic.Bool

	camera      CameraSource
	cameraDirty bool
	lens        Lens
	aperture    float64

	world World
	mats  arena
	acc   accum

	maxDepth   int
	maxSamples int
	minT, maxT float64

	threads int
	master  *rand.Rand
	pool    *pool
}

// New creates a disabled tracer with an empty scene and a zero-sized target.
func New() *Tracer {
	return &Tracer{
		maxDepth:   1,
		maxSamples: 1,
		minT:       1e-3,
		maxT:       math.Inf(1),
		master:     rand.New(rand.NewPCG(0, 0)),
	}
}

// SetEnabled turns rendering on or off.
func (t *Tracer) SetEnabled(b bool) { t.enabled = b }

// SetSize resizes the render target and discards accumulated samples.
func (t *Tracer) SetSize(w, h int) {
	t.acc.resize(max(w, 0), max(h, 0))
}

// Size returns the render target dimensions.
func (t *Tracer) Size() (w, h int) { return t.acc.width, t.acc.height }

// SetMaxDepth sets the bounce limit per path.
func (t *Tracer) SetMaxDepth(n int) { t.maxDepth = n }

// SetMaxSamples sets the sample count at which rendering stops.
func (t *Tracer) SetMaxSamples(n int) { t.maxSamples = n }

// SetMinT sets the lower ray-parameter clamp.
func (t *Tracer) SetMinT(v float64) { t.minT = v }

// SetMaxT sets the upper ray-parameter clamp.
func (t *Tracer) SetMaxT(v float64) { t.maxT = v }

// SetSeed reseeds the master generator. Worker generators are derived from it
// when the pool is spawned.
func (t *Tracer) SetSeed(seed uint64) {
	t.master = rand.New(rand.NewPCG(seed, 0))
}

// SetThreads sets the number of worker goroutines; 0 renders synchronously.
// A running pool of a different size is stopped and the new one is spawned
// on the next frame.
func (t *Tracer) SetThreads(n int) {
	n = max(n, 0)
	if t.pool != nil && t.pool.n != n {
		logger.Debugf("resizing pool from %d to %d workers", t.pool.n, n)
		t.pool.shutdown()
		t.pool = nil
		if t.state != StateStopped {
			t.state = StateIdle
		}
	}
	t.threads = n
}

// SetAperture sets the lens diameter. It takes effect immediately and resets
// accumulation since it changes the image.
func (t *Tracer) SetAperture(a float64) {
	t.aperture = a
	t.lens.LensRadius = a / 2
	t.acc.reset()
}

// SetCamera attaches the engine camera. The lens is rebuilt from it on the
// next frame.
func (t *Tracer) SetCamera(c CameraSource) {
	t.camera = c
	t.cameraDirty = true
}

// SetLens uses a fixed lens instead of a CameraSource and resets accumulation.
func (t *Tracer) SetLens(l Lens) {
	t.camera = nil
	t.lens = l
	t.aperture = 2 * l.LensRadius
	t.acc.reset()
}

// Lens returns the current lens.
func (t *Tracer) Lens() Lens { return t.lens }

// SetMaxLambertians declares the Lambertian arena capacity.
func (t *Tracer) SetMaxLambertians(n int) bool { return t.setMax(KindLambertian, n) }

// SetMaxMetals declares the Metal arena capacity.
func (t *Tracer) SetMaxMetals(n int) bool { return t.setMax(KindMetal, n) }

// SetMaxDielectrics declares the Dielectric arena capacity.
func (t *Tracer) SetMaxDielectrics(n int) bool { return t.setMax(KindDielectric, n) }

func (t *Tracer) setMax(k Kind, n int) bool {
	if !t.mats.setMax(k, n) {
		logger.Warningf("refusing to set %s capacity to %d below %d in use", k, n, t.mats.count(k))
		return false
	}
	return true
}

// AddLambertian adds a diffuse material. It returns NoMaterial when the
// arena is full.
func (t *Tracer) AddLambertian(albedo math3d.Vec3) MaterialID {
	return t.addMaterial(Lambertian(albedo))
}

// AddMetal adds a specular material. It returns NoMaterial when the arena is
// full.
func (t *Tracer) AddMetal(albedo math3d.Vec3, fuzz float64) MaterialID {
	return t.addMaterial(Metal(albedo, fuzz))
}

// AddDielectric adds a refractive material. It returns NoMaterial when the
// arena is full.
func (t *Tracer) AddDielectric(n float64) MaterialID {
	return t.addMaterial(Dielectric(n))
}

func (t *Tracer) addMaterial(m Material) MaterialID {
	id := t.mats.add(m)
	if !id.Valid() {
		logger.Warningf("%s arena full (capacity %d)", m.Kind, t.mats.capacity(m.Kind))
	}
	return id
}

// MaterialCount returns how many materials of kind k are in use and the
// declared capacity.
func (t *Tracer) MaterialCount(k Kind) (n, capacity int) {
	return t.mats.count(k), t.mats.capacity(k)
}

// AddSphere adds a sphere bound to a material previously returned by one of
// the Add* calls. It returns false for an invalid handle.
func (t *Tracer) AddSphere(center math3d.Vec3, radius float64, id MaterialID) bool {
	if t.mats.get(id) == nil {
		logger.Warning("sphere references an invalid material")
		return false
	}
	t.world.Add(Sphere{Center: center, Radius: radius, Material: id})
	return true
}

// World returns the scene.
func (t *Tracer) World() *World { return &t.world }

// Samples returns the number of samples accumulated per pixel.
func (t *Tracer) Samples() int { return t.acc.samples }

// State returns the lifecycle state.
func (t *Tracer) State() State { return t.state }

// Threads returns the configured worker count.
func (t *Tracer) Threads() int { return t.threads }

// Done reports whether the sample budget has been reached.
func (t *Tracer) Done() bool {
	return t.acc.samples >= t.maxSamples
}

// Reset discards every accumulated sample.
func (t *Tracer) Reset() {
	t.acc.reset()
}

// Update renders one more sample per pixel if the tracer is enabled and not
// done. It returns whether any rendering happened.
func (t *Tracer) Update(tm timing.Timing) bool {
	if !t.enabled || t.state == StateStopped {
		return false
	}
	if t.camera != nil && t.camera.Update(tm) {
		t.acc.reset()
		t.cameraDirty = true
	}
	if t.Done() || t.acc.width == 0 || t.acc.height == 0 {
		return false
	}
	if t.camera != nil {
		if t.cameraDirty {
			t.rebuildLens()
		}
		t.lens.SetPose(t.camera.Pos(), t.camera.Eye(), t.camera.Up())
	}

	t.busy.Store(true)
	defer t.busy.Store(false)

	if t.threads > 0 {
		if t.pool == nil {
			logger.Debugf("starting %d workers", t.threads)
			t.pool = startPool(t, t.threads, t.master)
		}
		t.state = StateParallel
		t.pool.frame()
	} else {
		t.state = StateSynchronous
		for y := range t.acc.height {
			t.renderRow(t.master, y)
		}
	}
	t.acc.samples++
	return true
}

func (t *Tracer) rebuildLens() {
	w, h := t.camera.Screen()
	if w <= 0 || h <= 0 {
		w, h = t.acc.width, t.acc.height
	}
	t.lens = NewLens(t.camera.FovY(), float64(w)/float64(h), t.aperture, t.camera.Zoom())
	t.acc.reset()
	t.cameraDirty = false
}

// renderRow adds one sample to every pixel of row y (counted from the bottom).
func (t *Tracer) renderRow(rng *rand.Rand, y int) {
	n := t.acc.samples
	fw, fh := float64(t.acc.width), float64(t.acc.height)
	for x := range t.acc.width {
		u := (float64(x) + rng.Float64()) / fw
		v := (float64(y) + rng.Float64()) / fh
		c := t.Color(t.lens.RayFor(u, v, rng), rng)
		t.acc.blend(x, y, n, c)
	}
}

// Color traces r through the scene for at most maxDepth bounces and returns
// its radiance estimate.
func (t *Tracer) Color(r math3d.Ray, rng *rand.Rand) math3d.Vec3 {
	c, _ := t.trace(r, rng)
	return c
}

// trace is Color that also reports how many scattering events the path took.
func (t *Tracer) trace(r math3d.Ray, rng *rand.Rand) (math3d.Vec3, int) {
	att := math3d.Splat(1)
	for depth := 0; ; depth++ {
		if depth >= t.maxDepth {
			return math3d.Vec3{}, depth
		}
		h, ok := t.world.Hit(r, t.minT, t.maxT)
		if !ok {
			return att.Mul(Sky(r.Dir)), depth
		}
		m := t.mats.get(h.Material)
		if m == nil {
			return math3d.Vec3{}, depth
		}
		out, a, ok := m.Scatter(r, &h, rng)
		if !ok {
			return math3d.Vec3{}, depth
		}
		att = att.Mul(a)
		r = out
	}
}

// Sky returns the background gradient for direction d: white at the bottom,
// light blue at the top.
func Sky(d math3d.Vec3) math3d.Vec3 {
	k := 0.5 * (d.Normalize().Y + 1)
	return math3d.Splat(1).Lerp(math3d.V3(0.5, 0.7, 1), k)
}

// Pixel returns the accumulated linear color of pixel (x, y), y counted from
// the bottom.
func (t *Tracer) Pixel(x, y int) math3d.Vec3 {
	return t.acc.at(x, y)
}

// WriteTex converts the accumulation buffer to 8-bit RGBA in dst, top row
// first, with optional sqrt gamma correction. dst must hold TexSize(w, h)
// bytes.
func (t *Tracer) WriteTex(dst []byte, gamma bool) error {
	return t.acc.writeTex(dst, gamma)
}

// Close stops the worker pool and moves the tracer to StateStopped. It must be
// called from the goroutine driving Update; calling it while a frame is in
// flight returns ErrBusy. Close is idempotent.
func (t *Tracer) Close() error {
	if t.busy.Load() {
		return ErrBusy
	}
	if t.state == StateStopped {
		return nil
	}
	if t.pool != nil {
		logger.Debugf("stopping %d workers", t.pool.n)
		t.pool.shutdown()
		t.pool = nil
	}
	t.state = StateStopped
	return nil
}
