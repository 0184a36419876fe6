package scene

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/taigrr/glint/pkg/math3d"
	"github.com/taigrr/glint/pkg/tracer"
)

var builtins = map[string]func(seed uint64) *Scene{
	"spheres": func(seed uint64) *Scene { return Spheres(seed) },
	"red":     func(uint64) *Scene { return RedSphere() },
}

// Names returns the built-in scene names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns the built-in scene called name. seed drives any random
// placement.
func ByName(name string, seed uint64) (*Scene, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScene)
	}
	return fn(seed), nil
}

// RedSphere is a single diffuse red sphere of radius 0.5 one unit in front of
// a camera at the origin.
func RedSphere() *Scene {
	s := &Scene{
		Name: "red",
		Camera: Camera{
			Eye:    math3d.Zero3(),
			LookAt: math3d.V3(0, 0, -1),
			FovY:   math.Pi / 2,
		},
	}
	red := s.AddMaterial(tracer.Lambertian(math3d.V3(0.8, 0.1, 0.1)))
	s.AddSphere(math3d.V3(0, 0, -1), 0.5, red)
	return s
}

// Spheres is the demo scene: a ground sphere, one large sphere per material
// kind and a scatter of small random spheres.
func Spheres(seed uint64) *Scene {
	s := &Scene{
		Name: "spheres",
		Camera: Camera{
			Eye:      math3d.V3(0, 0.75, 2),
			LookAt:   math3d.V3(0, 0.5, -1),
			FovY:     40 * math.Pi / 180,
			Aperture: 0.05,
		},
	}

	ground := s.AddMaterial(tracer.Lambertian(math3d.V3(0.48, 0.48, 0)))
	glass := s.AddMaterial(tracer.Dielectric(1.5))
	silver := s.AddMaterial(tracer.Metal(math3d.V3(0.8, 0.8, 0.8), 0))
	gold := s.AddMaterial(tracer.Metal(math3d.V3(0.8, 0.6, 0.2), 0.3))
	blue := s.AddMaterial(tracer.Lambertian(math3d.V3(0.1, 0.2, 0.5)))

	s.AddSphere(math3d.V3(0, -1000, 0), 1000, ground)
	s.AddSphere(math3d.V3(0, 0.5, -1), 0.5, blue)
	s.AddSphere(math3d.V3(-1, 0.5, -1), 0.5, silver)
	s.AddSphere(math3d.V3(1, 0.5, -1), 0.5, gold)
	s.AddSphere(math3d.V3(0.5, 0.25, -0.3), 0.25, glass)

	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	const (
		small   = 0.1
		count   = 24
		retries = 200
	)
	for placed, tries := 0, 0; placed < count && tries < retries; tries++ {
		c := math3d.V3(rng.Float64()*6-3, small, rng.Float64()*4-3.5)
		if overlaps(s, c, small) {
			continue
		}
		s.AddSphere(c, small, s.AddMaterial(randomMaterial(rng)))
		placed++
	}
	return s
}

func overlaps(s *Scene, c math3d.Vec3, r float64) bool {
	for _, sp := range s.Spheres[1:] { // Skip the ground
		if sp.Center.Sub(c).Len() < sp.Radius+r+0.05 {
			return true
		}
	}
	return false
}

func randomMaterial(rng *rand.Rand) tracer.Material {
	rv := func(lo, hi float64) math3d.Vec3 {
		return math3d.V3(lo+(hi-lo)*rng.Float64(), lo+(hi-lo)*rng.Float64(), lo+(hi-lo)*rng.Float64())
	}
	switch p := rng.Float64(); {
	case p < 0.7:
		return tracer.Lambertian(rv(0, 1).Mul(rv(0, 1)))
	case p < 0.9:
		return tracer.Metal(rv(0.5, 1), 0.5*rng.Float64())
	default:
		return tracer.Dielectric(1.5)
	}
}
