// Package scene builds tracer scenes: the built-in demo scenes, glTF imports
// and a summary table.
package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/glint/pkg/log"
	"github.com/taigrr/glint/pkg/math3d"
	"github.com/taigrr/glint/pkg/tracer"
)

var logger = log.New("scene")

var (
	// ErrNoSpheres is returned when a scene has nothing to render.
	ErrNoSpheres = errors.New("scene has no spheres")
	// ErrUnknownScene is returned by ByName for an unregistered name.
	ErrUnknownScene = errors.New("unknown scene")
)

// Camera is the initial view of a scene.
type Camera struct {
	Eye      math3d.Vec3
	LookAt   math3d.Vec3
	FovY     float64 // Radians
	Aperture float64
}

// Distance returns the eye to look-at distance, used as the focus distance.
func (c Camera) Distance() float64 {
	return c.Eye.Sub(c.LookAt).Len()
}

// Lens returns a lens posed at the camera for the given aspect ratio.
func (c Camera) Lens(aspect float64) tracer.Lens {
	l := tracer.NewLens(c.FovY, aspect, c.Aperture, c.Distance())
	l.SetPose(c.LookAt, c.Eye, math3d.Up())
	return l
}

// Sphere references a material by its index in Scene.Materials.
type Sphere struct {
	Center   math3d.Vec3
	Radius   float64
	Material int
}

// Scene is a renderer-independent scene description. Build loads it into a
// Tracer.
type Scene struct {
	Name      string
	Materials []tracer.Material
	Spheres   []Sphere
	Camera    Camera
}

// AddMaterial appends m and returns its index.
func (s *Scene) AddMaterial(m tracer.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddSphere appends a sphere using material index mat.
func (s *Scene) AddSphere(center math3d.Vec3, radius float64, mat int) {
	s.Spheres = append(s.Spheres, Sphere{Center: center, Radius: radius, Material: mat})
}

// CountKind returns the number of materials of kind k and the number of
// spheres using them.
func (s *Scene) CountKind(k tracer.Kind) (materials, spheres int) {
	for _, m := range s.Materials {
		if m.Kind == k {
			materials++
		}
	}
	for _, sp := range s.Spheres {
		if sp.Material >= 0 && sp.Material < len(s.Materials) && s.Materials[sp.Material].Kind == k {
			spheres++
		}
	}
	return materials, spheres
}

// Build grows the tracer's material arenas to fit, then adds every material
// and sphere. Materials already in the tracer are kept.
func (s *Scene) Build(t *tracer.Tracer) error {
	if len(s.Spheres) == 0 {
		return fmt.Errorf("build %q: %w", s.Name, ErrNoSpheres)
	}

	setMax := map[tracer.Kind]func(int) bool{
		tracer.KindLambertian: t.SetMaxLambertians,
		tracer.KindMetal:      t.SetMaxMetals,
		tracer.KindDielectric: t.SetMaxDielectrics,
	}
	for k, set := range setMax {
		need, _ := s.CountKind(k)
		n, capacity := t.MaterialCount(k)
		if n+need > capacity && !set(n+need) {
			return fmt.Errorf("build %q: cannot grow %s arena to %d", s.Name, k, n+need)
		}
	}

	ids := make([]tracer.MaterialID, len(s.Materials))
	for i, m := range s.Materials {
		switch m.Kind {
		case tracer.KindLambertian:
			ids[i] = t.AddLambertian(m.Albedo)
		case tracer.KindMetal:
			ids[i] = t.AddMetal(m.Albedo, m.Fuzz)
		case tracer.KindDielectric:
			ids[i] = t.AddDielectric(m.RefIdx)
		default:
			return fmt.Errorf("build %q: material %d has kind %s", s.Name, i, m.Kind)
		}
		if !ids[i].Valid() {
			return fmt.Errorf("build %q: material %d rejected", s.Name, i)
		}
	}

	for i, sp := range s.Spheres {
		if sp.Material < 0 || sp.Material >= len(ids) {
			return fmt.Errorf("build %q: sphere %d references material %d of %d", s.Name, i, sp.Material, len(ids))
		}
		t.AddSphere(sp.Center, sp.Radius, ids[sp.Material])
	}
	logger.Debugf("built %q: %d materials, %d spheres", s.Name, len(s.Materials), len(s.Spheres))
	return nil
}
