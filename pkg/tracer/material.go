package tracer

import (
	"math"
	"math/rand/v2"

	"github.com/taigrr/glint/pkg/math3d"
)

// Kind identifies a material variant. The set is closed.
type Kind uint8

const (
	KindNone       Kind = iota // Invalid / no material
	KindLambertian             // Ideal diffuse
	KindMetal                  // Specular with optional fuzz
	KindDielectric             // Clear refractive glass

	numKinds
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindLambertian:
		return "lambertian"
	case KindMetal:
		return "metal"
	case KindDielectric:
		return "dielectric"
	default:
		return "none"
	}
}

// Material is a tagged union over the three scattering laws. Only the fields
// used by Kind are meaningful.
type Material struct {
	Kind   Kind
	Albedo math3d.Vec3 // Lambertian, Metal
	Fuzz   float64     // Metal, in [0, 1]
	RefIdx float64     // Dielectric index of refraction
}

// Lambertian returns a diffuse material.
func Lambertian(albedo math3d.Vec3) Material {
	return Material{Kind: KindLambertian, Albedo: albedo}
}

// Metal returns a specular material. fuzz is clamped to at most 1.
func Metal(albedo math3d.Vec3, fuzz float64) Material {
	return Material{Kind: KindMetal, Albedo: albedo, Fuzz: math.Min(fuzz, 1)}
}

// Dielectric returns a clear refractive material with index n.
func Dielectric(n float64) Material {
	return Material{Kind: KindDielectric, RefIdx: n}
}

// Scatter returns the continuation ray and its attenuation, or false when the
// ray is absorbed.
func (m *Material) Scatter(in math3d.Ray, h *Hit, rng *rand.Rand) (math3d.Ray, math3d.Vec3, bool) {
	switch m.Kind {
	case KindLambertian:
		dir := h.Normal.Add(math3d.RandomInUnitSphere(rng))
		return math3d.Ray{Origin: h.Point, Dir: dir}, m.Albedo, true

	case KindMetal:
		refl := in.Dir.Normalize().Reflect(h.Normal)
		if m.Fuzz > 0 {
			refl = refl.Add(math3d.RandomInUnitSphere(rng).Scale(m.Fuzz))
		}
		if refl.Dot(h.Normal) <= 0 {
			return math3d.Ray{}, math3d.Vec3{}, false
		}
		return math3d.Ray{Origin: h.Point, Dir: refl}, m.Albedo, true

	case KindDielectric:
		return m.refract(in, h, rng.Float64()), math3d.Splat(1), true

	default:
		return math3d.Ray{}, math3d.Vec3{}, false
	}
}

// refract picks between reflection and refraction for a dielectric using the
// uniform draw u in [0, 1).
func (m *Material) refract(in math3d.Ray, h *Hit, u float64) math3d.Ray {
	var (
		ratio  float64 // incident index / transmitted index
		cos    float64
		normal = h.Normal
	)
	d := in.Dir.Dot(h.Normal)
	if d > 0 {
		// Leaving the medium.
		ratio = m.RefIdx
		cos = m.RefIdx * d / in.Dir.Len()
		normal = normal.Negate()
	} else {
		ratio = 1 / m.RefIdx
		cos = -d / in.Dir.Len()
	}

	reflectP := 1.0
	dir, ok := snell(in.Dir, normal, ratio)
	if ok {
		reflectP = schlick(cos, m.RefIdx)
	}
	if u < reflectP {
		return math3d.Ray{Origin: h.Point, Dir: in.Dir.Reflect(h.Normal)}
	}
	return math3d.Ray{Origin: h.Point, Dir: dir}
}

// snell refracts v through a surface with unit normal n facing the incoming
// side. It returns false on total internal reflection.
func snell(v, n math3d.Vec3, ratio float64) (math3d.Vec3, bool) {
	uv := v.Normalize()
	dt := uv.Dot(n)
	disc := 1 - ratio*ratio*(1-dt*dt)
	if disc < 0 {
		return math3d.Vec3{}, false
	}
	return uv.Sub(n.Scale(dt)).Scale(ratio).Sub(n.Scale(math.Sqrt(disc))), true
}

// schlick approximates Fresnel reflectance.
func schlick(cos, n float64) float64 {
	r0 := (1 - n) / (1 + n)
	r0 *= r0
	return r0 + (1-r0)*math.Pow(1-cos, 5)
}

// MaterialID is a stable handle into a Tracer's material arena.
// The zero value is NoMaterial.
type MaterialID struct {
	kind  Kind
	index int32
}

// NoMaterial is returned when a material could not be added.
var NoMaterial = MaterialID{}

// Valid reports whether the handle refers to an arena slot.
func (id MaterialID) Valid() bool {
	return id.kind != KindNone
}

// Kind returns the material variant the handle refers to.
func (id MaterialID) Kind() Kind {
	return id.kind
}

// arena stores materials per kind in fixed-capacity slices. Capacity is
// declared up front; an insertion past it fails without touching existing
// entries, and issued handles are indices so they survive any regrowth.
type arena struct {
	slots [numKinds][]Material
}

// setMax declares the capacity for one kind. Shrinking below the number of
// materials already inserted is refused.
func (a *arena) setMax(k Kind, n int) bool {
	if k == KindNone || k >= numKinds || n < len(a.slots[k]) {
		return false
	}
	s := make([]Material, len(a.slots[k]), n)
	copy(s, a.slots[k])
	a.slots[k] = s
	return true
}

func (a *arena) add(m Material) MaterialID {
	k := m.Kind
	if k == KindNone || k >= numKinds {
		return NoMaterial
	}
	s := a.slots[k]
	if len(s) == cap(s) {
		return NoMaterial
	}
	a.slots[k] = append(s, m)
	return MaterialID{kind: k, index: int32(len(s))}
}

func (a *arena) get(id MaterialID) *Material {
	if !id.Valid() || id.kind >= numKinds {
		return nil
	}
	s := a.slots[id.kind]
	if int(id.index) >= len(s) {
		return nil
	}
	return &s[id.index]
}

func (a *arena) count(k Kind) int {
	if k >= numKinds {
		return 0
	}
	return len(a.slots[k])
}

func (a *arena) capacity(k Kind) int {
	if k >= numKinds {
		return 0
	}
	return cap(a.slots[k])
}
