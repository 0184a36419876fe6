package math3d

import "math/rand/v2"

// Ray is a half-line starting at Origin. Dir is not required to be unit length.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point Origin + t*Dir.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// RandomInUnitSphere returns a uniformly distributed point strictly inside the
// unit sphere, using rejection sampling over the enclosing cube.
func RandomInUnitSphere(rng *rand.Rand) Vec3 {
	for {
		p := V3(
			2*rng.Float64()-1,
			2*rng.Float64()-1,
			2*rng.Float64()-1,
		)
		if p.LenSq() < 1 {
			return p
		}
	}
}

// RandomInUnitDisk returns a uniformly distributed point inside the unit disk
// on the XY plane (Z is always 0).
func RandomInUnitDisk(rng *rand.Rand) Vec3 {
	for {
		p := V3(2*rng.Float64()-1, 2*rng.Float64()-1, 0)
		if p.LenSq() < 1 {
			return p
		}
	}
}
