package tracer

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/taigrr/glint/pkg/math3d"
)

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func TestLambertianAlwaysScatters(t *testing.T) {
	albedo := math3d.V3(0.8, 0.3, 0.3)
	m := Lambertian(albedo)
	h := Hit{Point: math3d.V3(0, 1, 0), Normal: math3d.V3(0, 1, 0)}
	in := math3d.Ray{Origin: math3d.V3(0, 5, 0), Dir: math3d.V3(0, -1, 0)}
	rng := newTestRNG()

	for range 1000 {
		out, att, ok := m.Scatter(in, &h, rng)
		if !ok {
			t.Fatal("Lambertian should always scatter")
		}
		if att != albedo {
			t.Fatalf("attenuation = %v, want %v", att, albedo)
		}
		if out.Origin != h.Point {
			t.Fatalf("origin = %v, want hit point", out.Origin)
		}
		// normal + point in unit sphere never points below the surface.
		if out.Dir.Dot(h.Normal) < 0 {
			t.Fatalf("direction %v points into the surface", out.Dir)
		}
	}
}

func TestMetalPerfectMirror(t *testing.T) {
	s := Sphere{Center: math3d.V3(0, 0, -3), Radius: 1}
	in := math3d.Ray{Origin: math3d.Zero3(), Dir: math3d.V3(0.2, 0.15, -1)}
	h, ok := s.Hit(in, 1e-3, math.Inf(1))
	if !ok {
		t.Fatal("setup ray should hit the sphere")
	}

	m := Metal(math3d.V3(0.9, 0.9, 0.9), 0)
	out, _, ok := m.Scatter(in, &h, newTestRNG())
	if !ok {
		t.Fatal("mirror reflection off the front face should scatter")
	}

	cosIn := in.Dir.Normalize().Negate().Dot(h.Normal)
	cosOut := out.Dir.Normalize().Dot(h.Normal)
	if math.Abs(cosIn-cosOut) > 1e-9 {
		t.Errorf("incoming angle cos=%v, outgoing cos=%v", cosIn, cosOut)
	}
	if out.Dir.Dot(h.Normal) <= 0 {
		t.Errorf("reflected direction %v points into the surface", out.Dir)
	}
	// Incoming, normal and outgoing are coplanar.
	if plane := in.Dir.Cross(h.Normal); math.Abs(plane.Dot(out.Dir)) > 1e-9 {
		t.Errorf("reflection left the plane of incidence")
	}
}

func TestMetalFuzzClampAndAbsorb(t *testing.T) {
	m := Metal(math3d.Splat(1), 3)
	if m.Fuzz != 1 {
		t.Errorf("fuzz = %v, want clamped to 1", m.Fuzz)
	}

	// A ray arriving from below the surface reflects into it and is absorbed.
	smooth := Metal(math3d.Splat(1), 0)
	h := Hit{Point: math3d.Zero3(), Normal: math3d.V3(0, 1, 0)}
	in := math3d.Ray{Origin: math3d.V3(0, -1, 0), Dir: math3d.V3(0, 1, 0)}
	if _, _, ok := smooth.Scatter(in, &h, newTestRNG()); ok {
		t.Error("reflection into the surface should be absorbed")
	}
}

func TestDielectricPassThrough(t *testing.T) {
	m := Dielectric(1)
	tests := []struct {
		name   string
		dir    math3d.Vec3
		normal math3d.Vec3
	}{
		{"head on entering", math3d.V3(0, 0, -1), math3d.V3(0, 0, 1)},
		{"oblique entering", math3d.V3(0.6, 0, -0.8), math3d.V3(0, 0, 1)},
		{"oblique exiting", math3d.V3(0.6, 0, 0.8), math3d.V3(0, 0, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := math3d.Ray{Origin: math3d.V3(0, 0, 1), Dir: tc.dir}
			h := Hit{Point: math3d.Zero3(), Normal: tc.normal}

			if _, ok := snell(tc.dir, tc.normal, 1); !ok {
				t.Fatal("n=1 must never be total internal reflection")
			}
			// A draw just under 1 always loses against the Schlick term.
			out := m.refract(in, &h, 0.999999)
			if !out.Dir.Near(tc.dir, 1e-9) {
				t.Errorf("direction = %v, want unchanged %v", out.Dir, tc.dir)
			}
		})
	}
}

func TestDielectricTotalInternalReflection(t *testing.T) {
	m := Dielectric(1.5)
	// Leaving glass at a grazing angle: sin(theta) * 1.5 > 1.
	dir := math3d.V3(0.9, 0, math.Sqrt(1-0.81))
	h := Hit{Point: math3d.Zero3(), Normal: math3d.V3(0, 0, 1)}
	in := math3d.Ray{Origin: math3d.V3(-0.9, 0, -0.4), Dir: dir}

	if _, ok := snell(dir, math3d.V3(0, 0, -1), 1.5); ok {
		t.Fatal("expected total internal reflection")
	}
	for _, u := range []float64{0, 0.5, 0.999999} {
		out := m.refract(in, &h, u)
		if !out.Dir.Near(dir.Reflect(h.Normal), 1e-9) {
			t.Errorf("u=%v: direction = %v, want reflection", u, out.Dir)
		}
	}
}

func TestDielectricScatterBothWays(t *testing.T) {
	m := Dielectric(1.5)
	dir := math3d.V3(1, 0, -1).Normalize()
	h := Hit{Point: math3d.Zero3(), Normal: math3d.V3(0, 0, 1)}
	in := math3d.Ray{Origin: math3d.V3(-1, 0, 1), Dir: dir}
	rng := newTestRNG()

	var reflected, refracted int
	for range 2000 {
		out, att, ok := m.Scatter(in, &h, rng)
		if !ok {
			t.Fatal("dielectric should never absorb")
		}
		if att != math3d.Splat(1) {
			t.Fatalf("attenuation = %v, want white", att)
		}
		if out.Dir.Z > 0 {
			reflected++
		} else {
			refracted++
		}
	}
	if reflected == 0 || refracted == 0 {
		t.Errorf("expected both outcomes, got %d reflected, %d refracted", reflected, refracted)
	}
	if reflected > refracted {
		t.Errorf("glass at 45 degrees should mostly refract, got %d reflected", reflected)
	}
}

func TestSchlick(t *testing.T) {
	if got := schlick(1, 1.5); math.Abs(got-0.04) > 1e-12 {
		t.Errorf("normal incidence reflectance = %v, want 0.04", got)
	}
	if got := schlick(0, 1.5); math.Abs(got-1) > 1e-12 {
		t.Errorf("grazing reflectance = %v, want 1", got)
	}
}

func TestArenaCapacity(t *testing.T) {
	var a arena
	if id := a.add(Lambertian(math3d.Splat(1))); id.Valid() {
		t.Error("insertion without declared capacity should fail")
	}

	if !a.setMax(KindLambertian, 2) {
		t.Fatal("setMax should succeed on an empty arena")
	}
	first := a.add(Lambertian(math3d.V3(1, 0, 0)))
	second := a.add(Lambertian(math3d.V3(0, 1, 0)))
	if !first.Valid() || !second.Valid() {
		t.Fatal("insertions within capacity should succeed")
	}
	if id := a.add(Lambertian(math3d.V3(0, 0, 1))); id != NoMaterial {
		t.Errorf("insertion past capacity = %v, want NoMaterial", id)
	}
	if a.count(KindLambertian) != 2 {
		t.Errorf("count = %d, want 2 after failed insertion", a.count(KindLambertian))
	}

	// Shrinking below what is in use is refused; growing keeps handles valid.
	if a.setMax(KindLambertian, 1) {
		t.Error("shrinking below the number in use should be refused")
	}
	if !a.setMax(KindLambertian, 8) {
		t.Fatal("growing capacity should succeed")
	}
	if m := a.get(first); m == nil || m.Albedo != math3d.V3(1, 0, 0) {
		t.Errorf("first handle resolved to %v after regrowth", m)
	}
	if m := a.get(second); m == nil || m.Albedo != math3d.V3(0, 1, 0) {
		t.Errorf("second handle resolved to %v after regrowth", m)
	}

	// Kinds are independent.
	if id := a.add(Metal(math3d.Splat(1), 0)); id.Valid() {
		t.Error("metal arena has no capacity declared")
	}
	if a.get(NoMaterial) != nil {
		t.Error("NoMaterial should resolve to nil")
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindNone:       "none",
		KindLambertian: "lambertian",
		KindMetal:      "metal",
		KindDielectric: "dielectric",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
