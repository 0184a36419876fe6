package scene

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/glint/pkg/math3d"
	"github.com/taigrr/glint/pkg/tracer"
)

// Glass index of refraction for blended (transparent) glTF materials.
const glassIndex = 1.5

// LoadGLTF opens a glTF or GLB file and converts it with FromGLTF.
func LoadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	s, err := FromGLTF(doc)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", filepath.Base(path), err)
	}
	s.Name = filepath.Base(path)
	return s, nil
}

// FromGLTF converts a glTF document to a sphere scene. Every node with a mesh
// becomes one sphere enclosing the mesh's POSITION bounds, placed by the
// node's world transform. PBR materials map to the closest scattering law:
// transparent blended materials become glass, metallic ones metal with
// roughness as fuzz, everything else diffuse.
func FromGLTF(doc *gltf.Document) (*Scene, error) {
	c := converter{
		doc:   doc,
		s:     &Scene{Name: "gltf"},
		mats:  make(map[int]int),
		seen:  make(map[int]bool),
		noMat: -1,
	}
	for _, root := range c.roots() {
		if err := c.walk(root, math3d.Identity()); err != nil {
			return nil, err
		}
	}
	if len(c.s.Spheres) == 0 {
		return nil, ErrNoSpheres
	}
	c.s.Camera = frame(c.s.Spheres)
	return c.s, nil
}

type converter struct {
	doc   *gltf.Document
	s     *Scene
	mats  map[int]int // glTF material index -> scene material index
	seen  map[int]bool
	noMat int // Scene index of the fallback material, -1 until needed
}

// roots returns the nodes of the default scene, or every parentless node if
// the document has no scenes.
func (c *converter) roots() []int {
	if len(c.doc.Scenes) > 0 {
		i := 0
		if c.doc.Scene != nil && *c.doc.Scene < len(c.doc.Scenes) {
			i = *c.doc.Scene
		}
		return c.doc.Scenes[i].Nodes
	}
	child := make(map[int]bool)
	for _, n := range c.doc.Nodes {
		for _, ch := range n.Children {
			child[ch] = true
		}
	}
	var roots []int
	for i := range c.doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (c *converter) walk(idx int, parent math3d.Mat4) error {
	if idx < 0 || idx >= len(c.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if c.seen[idx] {
		return fmt.Errorf("node %d visited twice", idx)
	}
	c.seen[idx] = true

	node := c.doc.Nodes[idx]
	world := parent.Mul(localTransform(node))

	if node.Mesh != nil {
		if err := c.addMesh(node, *node.Mesh, world); err != nil {
			return fmt.Errorf("node %d (%s): %w", idx, node.Name, err)
		}
	}
	for _, ch := range node.Children {
		if err := c.walk(ch, world); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) addMesh(node *gltf.Node, meshIdx int, world math3d.Mat4) error {
	if meshIdx < 0 || meshIdx >= len(c.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", meshIdx)
	}
	mesh := c.doc.Meshes[meshIdx]

	lo, hi, ok, err := c.meshBounds(mesh)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warningf("mesh %q has no positions, skipping", mesh.Name)
		return nil
	}

	half := hi.Sub(lo).Scale(0.5)
	radius := half.MaxComponent() * world.MaxScale()
	if radius <= 0 {
		logger.Warningf("mesh %q is degenerate, skipping", mesh.Name)
		return nil
	}
	center := world.MulVec3(lo.Add(half))

	mat := -1
	for _, prim := range mesh.Primitives {
		if prim.Material != nil {
			mat = c.material(*prim.Material)
			break
		}
	}
	if mat < 0 {
		mat = c.fallback()
	}
	c.s.AddSphere(center, radius, mat)
	return nil
}

// meshBounds returns the local bounding box over every primitive's
// positions. Accessor min/max is used when present.
func (c *converter) meshBounds(mesh *gltf.Mesh) (lo, hi math3d.Vec3, ok bool, err error) {
	lo = math3d.Splat(math.Inf(1))
	hi = math3d.Splat(math.Inf(-1))
	for _, prim := range mesh.Primitives {
		posIdx, has := prim.Attributes[gltf.POSITION]
		if !has {
			continue
		}
		if posIdx < 0 || posIdx >= len(c.doc.Accessors) {
			return lo, hi, false, fmt.Errorf("accessor %d out of range", posIdx)
		}
		acc := c.doc.Accessors[posIdx]
		if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
			lo = lo.Min(math3d.V3(acc.Min[0], acc.Min[1], acc.Min[2]))
			hi = hi.Max(math3d.V3(acc.Max[0], acc.Max[1], acc.Max[2]))
			ok = true
			continue
		}

		positions, err := readVec3Accessor(c.doc, acc)
		if err != nil {
			return lo, hi, false, fmt.Errorf("read positions: %w", err)
		}
		for _, p := range positions {
			lo, hi = lo.Min(p), hi.Max(p)
			ok = true
		}
	}
	return lo, hi, ok, nil
}

// material converts glTF material i once and returns its scene index.
func (c *converter) material(i int) int {
	if idx, ok := c.mats[i]; ok {
		return idx
	}
	if i < 0 || i >= len(c.doc.Materials) {
		return c.fallback()
	}
	idx := c.s.AddMaterial(convertMaterial(c.doc.Materials[i]))
	c.mats[i] = idx
	return idx
}

func (c *converter) fallback() int {
	if c.noMat < 0 {
		c.noMat = c.s.AddMaterial(tracer.Lambertian(math3d.Splat(0.7)))
	}
	return c.noMat
}

func convertMaterial(m *gltf.Material) tracer.Material {
	base := [4]float64{1, 1, 1, 1}
	metallic, roughness := 1.0, 1.0
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			base = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			roughness = *pbr.RoughnessFactor
		}
	}
	albedo := math3d.V3(base[0], base[1], base[2])

	switch {
	case m.AlphaMode == gltf.AlphaBlend && base[3] < 1:
		return tracer.Dielectric(glassIndex)
	case metallic >= 0.5:
		return tracer.Metal(albedo, roughness)
	default:
		return tracer.Lambertian(albedo)
	}
}

func localTransform(n *gltf.Node) math3d.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math3d.Mat4(m)
	}
	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	return math3d.Translate(math3d.V3(t[0], t[1], t[2])).
		Mul(math3d.FromQuat(n.RotationOrDefault())).
		Mul(math3d.Scale(math3d.V3(s[0], s[1], s[2])))
}

// frame places the camera in front of the scene's bounding box, looking at
// its center.
func frame(spheres []Sphere) Camera {
	lo := math3d.Splat(math.Inf(1))
	hi := math3d.Splat(math.Inf(-1))
	for _, sp := range spheres {
		r := math3d.Splat(sp.Radius)
		lo = lo.Min(sp.Center.Sub(r))
		hi = hi.Max(sp.Center.Add(r))
	}
	center := lo.Add(hi).Scale(0.5)
	extent := hi.Sub(lo).MaxComponent()
	return Camera{
		Eye:    center.Add(math3d.V3(0, 0.3*extent, 1.5*extent)),
		LookAt: center,
		FovY:   40 * math.Pi / 180,
	}
}

// readVec3Accessor reads float VEC3 data from an accessor backed by an
// embedded buffer.
func readVec3Accessor(doc *gltf.Document, acc *gltf.Accessor) ([]math3d.Vec3, error) {
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", acc.Type, acc.ComponentType)
	}
	if acc.BufferView == nil || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	buf := doc.Buffers[view.Buffer]
	if buf.URI != "" && buf.Data == nil {
		return nil, fmt.Errorf("external buffer %q not loaded", buf.URI)
	}

	start := view.ByteOffset + acc.ByteOffset
	stride := view.ByteStride
	if stride == 0 {
		stride = 12 // 3 floats * 4 bytes
	}
	if acc.Count > 0 && start+(acc.Count-1)*stride+12 > len(buf.Data) {
		return nil, fmt.Errorf("accessor overruns buffer (%d bytes)", len(buf.Data))
	}

	out := make([]math3d.Vec3, acc.Count)
	for i := range out {
		o := start + i*stride
		out[i] = math3d.V3(
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[o:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[o+4:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[o+8:]))),
		)
	}
	return out, nil
}
