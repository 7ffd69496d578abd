package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/libertycity/internal/model"
	"github.com/Faultbox/libertycity/pkg/col"
)

// SphereCollider is a sphere in Y-up model space.
type SphereCollider struct {
	Center  mgl32.Vec3
	Radius  float32
	Surface col.Surface
}

// BoxCollider is an axis-aligned box given by center and full extents.
type BoxCollider struct {
	Center  mgl32.Vec3
	Size    mgl32.Vec3
	Surface col.Surface
}

// MeshCollider is a static triangle mesh.
type MeshCollider struct {
	Vertices []mgl32.Vec3
	Indices  [][3]uint32
}

// Collider groups the collision primitives of one model.
type Collider struct {
	Name    string
	Spheres []SphereCollider
	Boxes   []BoxCollider
	Mesh    *MeshCollider // nil without a triangle mesh
}

// NewCollider converts a collision record to Y-up colliders.
func NewCollider(rec *col.Record) *Collider {
	c := &Collider{Name: rec.Name}
	for _, s := range rec.Spheres {
		c.Spheres = append(c.Spheres, SphereCollider{
			Center:  model.ToYUp(s.Center),
			Radius:  s.Radius,
			Surface: s.Surface,
		})
	}
	for _, b := range rec.Boxes {
		lo, hi := mgl32.Vec3(b.Min), mgl32.Vec3(b.Max)
		c.Boxes = append(c.Boxes, BoxCollider{
			Center:  model.ToYUp(lo.Add(hi).Mul(0.5)),
			Size:    absVec(model.ToYUp(hi.Sub(lo))),
			Surface: b.Surface,
		})
	}
	if len(rec.Vertices) > 0 {
		m := &MeshCollider{
			Vertices: make([]mgl32.Vec3, len(rec.Vertices)),
			Indices:  make([][3]uint32, len(rec.Faces)),
		}
		for i, v := range rec.Vertices {
			m.Vertices[i] = model.ToYUp(v)
		}
		for i, f := range rec.Faces {
			m.Indices[i] = [3]uint32{f.A, f.B, f.C}
		}
		c.Mesh = m
	}
	return c
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		if v[i] < 0 {
			v[i] = -v[i]
		}
	}
	return v
}
