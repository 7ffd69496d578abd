package model

import (
	"fmt"

	"github.com/Faultbox/libertycity/pkg/rw"
)

// Part pairs a mesh with its material. Err is set when the material could not
// be resolved; the mesh is still usable with a default material.
type Part struct {
	MaterialIndex int
	Mesh          *Mesh
	Material      *Material
	Err           error
}

// Geometry is one geometry of a model split into parts.
type Geometry struct {
	Parts []Part
	Err   error
}

// Model is a decoded .dff file.
type Model struct {
	Name       string
	Version    rw.Version
	Geometries []Geometry
}

// Parts returns the parts of the last geometry that decoded without error.
// Multi-geometry clumps list damaged or low-detail variants first.
func (m *Model) Parts() []Part {
	for i := len(m.Geometries) - 1; i >= 0; i-- {
		if m.Geometries[i].Err == nil {
			return m.Geometries[i].Parts
		}
	}
	return nil
}

// Load parses a model file and builds it. dict names the texture dictionary
// that material texture references point into.
func Load(name string, data []byte, dict string) (*Model, error) {
	chunks, err := rw.ParseAll(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	for _, chunk := range chunks {
		if chunk.Type() == rw.TypeClump || chunk.Type() == rw.TypeGeometryList {
			m, err := BuildModel(chunk, dict)
			if err != nil {
				return nil, fmt.Errorf("building %s: %w", name, err)
			}
			m.Name = name
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no clump", ErrInvalidContainer, name)
}

// BuildModel extracts meshes from a clump (or a bare geometry list) and
// resolves the material of every non-empty mesh.
func BuildModel(root *rw.Chunk, dict string) (*Model, error) {
	list := root
	if root.Type() == rw.TypeClump {
		list = root.Child(rw.TypeGeometryList)
		if list == nil {
			return nil, fmt.Errorf("%w: clump has no geometry list", ErrInvalidContainer)
		}
	}

	extracted, err := ExtractGeometryList(list)
	if err != nil {
		return nil, err
	}

	m := &Model{Version: root.Version(), Geometries: make([]Geometry, len(extracted))}
	for i := range extracted {
		g := &extracted[i]
		if g.Err != nil {
			m.Geometries[i].Err = g.Err
			continue
		}

		materials := g.Materials()
		version := g.Chunk.Version()
		for idx, mesh := range g.Meshes {
			if mesh == nil {
				continue
			}
			part := Part{MaterialIndex: idx, Mesh: mesh}
			if idx < len(materials) {
				part.Material, part.Err = ResolveMaterial(materials[idx], g.Geometry, version, dict)
			} else {
				part.Err = fmt.Errorf("%w: material %d of %d", ErrInvalidMaterialID, idx, len(materials))
			}
			m.Geometries[i].Parts = append(m.Geometries[i].Parts, part)
		}
	}
	return m, nil
}

// Stats summarizes a model for listings.
type Stats struct {
	Geometries int      `json:"geometries"`
	Parts      int      `json:"parts"`
	Vertices   int      `json:"vertices"`
	Triangles  int      `json:"triangles"`
	Textures   []string `json:"textures"`
}

// Stats counts vertices, triangles and texture references across all geometries.
func (m *Model) Stats() Stats {
	s := Stats{Geometries: len(m.Geometries)}
	seen := make(map[string]bool)
	for _, g := range m.Geometries {
		for _, p := range g.Parts {
			s.Parts++
			s.Vertices += p.Mesh.VertexCount()
			s.Triangles += p.Mesh.TriangleCount()
			if p.Material != nil && p.Material.Texture != nil && !seen[p.Material.Texture.Name] {
				seen[p.Material.Texture.Name] = true
				s.Textures = append(s.Textures, p.Material.Texture.Name)
			}
		}
	}
	return s
}
