package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/libertycity/pkg/rw"
)

// GeometryMeshes is the extraction result of one geometry. Meshes holds one
// entry per physical material in list order; an entry is nil when no triangle
// uses that material. Err is set when the geometry itself could not be split.
type GeometryMeshes struct {
	Chunk        *rw.Chunk
	Geometry     *rw.Geometry
	MaterialList *rw.Chunk
	Meshes       []*Mesh
	Err          error
}

// Materials returns the physical Material chunks in list order.
func (g *GeometryMeshes) Materials() []*rw.Chunk {
	if g.MaterialList == nil {
		return nil
	}
	return g.MaterialList.ChildrenOf(rw.TypeMaterial)
}

// ExtractGeometryList splits every geometry of a geometry list. Failures of a
// single geometry are reported in its Err; only a wrong root type fails the call.
func ExtractGeometryList(list *rw.Chunk) ([]GeometryMeshes, error) {
	if list.Type() != rw.TypeGeometryList {
		return nil, fmt.Errorf("%w: expected GeometryList, got %s", ErrInvalidContainer, list.Type())
	}

	geometries := list.ChildrenOf(rw.TypeGeometry)
	result := make([]GeometryMeshes, len(geometries))
	for i, chunk := range geometries {
		meshes, err := ExtractGeometry(chunk)
		if err != nil {
			meshes = &GeometryMeshes{Chunk: chunk, Err: fmt.Errorf("geometry %d: %w", i, err)}
		}
		result[i] = *meshes
	}
	return result, nil
}

// ExtractGeometry converts one geometry to Y-up and splits it by material.
func ExtractGeometry(chunk *rw.Chunk) (*GeometryMeshes, error) {
	geo, ok := chunk.Content.(*rw.Geometry)
	if !ok {
		return nil, fmt.Errorf("%w: expected Geometry, got %s", ErrInvalidContainer, chunk.Type())
	}
	listChunk := chunk.Child(rw.TypeMaterialList)
	if listChunk == nil {
		return nil, ErrMissingMaterialList
	}
	list := listChunk.Content.(*rw.MaterialList)
	if len(geo.Vertices) != geo.VertexCount && len(geo.Triangles) > 0 {
		return nil, fmt.Errorf("%w: %d triangles without vertex positions", ErrInvalidContainer, len(geo.Triangles))
	}

	positions := make([]mgl32.Vec3, len(geo.Vertices))
	for i, v := range geo.Vertices {
		positions[i] = ToYUp(v)
	}

	var normals []mgl32.Vec3
	if geo.Normals != nil {
		normals = make([]mgl32.Vec3, len(geo.Normals))
		for i, n := range geo.Normals {
			normals[i] = ToYUp(n)
		}
	} else {
		triangles := make([][3]uint16, len(geo.Triangles))
		for i, t := range geo.Triangles {
			triangles[i] = t.V
		}
		normals = FlatNormals(positions, triangles)
	}

	// Group triangles by physical material before compacting.
	groups := make([][]rw.Triangle, list.Unique)
	for i, t := range geo.Triangles {
		m, ok := list.Physical(int(t.MaterialID))
		if !ok {
			return nil, fmt.Errorf("%w: triangle %d uses slot %d of %d", ErrInvalidMaterialID, i, t.MaterialID, len(list.Remap))
		}
		groups[m] = append(groups[m], t)
	}

	topology := TriangleList
	if geo.IsTriStrip() {
		topology = TriangleStrip
	}

	src := vertexSource{
		positions: positions,
		normals:   normals,
		texCoords: geo.TexCoords,
		colors:    geo.Prelit,
	}
	result := &GeometryMeshes{
		Chunk:        chunk,
		Geometry:     geo,
		MaterialList: listChunk,
		Meshes:       make([]*Mesh, list.Unique),
	}
	for m, triangles := range groups {
		if len(triangles) == 0 {
			continue
		}
		mesh := src.compact(triangles)
		mesh.Topology = topology
		result.Meshes[m] = mesh
	}
	return result, nil
}

type vertexSource struct {
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	texCoords [][][2]float32
	colors    []rw.RGBA
}

// compact copies the vertices referenced by triangles in first-reference order
// and rewrites the indices to the new numbering.
func (s vertexSource) compact(triangles []rw.Triangle) *Mesh {
	remap := make(map[uint16]uint16)
	var order []uint16

	mesh := &Mesh{Indices: make([]uint16, 0, len(triangles)*3)}
	for _, t := range triangles {
		for _, v := range t.V {
			idx, ok := remap[v]
			if !ok {
				idx = uint16(len(order))
				remap[v] = idx
				order = append(order, v)
			}
			mesh.Indices = append(mesh.Indices, idx)
		}
	}

	mesh.Positions = make([]mgl32.Vec3, len(order))
	mesh.Normals = make([]mgl32.Vec3, len(order))
	for i, v := range order {
		mesh.Positions[i] = s.positions[v]
		mesh.Normals[i] = s.normals[v]
	}
	if len(s.texCoords) > 0 {
		mesh.TexCoords = make([][][2]float32, len(s.texCoords))
		for set, uvs := range s.texCoords {
			mesh.TexCoords[set] = make([][2]float32, len(order))
			for i, v := range order {
				mesh.TexCoords[set][i] = uvs[v]
			}
		}
	}
	if s.colors != nil {
		mesh.Colors = make([]rw.RGBA, len(order))
		for i, v := range order {
			mesh.Colors[i] = s.colors[v]
		}
	}
	mesh.Bounds = computeBounds(mesh.Positions)
	return mesh
}
