package model

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/libertycity/pkg/rw"
	"github.com/Faultbox/libertycity/pkg/rw/rwtest"
)

func parse(t *testing.T, data []byte) *rw.Chunk {
	t.Helper()
	root, err := rw.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return root
}

func materials(b *rwtest.Builder, n int) [][]byte {
	result := make([][]byte, n)
	for i := range result {
		result[i] = b.Material(rwtest.MaterialSpec{Color: rw.RGBA{R: uint8(i), A: 255}})
	}
	return result
}

func TestExtractGeometry_SingleMaterialKeepsEverything(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)
	spec := rwtest.GeometrySpec{
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Triangles: []rw.Triangle{{V: [3]uint16{0, 1, 2}}, {V: [3]uint16{0, 2, 3}}},
		TexCoords: [][][2]float32{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
	}
	root := parse(t, b.Geometry(spec, b.MaterialList(nil, materials(b, 1)...)))

	g, err := ExtractGeometry(root)
	if err != nil {
		t.Fatalf("ExtractGeometry failed: %v", err)
	}
	if len(g.Meshes) != 1 || g.Meshes[0] == nil {
		t.Fatalf("expected exactly one mesh, got %d", len(g.Meshes))
	}

	mesh := g.Meshes[0]
	if mesh.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", mesh.VertexCount())
	}
	wantIndices := []uint16{0, 1, 2, 0, 2, 3}
	for i, idx := range wantIndices {
		if mesh.Indices[i] != idx {
			t.Fatalf("indices = %v, want %v", mesh.Indices, wantIndices)
		}
	}
	for i, v := range spec.Vertices {
		if mesh.Positions[i] != ToYUp(v) {
			t.Errorf("position %d = %v, want %v", i, mesh.Positions[i], ToYUp(v))
		}
	}
	if len(mesh.TexCoords) != 1 || mesh.TexCoords[0][2] != [2]float32{1, 1} {
		t.Errorf("unexpected texture coordinates %v", mesh.TexCoords)
	}
	if mesh.Colors != nil {
		t.Error("geometry without prelit colors should not emit colors")
	}
	if mesh.Topology != TriangleList {
		t.Errorf("expected triangle list, got %v", mesh.Topology)
	}
	// The quad lies in the file's XY plane, so rebuilt normals point along Y-up.
	for i, n := range mesh.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) && !n.ApproxEqual(mgl32.Vec3{0, -1, 0}) {
			t.Errorf("normal %d = %v, expected vertical", i, n)
		}
	}
}

func TestExtractGeometry_PartitionShape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := rwtest.New(rwtest.LibraryVC)

	for _, tc := range []struct{ vertices, materials, triangles int }{
		{3, 1, 1},
		{10, 3, 20},
		{50, 5, 40},
		{200, 8, 300},
	} {
		spec := rwtest.GeometrySpec{
			Prelit: make([]rw.RGBA, tc.vertices),
		}
		for i := 0; i < tc.vertices; i++ {
			spec.Vertices = append(spec.Vertices, [3]float32{rng.Float32(), rng.Float32(), rng.Float32()})
			spec.Prelit[i] = rw.RGBA{R: uint8(i), A: 255}
		}
		perMaterial := make([]int, tc.materials)
		for i := 0; i < tc.triangles; i++ {
			m := rng.Intn(tc.materials)
			perMaterial[m]++
			spec.Triangles = append(spec.Triangles, rw.Triangle{
				V:          [3]uint16{uint16(rng.Intn(tc.vertices)), uint16(rng.Intn(tc.vertices)), uint16(rng.Intn(tc.vertices))},
				MaterialID: uint16(m),
			})
		}

		root := parse(t, b.Geometry(spec, b.MaterialList(nil, materials(b, tc.materials)...)))
		g, err := ExtractGeometry(root)
		if err != nil {
			t.Fatalf("ExtractGeometry failed: %v", err)
		}

		if len(g.Meshes) != tc.materials {
			t.Fatalf("expected %d groups, got %d", tc.materials, len(g.Meshes))
		}
		for m, mesh := range g.Meshes {
			if perMaterial[m] == 0 {
				if mesh != nil {
					t.Errorf("material %d has no triangles but got a mesh", m)
				}
				continue
			}
			if mesh.TriangleCount() != perMaterial[m] {
				t.Errorf("material %d: %d triangles, want %d", m, mesh.TriangleCount(), perMaterial[m])
			}
			if len(mesh.Colors) != mesh.VertexCount() || len(mesh.Normals) != mesh.VertexCount() {
				t.Errorf("material %d: attribute lengths differ", m)
			}
			for _, idx := range mesh.Indices {
				if int(idx) >= mesh.VertexCount() {
					t.Fatalf("material %d: index %d >= %d vertices", m, idx, mesh.VertexCount())
				}
			}
		}
	}
}

func TestExtractGeometry_SharedSlots(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)
	spec := rwtest.GeometrySpec{
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}, {6, 5, 5}, {5, 6, 5}},
		Triangles: []rw.Triangle{
			{V: [3]uint16{3, 4, 5}, MaterialID: 2},
			{V: [3]uint16{0, 1, 2}, MaterialID: 1},
			{V: [3]uint16{5, 4, 0}, MaterialID: 0},
		},
	}
	// Slot 2 reuses the material of slot 0.
	root := parse(t, b.Geometry(spec, b.MaterialList([]int32{-1, -1, 0}, materials(b, 2)...)))

	g, err := ExtractGeometry(root)
	if err != nil {
		t.Fatalf("ExtractGeometry failed: %v", err)
	}
	if len(g.Meshes) != 2 {
		t.Fatalf("expected 2 physical materials, got %d", len(g.Meshes))
	}

	first := g.Meshes[0]
	if first.TriangleCount() != 2 || first.VertexCount() != 4 {
		t.Fatalf("material 0: %d triangles, %d vertices", first.TriangleCount(), first.VertexCount())
	}
	// First-reference order: 3, 4, 5, then 0.
	want := []uint16{0, 1, 2, 2, 1, 3}
	for i := range want {
		if first.Indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", first.Indices, want)
		}
	}
	if first.Positions[3] != ToYUp(spec.Vertices[0]) {
		t.Errorf("compacted vertex 3 should be source vertex 0, got %v", first.Positions[3])
	}
	if g.Meshes[1].VertexCount() != 3 {
		t.Errorf("material 1: expected 3 vertices, got %d", g.Meshes[1].VertexCount())
	}
}

func TestExtractGeometry_Errors(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)
	spec := rwtest.GeometrySpec{
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []rw.Triangle{{V: [3]uint16{0, 1, 2}, MaterialID: 4}},
	}

	t.Run("invalid material id", func(t *testing.T) {
		root := parse(t, b.Geometry(spec, b.MaterialList(nil, materials(b, 1)...)))
		if _, err := ExtractGeometry(root); !errors.Is(err, ErrInvalidMaterialID) {
			t.Errorf("expected ErrInvalidMaterialID, got %v", err)
		}
	})

	t.Run("not a geometry", func(t *testing.T) {
		root := parse(t, b.GeometryList())
		if _, err := ExtractGeometry(root); !errors.Is(err, ErrInvalidContainer) {
			t.Errorf("expected ErrInvalidContainer, got %v", err)
		}
	})
}

func TestExtractGeometryList_MissingMaterialListIsLocal(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)
	spec := rwtest.GeometrySpec{
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []rw.Triangle{{V: [3]uint16{0, 1, 2}}},
	}
	list := parse(t, b.GeometryList(
		b.Geometry(spec),
		b.Geometry(spec, b.MaterialList(nil, materials(b, 1)...)),
	))

	result, err := ExtractGeometryList(list)
	if err != nil {
		t.Fatalf("ExtractGeometryList failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result))
	}
	if !errors.Is(result[0].Err, ErrMissingMaterialList) {
		t.Errorf("expected ErrMissingMaterialList for geometry 0, got %v", result[0].Err)
	}
	if result[1].Err != nil || len(result[1].Meshes) != 1 {
		t.Errorf("geometry 1 should decode, got %+v", result[1])
	}

	if _, err := ExtractGeometryList(result[1].Chunk); !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer for a non-list root, got %v", err)
	}
}

func TestExtractGeometry_TriStripTopology(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)
	spec := rwtest.GeometrySpec{
		Flags:     rw.GeometryTriStrip,
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []rw.Triangle{{V: [3]uint16{0, 1, 2}}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
	}
	g, err := ExtractGeometry(parse(t, b.Geometry(spec, b.MaterialList(nil, materials(b, 1)...))))
	if err != nil {
		t.Fatalf("ExtractGeometry failed: %v", err)
	}
	mesh := g.Meshes[0]
	if mesh.Topology != TriangleStrip {
		t.Error("strip flag should be preserved")
	}
	if mesh.Normals[0] != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("stored normals should be converted, got %v", mesh.Normals[0])
	}
}
