package model

import (
	"errors"
	"testing"

	"github.com/Faultbox/libertycity/pkg/rw"
	"github.com/Faultbox/libertycity/pkg/rw/rwtest"
)

func testClump(b *rwtest.Builder) []byte {
	quad := rwtest.GeometrySpec{
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		TexCoords: [][][2]float32{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		Triangles: []rw.Triangle{
			{V: [3]uint16{0, 1, 2}, MaterialID: 0},
			{V: [3]uint16{0, 2, 3}, MaterialID: 2},
		},
	}
	brick := b.Material(rwtest.MaterialSpec{Texture: &rwtest.TextureSpec{
		Name: "brick", AddressU: rw.AddressWrap, AddressV: rw.AddressWrap}})
	glass := b.Material(rwtest.MaterialSpec{Texture: &rwtest.TextureSpec{
		Name: "glass", AddressU: rw.AddressClamp, AddressV: rw.AddressClamp}})
	unused := b.Material(rwtest.MaterialSpec{})

	damaged := quad
	damaged.Triangles = quad.Triangles[:1]

	return b.Clump(b.GeometryList(
		b.Geometry(damaged, b.MaterialList(nil, brick, glass, unused)),
		b.Geometry(quad, b.MaterialList(nil, brick, glass, unused)),
	), 2)
}

func TestLoad(t *testing.T) {
	b := rwtest.New(rwtest.LibraryVC)
	m, err := Load("shop.dff", testClump(b), "shops")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Name != "shop.dff" || m.Version != b.Version() {
		t.Errorf("unexpected header %q %s", m.Name, m.Version)
	}
	if len(m.Geometries) != 2 {
		t.Fatalf("expected 2 geometries, got %d", len(m.Geometries))
	}

	parts := m.Parts()
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts from the last geometry, got %d", len(parts))
	}
	if parts[0].MaterialIndex != 0 || parts[1].MaterialIndex != 2 {
		t.Errorf("unexpected material indices %d, %d", parts[0].MaterialIndex, parts[1].MaterialIndex)
	}
	if parts[0].Material.Texture.Key() != "shops#brick" {
		t.Errorf("unexpected texture key %q", parts[0].Material.Texture.Key())
	}
	if parts[1].Material.Texture != nil {
		t.Error("third material is untextured")
	}

	stats := m.Stats()
	if stats.Geometries != 2 || stats.Parts != 3 || stats.Triangles != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(stats.Textures) != 1 || stats.Textures[0] != "brick" {
		t.Errorf("unexpected textures %v", stats.Textures)
	}
}

func TestParts_SkipsFailedGeometry(t *testing.T) {
	m := &Model{Geometries: []Geometry{
		{Parts: []Part{{MaterialIndex: 7}}},
		{Err: ErrMissingMaterialList},
	}}
	parts := m.Parts()
	if len(parts) != 1 || parts[0].MaterialIndex != 7 {
		t.Errorf("expected the first geometry's parts, got %+v", parts)
	}
}

func TestBuildModel_MaterialErrorIsPerPart(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)
	spec := rwtest.GeometrySpec{
		Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []rw.Triangle{{V: [3]uint16{0, 1, 2}}},
	}
	bad := b.Material(rwtest.MaterialSpec{Texture: &rwtest.TextureSpec{Name: "x"}})
	root := parse(t, b.GeometryList(b.Geometry(spec, b.MaterialList(nil, bad))))

	m, err := BuildModel(root, "d")
	if err != nil {
		t.Fatalf("BuildModel failed: %v", err)
	}
	parts := m.Parts()
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if !errors.Is(parts[0].Err, ErrUnknownAddressingMode) || parts[0].Mesh == nil {
		t.Errorf("expected a mesh with a material error, got %+v", parts[0])
	}
}

func TestLoad_Errors(t *testing.T) {
	b := rwtest.New(rwtest.LibrarySA)

	if _, err := Load("bad.dff", []byte{1, 2, 3}, "d"); !errors.Is(err, rw.ErrMalformedContainer) {
		t.Errorf("expected ErrMalformedContainer, got %v", err)
	}

	dict := b.TextureDictionary()
	if _, err := Load("tex.dff", dict, "d"); !errors.Is(err, ErrInvalidContainer) {
		t.Errorf("expected ErrInvalidContainer, got %v", err)
	}
}
