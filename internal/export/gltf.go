package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/libertycity/internal/model"
	"github.com/Faultbox/libertycity/pkg/rw"
	"github.com/Faultbox/libertycity/pkg/txd"
)

// TextureLookup returns the decoded image of a texture reference.
type TextureLookup func(ref model.TextureRef) (*txd.Image, bool)

// ModelDocument converts the renderable parts of a model to a glTF document.
// Textures that textures cannot supply leave the material untextured.
func ModelDocument(m *model.Model, textures TextureLookup) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	cache := make(map[string]uint32)

	mesh := &gltf.Mesh{Name: m.Name}
	for _, part := range m.Parts() {
		if part.Mesh == nil {
			continue
		}
		prim := writePrimitive(doc, part.Mesh)

		mat, err := writeMaterial(doc, part, textures, cache)
		if err != nil {
			return nil, errors.Wrapf(err, "material %d of %s", part.MaterialIndex, m.Name)
		}
		prim.Material = gltf.Index(mat)
		mesh.Primitives = append(mesh.Primitives, prim)
	}

	doc.Meshes = append(doc.Meshes, mesh)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// ModelGLB writes a model as binary glTF.
func ModelGLB(w io.Writer, m *model.Model, textures TextureLookup) error {
	doc, err := ModelDocument(m, textures)
	if err != nil {
		return err
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return errors.Wrap(encoder.Encode(doc), "encoding glb")
}

func writePrimitive(doc *gltf.Document, mesh *model.Mesh) *gltf.Primitive {
	positions := make([][3]float32, len(mesh.Positions))
	for i, p := range mesh.Positions {
		positions[i] = p
	}
	attributes := gltf.Attribute{gltf.POSITION: modeler.WritePosition(doc, positions)}

	if mesh.Normals != nil {
		normals := make([][3]float32, len(mesh.Normals))
		for i, n := range mesh.Normals {
			normals[i] = n
		}
		attributes[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}
	for i, set := range mesh.TexCoords {
		attributes[fmt.Sprintf("TEXCOORD_%d", i)] = modeler.WriteTextureCoord(doc, set)
	}
	if mesh.Colors != nil {
		colors := make([][4]uint8, len(mesh.Colors))
		for i, c := range mesh.Colors {
			colors[i] = [4]uint8{c.R, c.G, c.B, c.A}
		}
		attributes[gltf.COLOR_0] = modeler.WriteColor(doc, colors)
	}

	mode := gltf.PrimitiveTriangles
	if mesh.Topology == model.TriangleStrip {
		mode = gltf.PrimitiveTriangleStrip
	}
	return &gltf.Primitive{
		Indices:    gltf.Index(modeler.WriteIndices(doc, mesh.Indices)),
		Attributes: attributes,
		Mode:       mode,
	}
}

func writeMaterial(doc *gltf.Document, part model.Part, textures TextureLookup, cache map[string]uint32) (uint32, error) {
	mat := part.Material
	if mat == nil {
		doc.Materials = append(doc.Materials, &gltf.Material{Name: "default", DoubleSided: true})
		return uint32(len(doc.Materials) - 1), nil
	}

	color := [4]float32{
		float32(mat.Color.R) / 255,
		float32(mat.Color.G) / 255,
		float32(mat.Color.B) / 255,
		float32(mat.Color.A) / 255,
	}
	gm := &gltf.Material{
		Name:                 fmt.Sprintf("material%d", part.MaterialIndex),
		DoubleSided:          true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &color},
	}
	if color[3] < 1 {
		gm.AlphaMode = gltf.AlphaBlend
	}

	if mat.Texture != nil && textures != nil {
		if img, ok := textures(*mat.Texture); ok {
			gm.Name = mat.Texture.Name
			tex, err := writeTexture(doc, mat, img, cache)
			if err != nil {
				return 0, err
			}
			gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
			if hasAlpha(img) {
				gm.AlphaMode = gltf.AlphaMask
			}
		}
	}

	doc.Materials = append(doc.Materials, gm)
	return uint32(len(doc.Materials) - 1), nil
}

func writeTexture(doc *gltf.Document, mat *model.Material, img *txd.Image, cache map[string]uint32) (uint32, error) {
	key := fmt.Sprintf("%s/%s/%s", mat.Texture.Key(), mat.AddressU, mat.AddressV)
	if index, ok := cache[key]; ok {
		return index, nil
	}

	var buf bytes.Buffer
	if err := EncodeImage(&buf, img, PNG); err != nil {
		return 0, err
	}
	source, err := modeler.WriteImage(doc, mat.Texture.Name, "image/png", &buf)
	if err != nil {
		return 0, errors.Wrap(err, "writing gltf image")
	}

	minFilter, magFilter := samplerFilter(mat.Filter)
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MinFilter: minFilter,
		MagFilter: magFilter,
		WrapS:     wrapMode(mat.AddressU),
		WrapT:     wrapMode(mat.AddressV),
	})
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    mat.Texture.Name,
		Sampler: gltf.Index(uint32(len(doc.Samplers) - 1)),
		Source:  gltf.Index(source),
	})

	index := uint32(len(doc.Textures) - 1)
	cache[key] = index
	return index, nil
}

// wrapMode maps an address mode to glTF. glTF has no border mode; clamping
// to the edge is the closest match.
func wrapMode(a model.AddressMode) gltf.WrappingMode {
	switch a {
	case model.MirrorRepeat:
		return gltf.WrapMirroredRepeat
	case model.ClampToEdge, model.ClampToBorder:
		return gltf.WrapClampToEdge
	}
	return gltf.WrapRepeat
}

func samplerFilter(f rw.FilterMode) (gltf.MinFilter, gltf.MagFilter) {
	switch f {
	case rw.FilterNearest:
		return gltf.MinNearest, gltf.MagNearest
	case rw.FilterMipNearest:
		return gltf.MinNearestMipMapNearest, gltf.MagNearest
	case rw.FilterMipLinear:
		return gltf.MinNearestMipMapLinear, gltf.MagNearest
	case rw.FilterLinearMipNearest:
		return gltf.MinLinearMipMapNearest, gltf.MagLinear
	case rw.FilterLinearMipLinear:
		return gltf.MinLinearMipMapLinear, gltf.MagLinear
	}
	return gltf.MinLinear, gltf.MagLinear
}

func hasAlpha(img *txd.Image) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xFF {
			return true
		}
	}
	return false
}
