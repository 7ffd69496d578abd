package model

import "github.com/go-gl/mathgl/mgl32"

// ToYUp converts a file-space vector (Z up) to the Y-up convention used by
// every model output: (x, y, z) -> (-x, z, y). Applying it twice is the identity.
func ToYUp(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{-v[0], v[2], v[1]}
}

// QuatToYUp converts a file-space rotation (x, y, z, w) to Y-up and normalizes it.
func QuatToYUp(q [4]float32) mgl32.Quat {
	return mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], -q[2], -q[1]}}.Normalize()
}

// FlatNormals rebuilds per-vertex normals by accumulating the cross product of
// every triangle's edges at its three vertices. Vertices that accumulate a zero
// vector keep a zero normal.
func FlatNormals(positions []mgl32.Vec3, triangles [][3]uint16) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	for _, t := range triangles {
		v1, v2, v3 := positions[t[0]], positions[t[1]], positions[t[2]]
		n := v2.Sub(v1).Cross(v3.Sub(v1))
		normals[t[0]] = normals[t[0]].Add(n)
		normals[t[1]] = normals[t[1]].Add(n)
		normals[t[2]] = normals[t[2]].Add(n)
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	return normals
}
