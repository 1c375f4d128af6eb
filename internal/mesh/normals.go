package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RecomputeNormals rebuilds per-vertex normals from the triangles that use
// each vertex. Face normals are weighted by area, so a welded vertex gets a
// smoothed normal while unshared vertices keep their face normal.
func RecomputeNormals(b *Buffer) {
	normals := make([]mgl32.Vec3, len(b.Positions))

	for i := 0; i+2 < len(b.Indices); i += 3 {
		i0, i1, i2 := b.Indices[i], b.Indices[i+1], b.Indices[i+2]
		p0, p1, p2 := b.Positions[i0], b.Positions[i1], b.Positions[i2]

		// Unnormalised cross product: length is twice the face area.
		face := p1.Sub(p0).Cross(p2.Sub(p0))
		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}

	for i := range normals {
		normals[i] = normalize(normals[i])
	}
	b.Normals = normals
}

// normalize returns a unit vector, falling back to +Y for degenerate input.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-8 {
		return mgl32.Vec3{0, 1, 0}
	}
	return v.Mul(1 / l)
}
