package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// cacheSize is the simulated post-transform cache used for reordering.
const cacheSize = 32

// Forsyth scoring constants.
const (
	lastTriScore       = 0.75
	cacheDecayPower    = 1.5
	valenceBoostScale  = 2.0
	valenceBoostPower  = 0.5
	noCachePosition    = -1
	emittedTriangleTag = -1
)

// Optimize reorders triangles for post-transform cache reuse (Forsyth's
// linear-speed algorithm) and then renumbers vertices in first-use order so
// vertex fetches walk memory forwards. The set of triangles, the index count
// and the vertex count are unchanged.
func Optimize(b *Buffer) {
	if len(b.Indices) < 6 {
		reindexVertices(b)
		return
	}
	b.Indices = reorderTriangles(b.Indices, len(b.Positions))
	reindexVertices(b)
}

type vertexState struct {
	cachePos  int
	score     float32
	active    int
	triangles []int
}

func vertexScore(v *vertexState) float32 {
	if v.active == 0 {
		return -1
	}
	var score float32
	if v.cachePos >= 0 {
		if v.cachePos < 3 {
			score = lastTriScore
		} else {
			scaler := 1.0 / float32(cacheSize-3)
			score = 1 - float32(v.cachePos-3)*scaler
			score = float32(math.Pow(float64(score), cacheDecayPower))
		}
	}
	score += valenceBoostScale * float32(math.Pow(float64(v.active), -valenceBoostPower))
	return score
}

func reorderTriangles(indices []uint32, vertexCount int) []uint32 {
	triCount := len(indices) / 3
	verts := make([]vertexState, vertexCount)
	for i := range verts {
		verts[i].cachePos = noCachePosition
	}
	for t := 0; t < triCount; t++ {
		for k := 0; k < 3; k++ {
			v := &verts[indices[t*3+k]]
			v.active++
			v.triangles = append(v.triangles, t)
		}
	}
	for i := range verts {
		verts[i].score = vertexScore(&verts[i])
	}

	triScore := make([]float32, triCount)
	for t := range triScore {
		triScore[t] = verts[indices[t*3]].score + verts[indices[t*3+1]].score + verts[indices[t*3+2]].score
	}

	out := make([]uint32, 0, len(indices))
	cache := make([]uint32, 0, cacheSize+3)
	next := make([]uint32, 0, cacheSize+3)
	remaining := triCount

	best := bestTriangle(triScore)
	for remaining > 0 {
		if best < 0 {
			best = bestTriangle(triScore)
		}
		tri := [3]uint32{indices[best*3], indices[best*3+1], indices[best*3+2]}
		out = append(out, tri[0], tri[1], tri[2])
		triScore[best] = emittedTriangleTag
		remaining--

		// Retire the triangle from its vertices.
		for _, vi := range tri {
			v := &verts[vi]
			v.active--
			for j, t := range v.triangles {
				if t == best {
					v.triangles = append(v.triangles[:j], v.triangles[j+1:]...)
					break
				}
			}
		}

		// New cache: emitted vertices first, then the old contents.
		next = append(next[:0], tri[0], tri[1], tri[2])
		for _, vi := range cache {
			if vi != tri[0] && vi != tri[1] && vi != tri[2] {
				next = append(next, vi)
			}
		}
		for i, vi := range next {
			if i < cacheSize {
				verts[vi].cachePos = i
			} else {
				verts[vi].cachePos = noCachePosition
			}
			verts[vi].score = vertexScore(&verts[vi])
		}
		if len(next) > cacheSize {
			next = next[:cacheSize]
		}
		cache, next = next, cache

		// Rescore triangles touching the cache and pick the best of them.
		best = -1
		var bestScore float32 = -1
		for _, vi := range cache {
			for _, t := range verts[vi].triangles {
				s := verts[indices[t*3]].score + verts[indices[t*3+1]].score + verts[indices[t*3+2]].score
				triScore[t] = s
				if s > bestScore {
					bestScore = s
					best = t
				}
			}
		}
	}
	return out
}

func bestTriangle(scores []float32) int {
	best := -1
	var bestScore float32 = emittedTriangleTag
	for t, s := range scores {
		if s > bestScore {
			bestScore = s
			best = t
		}
	}
	return best
}

// reindexVertices renumbers vertices in the order indices first reference
// them and drops nothing; unreferenced vertices keep trailing slots.
func reindexVertices(b *Buffer) {
	n := len(b.Positions)
	remap := make([]int, n)
	for i := range remap {
		remap[i] = -1
	}
	next := 0
	for i, idx := range b.Indices {
		if remap[idx] < 0 {
			remap[idx] = next
			next++
		}
		b.Indices[i] = uint32(remap[idx])
	}
	for i := range remap {
		if remap[i] < 0 {
			remap[i] = next
			next++
		}
	}

	positions := make([]mgl32.Vec3, n)
	colors := make([]mgl32.Vec4, n)
	var normals []mgl32.Vec3
	if len(b.Normals) == n {
		normals = make([]mgl32.Vec3, n)
	}
	for old, nw := range remap {
		positions[nw] = b.Positions[old]
		colors[nw] = b.Colors[old]
		if normals != nil {
			normals[nw] = b.Normals[old]
		}
	}
	b.Positions = positions
	b.Colors = colors
	if normals != nil {
		b.Normals = normals
	}
}

// ACMR returns the average cache miss ratio (misses per triangle) of the
// index order under a FIFO cache of the given size. Lower is better; 3 is
// the worst case.
func (b *Buffer) ACMR(size int) float64 {
	if b.TriangleCount() == 0 || size <= 0 {
		return 0
	}
	fifo := make([]uint32, 0, size)
	misses := 0
	for _, idx := range b.Indices {
		hit := false
		for _, c := range fifo {
			if c == idx {
				hit = true
				break
			}
		}
		if hit {
			continue
		}
		misses++
		if len(fifo) == size {
			fifo = fifo[1:]
		}
		fifo = append(fifo, idx)
	}
	return float64(misses) / float64(b.TriangleCount())
}
