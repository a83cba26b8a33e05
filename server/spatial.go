package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpatialGrid buckets static boxes on the XZ plane for broad-phase ray
// queries. It is built once per arena and read-only afterwards.
type SpatialGrid struct {
	cellSize   float64
	minX, minZ float64
	cols, rows int
	cells      [][]int
}

// NewSpatialGrid sizes a grid to cover bounds.
func NewSpatialGrid(bounds AABB, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil((bounds.Max[0]-bounds.Min[0])/cellSize)) + 1
	rows := int(math.Ceil((bounds.Max[2]-bounds.Min[2])/cellSize)) + 1
	return &SpatialGrid{
		cellSize: cellSize,
		minX:     bounds.Min[0],
		minZ:     bounds.Min[2],
		cols:     cols,
		rows:     rows,
		cells:    make([][]int, cols*rows),
	}
}

func (g *SpatialGrid) cellRange(minX, minZ, maxX, maxZ float64) (int, int, int, int) {
	clampCol := func(v float64) int {
		c := int(math.Floor((v - g.minX) / g.cellSize))
		return max(0, min(c, g.cols-1))
	}
	clampRow := func(v float64) int {
		r := int(math.Floor((v - g.minZ) / g.cellSize))
		return max(0, min(r, g.rows-1))
	}
	return clampCol(minX), clampRow(minZ), clampCol(maxX), clampRow(maxZ)
}

// InsertBox adds idx to every cell overlapping the box footprint.
func (g *SpatialGrid) InsertBox(box AABB, idx int) {
	c0, r0, c1, r1 := g.cellRange(box.Min[0], box.Min[2], box.Max[0], box.Max[2])
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			i := r*g.cols + c
			g.cells[i] = append(g.cells[i], idx)
		}
	}
}

// QuerySegment appends the indices of boxes whose cells overlap the
// footprint of segment a-b. Each index appears once.
func (g *SpatialGrid) QuerySegment(a, b mgl64.Vec3, buf []int) []int {
	c0, r0, c1, r1 := g.cellRange(math.Min(a[0], b[0]), math.Min(a[2], b[2]), math.Max(a[0], b[0]), math.Max(a[2], b[2]))
	seen := make(map[int]struct{})
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, idx := range g.cells[r*g.cols+c] {
				if _, ok := seen[idx]; ok {
					continue
				}
				seen[idx] = struct{}{}
				buf = append(buf, idx)
			}
		}
	}
	return buf
}
