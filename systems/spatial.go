// Package systems provides the spatial index and wall geometry the
// simulation engine runs on.
package systems

import "math"

// DefaultCellSize is the grid cell edge used when a scenario does not
// set one. Roughly double the largest expected sense radius.
const DefaultCellSize = 200.0

// Neighbor holds a nearby agent with precomputed spatial data.
// This avoids recomputing wrap deltas and distances in the hot path.
type Neighbor struct {
	Index  int32   // position in the per-tick snapshot
	DX, DY float64 // delta from query origin (shortest path when wrapping)
	DistSq float64 // squared distance (avoid sqrt in hot path)
}

// entry pins an agent's position at insert time. Queries made while
// agents move mid-tick still see the start-of-tick layout.
type entry struct {
	index int32
	x, y  float64
}

// Grid provides O(1) neighbor lookups using a cell-based grid.
type Grid struct {
	cellW  float64 // effective cell width (see NewGrid)
	cellH  float64 // effective cell height
	cols   int
	rows   int
	width  float64
	height float64
	wrap   bool
	cells  [][]entry // flat grid of pinned positions
}

// NewGrid creates a spatial grid covering the given world size.
// When wrap is set, queries measure distances toroidally and the cells
// tile the world exactly: cell-index wrap and coordinate wrap must
// agree at the seam, so cell edges shrink below cellSize when the
// world is not an even multiple of it.
func NewGrid(width, height, cellSize float64, wrap bool) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	var cols, rows int
	var cellW, cellH float64
	if wrap {
		cols = tileCount(width, cellSize)
		rows = tileCount(height, cellSize)
		cellW = width / float64(cols)
		cellH = height / float64(rows)
	} else {
		cols = int(width/cellSize) + 1
		rows = int(height/cellSize) + 1
		cellW = cellSize
		cellH = cellSize
	}

	cells := make([][]entry, cols*rows)
	for i := range cells {
		cells[i] = make([]entry, 0, 8) // pre-allocate small capacity
	}

	return &Grid{
		cellW:  cellW,
		cellH:  cellH,
		cols:   cols,
		rows:   rows,
		width:  width,
		height: height,
		wrap:   wrap,
		cells:  cells,
	}
}

// tileCount is the number of cells of edge at most cellSize needed to
// span size, never less than one.
func tileCount(size, cellSize float64) int {
	n := int(math.Ceil(size / cellSize))
	if n < 1 {
		n = 1
	}
	return n
}

// Clear removes all entries from the grid.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an agent to the grid at the given position.
func (g *Grid) Insert(index int32, x, y float64) {
	idx := g.cellIndex(x, y)
	if idx >= 0 && idx < len(g.cells) {
		g.cells[idx] = append(g.cells[idx], entry{index: index, x: x, y: y})
	}
}

// QueryRadiusInto finds agents within radius of (x, y) and appends them
// to dst, returning the updated slice. Reuse dst across calls to avoid
// allocations. The agent with index exclude is skipped. Distances are
// measured against the positions pinned at Insert time.
func (g *Grid) QueryRadiusInto(dst []Neighbor, x, y, radius float64, exclude int32) []Neighbor {
	if radius <= 0 {
		return dst
	}

	colRadius := int(radius/g.cellW) + 1
	rowRadius := int(radius/g.cellH) + 1
	centerCol := int(x / g.cellW)
	centerRow := int(y / g.cellH)

	minCol, maxCol := centerCol-colRadius, centerCol+colRadius
	minRow, maxRow := centerRow-rowRadius, centerRow+rowRadius
	if g.wrap {
		// A window wider than the grid would visit cells twice.
		if maxCol-minCol+1 > g.cols {
			minCol, maxCol = 0, g.cols-1
		}
		if maxRow-minRow+1 > g.rows {
			minRow, maxRow = 0, g.rows-1
		}
	} else {
		minCol, maxCol = max(minCol, 0), min(maxCol, g.cols-1)
		minRow, maxRow = max(minRow, 0), min(maxRow, g.rows-1)
	}

	radiusSq := radius * radius

	for row := minRow; row <= maxRow; row++ {
		r := row
		if g.wrap {
			r = wrapIndex(row, g.rows)
		}
		for col := minCol; col <= maxCol; col++ {
			c := col
			if g.wrap {
				c = wrapIndex(col, g.cols)
			}

			for _, e := range g.cells[r*g.cols+c] {
				if e.index == exclude {
					continue
				}

				dx, dy := g.Delta(x, y, e.x, e.y)
				distSq := dx*dx + dy*dy

				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Index: e.index, DX: dx, DY: dy, DistSq: distSq})
				}
			}
		}
	}

	return dst
}

// Delta returns the delta from (x1, y1) to (x2, y2), taking the
// shortest path across edges when the grid wraps.
func (g *Grid) Delta(x1, y1, x2, y2 float64) (dx, dy float64) {
	dx = x2 - x1
	dy = y2 - y1
	if !g.wrap {
		return dx, dy
	}

	if dx > g.width/2 {
		dx -= g.width
	} else if dx < -g.width/2 {
		dx += g.width
	}
	if dy > g.height/2 {
		dy -= g.height
	} else if dy < -g.height/2 {
		dy += g.height
	}

	return dx, dy
}

// cellIndex returns the flat index for a world position, clamped to
// the grid. Out-of-bounds positions land in the nearest edge cell.
func (g *Grid) cellIndex(x, y float64) int {
	col := int(x / g.cellW)
	row := int(y / g.cellH)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}

// wrapIndex maps i into [0, n) for negative and overflowing indices.
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
