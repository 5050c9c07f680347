// Package patch implements parametric surface patches. A Surface is a grid of
// quadratic Bezier control points; evaluating it yields a Grid of sampled
// points that the geometry core uses for intersection tests.
package patch

import (
	"errors"
	"fmt"

	"github.com/chazu/mapcore/pkg/geom"
)

var (
	// ErrPointCount is returned when the point list does not match the grid size.
	ErrPointCount = errors.New("point count does not match rows x columns")
	// ErrGridSize is returned for grids with fewer than one row or column.
	ErrGridSize = errors.New("grid must have at least one row and one column")
)

// Point is one sample of a surface.
type Point struct {
	Position geom.Vec
	TexCoord [2]float64
}

// Grid is a rectangular grid of sampled points stored row by row. Bounds is
// the tight box around all positions.
type Grid struct {
	PointRowCount    int
	PointColumnCount int
	Points           []Point
	Bounds           geom.BBox
}

// NewGrid validates the dimensions and computes the bounds.
func NewGrid(rows, cols int, points []Point) (Grid, error) {
	if rows < 1 || cols < 1 {
		return Grid{}, fmt.Errorf("patch: %dx%d: %w", rows, cols, ErrGridSize)
	}
	if len(points) != rows*cols {
		return Grid{}, fmt.Errorf("patch: %d points for %dx%d grid: %w", len(points), rows, cols, ErrPointCount)
	}
	positions := make([]geom.Vec, len(points))
	for i, p := range points {
		positions[i] = p.Position
	}
	return Grid{
		PointRowCount:    rows,
		PointColumnCount: cols,
		Points:           points,
		Bounds:           geom.BBoxOf(positions...),
	}, nil
}

// GridFromPositions builds a grid from bare positions.
func GridFromPositions(rows, cols int, positions []geom.Vec) (Grid, error) {
	points := make([]Point, len(positions))
	for i, p := range positions {
		points[i] = Point{Position: p}
	}
	return NewGrid(rows, cols, points)
}

// Point returns the sample at (row, col).
func (g Grid) Point(row, col int) Point {
	return g.Points[row*g.PointColumnCount+col]
}

// QuadCount returns the number of cells in the grid.
func (g Grid) QuadCount() int {
	if g.PointRowCount < 2 || g.PointColumnCount < 2 {
		return 0
	}
	return (g.PointRowCount - 1) * (g.PointColumnCount - 1)
}

// Quad returns the corners of the cell whose top-left corner is (row, col), in
// winding order.
func (g Grid) Quad(row, col int) [4]geom.Vec {
	return [4]geom.Vec{
		g.Point(row, col).Position,
		g.Point(row, col+1).Position,
		g.Point(row+1, col+1).Position,
		g.Point(row+1, col).Position,
	}
}

// IntersectWithRay returns the distance to the nearest cell hit by r.
func (g Grid) IntersectWithRay(r geom.Ray) (float64, bool) {
	if _, ok := geom.IntersectRayBBox(r, g.Bounds); !ok {
		return 0, false
	}
	best, found := 0.0, false
	for row := 0; row < g.PointRowCount-1; row++ {
		for col := 0; col < g.PointColumnCount-1; col++ {
			q := g.Quad(row, col)
			for _, tri := range [2][3]geom.Vec{{q[0], q[1], q[2]}, {q[0], q[2], q[3]}} {
				if d, ok := geom.IntersectRayTriangle(r, tri[0], tri[1], tri[2]); ok && (!found || d < best) {
					best, found = d, true
				}
			}
		}
	}
	return best, found
}
