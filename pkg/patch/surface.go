package patch

import (
	"errors"
	"fmt"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
)

// DefaultSubdivisions is the default subdivision level. A level n surface has
// 2^n grid cells per Bezier segment along each side.
const DefaultSubdivisions = 2

// MaxSubdivisions is the highest subdivision level Evaluate honours.
const MaxSubdivisions = 8

// ErrControlSize is returned for control nets whose sides are not odd and >= 3.
var ErrControlSize = errors.New("control net rows and columns must be odd and at least 3")

// Surface is a grid of quadratic Bezier control points. Adjacent 3x3 blocks
// share their border rows and columns.
type Surface struct {
	Rows    int
	Cols    int
	Control []geom.Vec
	Texture *asset.Texture
}

// NewSurface validates the control net.
func NewSurface(rows, cols int, control []geom.Vec, texture *asset.Texture) (Surface, error) {
	if rows < 3 || cols < 3 || rows%2 == 0 || cols%2 == 0 {
		return Surface{}, fmt.Errorf("patch: %dx%d: %w", rows, cols, ErrControlSize)
	}
	if len(control) != rows*cols {
		return Surface{}, fmt.Errorf("patch: %d control points for %dx%d net: %w", len(control), rows, cols, ErrPointCount)
	}
	return Surface{Rows: rows, Cols: cols, Control: append([]geom.Vec(nil), control...), Texture: texture}, nil
}

func (s Surface) control(row, col int) geom.Vec {
	return s.Control[row*s.Cols+col]
}

func bernstein(t float64) [3]float64 {
	u := 1 - t
	return [3]float64{u * u, 2 * t * u, t * t}
}

// Evaluate samples the surface at the given subdivision level: each Bezier
// segment is split into 2^level cells in each direction. The level is clamped
// to [0, MaxSubdivisions].
func (s Surface) Evaluate(level int) Grid {
	level = min(max(level, 0), MaxSubdivisions)
	subdivisions := 1 << level
	segRows := (s.Rows - 1) / 2
	segCols := (s.Cols - 1) / 2
	rows := segRows*subdivisions + 1
	cols := segCols*subdivisions + 1

	points := make([]Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		segR, tr := segment(r, subdivisions, segRows)
		br := bernstein(tr)
		for c := 0; c < cols; c++ {
			segC, tc := segment(c, subdivisions, segCols)
			bc := bernstein(tc)

			var p geom.Vec
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					cp := s.control(segR*2+i, segC*2+j)
					p = p.Add(cp.MulScalar(br[i] * bc[j]))
				}
			}
			points = append(points, Point{
				Position: p,
				TexCoord: [2]float64{float64(c) / float64(cols-1), float64(r) / float64(rows-1)},
			})
		}
	}
	g, err := NewGrid(rows, cols, points)
	if err != nil {
		panic(fmt.Sprintf("patch: evaluate: %v", err))
	}
	return g
}

// segment maps a sample index to its Bezier segment and local parameter.
func segment(i, subdivisions, segments int) (int, float64) {
	seg := i / subdivisions
	if seg >= segments {
		return segments - 1, 1
	}
	return seg, float64(i%subdivisions) / float64(subdivisions)
}
