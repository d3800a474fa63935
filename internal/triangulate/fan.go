// Package triangulate implements fan triangulation of an ordered point set.
//
// The fan is anchored at point 0 and is only a valid, non-overlapping
// triangulation when the points trace a convex polygon in order. Concave or
// unordered input still yields n-2 triangles, which may overlap; callers that
// need a planar triangulation of arbitrary input must not use this package.
package triangulate

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/triangulator/internal/geom"
)

// CollinearTolerance is the absolute cross-product magnitude below which a
// point is treated as lying on the line through points 0 and 1.
const CollinearTolerance = 1e-12

// Fan triangulates points as a fan around point 0, emitting (0, i, i+1) for
// i in [1, n-2]. Fewer than three points, or points that are all collinear
// with the first two, produce an empty (non-nil) result.
func Fan(points geom.PointSet) []geom.Triangle {
	n := len(points)
	if n < 3 || Collinear(points) {
		return []geom.Triangle{}
	}

	triangles := make([]geom.Triangle, 0, n-2)
	for i := 1; i < n-1; i++ {
		triangles = append(triangles, geom.Triangle{0, uint32(i), uint32(i + 1)})
	}
	return triangles
}

// Collinear reports whether every point lies within CollinearTolerance of
// the line through points 0 and 1, measured by the 2D cross product of
// (p1 - p0) and (pi - p0). Sets with fewer than three points are collinear.
func Collinear(points geom.PointSet) bool {
	if len(points) < 3 {
		return true
	}
	p0 := vec(points[0])
	edge := r2.Sub(vec(points[1]), p0)
	for _, p := range points[2:] {
		// Written as !(x < tol) so a NaN cross product counts as off the line.
		if !(math.Abs(r2.Cross(edge, r2.Sub(vec(p), p0))) < CollinearTolerance) {
			return false
		}
	}
	return true
}

func vec(p geom.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}
