// Package geom holds the value types shared by the codecs and the
// triangulation engine, plus the wire-size constants of the binary formats.
package geom

import "math"

// Wire sizes of the binary formats. All multi-byte fields are little-endian.
const (
	// HeaderSize is the width of a uint32 count header.
	HeaderSize = 4
	// PointSize is the width of one (float64 x, float64 y) record.
	PointSize = 16
	// TriangleSize is the width of one (uint32 a, uint32 b, uint32 c) record.
	TriangleSize = 12

	// MaxCount is the largest count a uint32 header can declare.
	MaxCount = math.MaxUint32
)

// Point is a 2D coordinate pair. Points have no identity beyond their value.
type Point struct {
	X, Y float64
}

// PointSet is an ordered sequence of points. Triangle indices refer to
// positions in this sequence, so order is part of the value.
type PointSet []Point

// Triangle is an ordered triple of indices into an accompanying PointSet.
type Triangle [3]uint32

// Mesh pairs a PointSet with the triangles that index into it.
type Mesh struct {
	Points    PointSet
	Triangles []Triangle
}

// PointSetSize returns the encoded length of a PointSet with n points.
func PointSetSize(n int) int {
	return HeaderSize + n*PointSize
}

// MeshSize returns the encoded length of a Mesh with n points and t triangles.
func MeshSize(n, t int) int {
	return PointSetSize(n) + HeaderSize + t*TriangleSize
}
