// Package codec implements the binary PointSet and Mesh formats.
//
// PointSet:
//
//	uint32 count
//	count × (float64 x, float64 y)
//
// Mesh:
//
//	uint32 pointCount
//	pointCount × (float64 x, float64 y)
//	uint32 triangleCount
//	triangleCount × (uint32 a, uint32 b, uint32 c)
//
// Every field is little-endian with no padding. Decoders either return the
// whole value or a *geom.FormatError; nothing partial escapes. The codecs
// never check triangle indices against the point count.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/banshee-data/triangulator/internal/geom"
)

const (
	opDecodePointSet = "decode pointset"
	opEncodePointSet = "encode pointset"
	opDecodeMesh     = "decode mesh"
	opEncodeMesh     = "encode mesh"
)

func formatErr(op string, kind error, index, expected, actual int, format string, args ...interface{}) error {
	return &geom.FormatError{
		Op:       op,
		Kind:     kind,
		Index:    index,
		Expected: expected,
		Actual:   actual,
		Detail:   fmt.Sprintf(format, args...),
	}
}

func headerTooShort(op, field string, got int) error {
	return formatErr(op, geom.ErrHeaderTooShort, -1, geom.HeaderSize, got,
		"need %d bytes for %s, got %d", geom.HeaderSize, field, got)
}

// readPoint decodes one point record from the start of b.
func readPoint(b []byte) geom.Point {
	return geom.Point{
		X: math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
	}
}

// readTriangle decodes one triangle record from the start of b.
func readTriangle(b []byte) geom.Triangle {
	return geom.Triangle{
		binary.LittleEndian.Uint32(b[0:4]),
		binary.LittleEndian.Uint32(b[4:8]),
		binary.LittleEndian.Uint32(b[8:12]),
	}
}

// appendPointSection appends the count header and point records of points.
func appendPointSection(dst []byte, op string, points geom.PointSet) ([]byte, error) {
	if uint64(len(points)) > geom.MaxCount {
		return nil, formatErr(op, geom.ErrUnrepresentable, -1, 0, 0,
			"point count %d does not fit in a uint32 header", len(points))
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(points)))
	for _, p := range points {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(p.X))
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(p.Y))
	}
	return dst, nil
}
