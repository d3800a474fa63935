package codec

import (
	"encoding/binary"

	"github.com/banshee-data/triangulator/internal/geom"
)

// DecodePointSet decodes a PointSet payload. The buffer must be exactly
// 4 + count*16 bytes long; both truncated and over-long input are rejected.
func DecodePointSet(data []byte) (geom.PointSet, error) {
	if len(data) < geom.HeaderSize {
		return nil, headerTooShort(opDecodePointSet, "point count", len(data))
	}

	count := binary.LittleEndian.Uint32(data)
	expected := uint64(geom.HeaderSize) + uint64(count)*geom.PointSize
	if uint64(len(data)) != expected {
		return nil, formatErr(opDecodePointSet, geom.ErrLengthMismatch, -1, int(expected), len(data),
			"expected %d bytes for %d points, got %d", expected, count, len(data))
	}

	points := make(geom.PointSet, count)
	off := geom.HeaderSize
	for i := range points {
		points[i] = readPoint(data[off:])
		off += geom.PointSize
	}
	return points, nil
}

// EncodePointSet encodes points as a PointSet payload. An empty set encodes
// to the 4-byte header alone.
func EncodePointSet(points geom.PointSet) ([]byte, error) {
	buf := make([]byte, 0, geom.PointSetSize(len(points)))
	return appendPointSection(buf, opEncodePointSet, points)
}
