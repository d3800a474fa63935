package codec

import (
	"encoding/binary"

	"github.com/banshee-data/triangulator/internal/geom"
)

// DecodeMesh decodes a Mesh payload.
//
// The point section follows the PointSet rules except that the buffer
// continues into the triangle section. Each declared point and triangle is
// bounds-checked individually so the error names the first record that is
// cut short, and any byte left after the last triangle is an error.
func DecodeMesh(data []byte) (geom.Mesh, error) {
	n := len(data)
	if n < geom.HeaderSize {
		return geom.Mesh{}, headerTooShort(opDecodeMesh, "point count", n)
	}

	pointCount := binary.LittleEndian.Uint32(data)
	off := geom.HeaderSize

	// Cap the up-front allocation by what the buffer could hold so a hostile
	// header cannot force a huge allocation.
	points := make(geom.PointSet, 0, min(uint64(pointCount), uint64((n-off)/geom.PointSize)))
	for i := uint32(0); i < pointCount; i++ {
		if off+geom.PointSize > n {
			return geom.Mesh{}, formatErr(opDecodeMesh, geom.ErrPointDataIncomplete, int(i), off+geom.PointSize, n,
				"point %d incomplete: offset=%d, len=%d", i, off, n)
		}
		points = append(points, readPoint(data[off:]))
		off += geom.PointSize
	}

	if off+geom.HeaderSize > n {
		return geom.Mesh{}, formatErr(opDecodeMesh, geom.ErrTriangleHeaderMissing, -1, off+geom.HeaderSize, n,
			"no triangle count after %d points: offset=%d, len=%d", pointCount, off, n)
	}
	triangleCount := binary.LittleEndian.Uint32(data[off:])
	off += geom.HeaderSize

	triangles := make([]geom.Triangle, 0, min(uint64(triangleCount), uint64((n-off)/geom.TriangleSize)))
	for i := uint32(0); i < triangleCount; i++ {
		if off+geom.TriangleSize > n {
			return geom.Mesh{}, formatErr(opDecodeMesh, geom.ErrTriangleDataIncomplete, int(i), off+geom.TriangleSize, n,
				"triangle %d incomplete: offset=%d, len=%d", i, off, n)
		}
		triangles = append(triangles, readTriangle(data[off:]))
		off += geom.TriangleSize
	}

	if off != n {
		return geom.Mesh{}, formatErr(opDecodeMesh, geom.ErrTrailingBytes, -1, off, n,
			"%d bytes left unread after %d triangles", n-off, triangleCount)
	}

	return geom.Mesh{Points: points, Triangles: triangles}, nil
}

// EncodeMesh encodes points followed by triangles as a Mesh payload. Indices
// are written as given. Empty inputs encode to exactly 8 bytes.
func EncodeMesh(triangles []geom.Triangle, points geom.PointSet) ([]byte, error) {
	if uint64(len(triangles)) > geom.MaxCount {
		return nil, formatErr(opEncodeMesh, geom.ErrUnrepresentable, -1, 0, 0,
			"triangle count %d does not fit in a uint32 header", len(triangles))
	}

	buf := make([]byte, 0, geom.MeshSize(len(points), len(triangles)))
	buf, err := appendPointSection(buf, opEncodeMesh, points)
	if err != nil {
		return nil, err
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(triangles)))
	for _, t := range triangles {
		buf = binary.LittleEndian.AppendUint32(buf, t[0])
		buf = binary.LittleEndian.AppendUint32(buf, t[1])
		buf = binary.LittleEndian.AppendUint32(buf, t[2])
	}
	return buf, nil
}

// EncodeMeshValue is EncodeMesh for a Mesh value.
func EncodeMeshValue(m geom.Mesh) ([]byte, error) {
	return EncodeMesh(m.Triangles, m.Points)
}
