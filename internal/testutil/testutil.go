// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/banshee-data/triangulator/internal/codec"
	"github.com/banshee-data/triangulator/internal/geom"
	"github.com/banshee-data/triangulator/internal/pointset"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// UnitTriangle is the smallest non-degenerate point set.
func UnitTriangle() geom.PointSet {
	return geom.PointSet{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
}

// Square returns the unit square in counter-clockwise order.
func Square() geom.PointSet {
	return geom.PointSet{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

// Circle returns n points at equal angular spacing on a circle of radius r.
func Circle(n int, r float64) geom.PointSet {
	points := make(geom.PointSet, n)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = geom.Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return points
}

// EncodePointSet encodes points, failing the test on error.
func EncodePointSet(t testing.TB, points geom.PointSet) []byte {
	t.Helper()
	data, err := codec.EncodePointSet(points)
	if err != nil {
		t.Fatalf("encode pointset: %v", err)
	}
	return data
}

// DecodeMesh decodes a Mesh payload, failing the test on error.
func DecodeMesh(t testing.TB, data []byte) geom.Mesh {
	t.Helper()
	m, err := codec.DecodeMesh(data)
	if err != nil {
		t.Fatalf("decode mesh: %v", err)
	}
	return m
}

// MemorySource is an in-memory pointset.Source. Errors registered with
// SetError take precedence over stored payloads.
type MemorySource struct {
	mu     sync.Mutex
	data  map[string][]byte
	errs  map[string]error
	calls []string
}

var _ pointset.Source = (*MemorySource)(nil)

// NewMemorySource returns an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		data: make(map[string][]byte),
		errs: make(map[string]error),
	}
}

// Put stores raw bytes under id.
func (m *MemorySource) Put(id string, raw []byte) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = raw
	return m
}

// SetError makes Fetch(id) fail with err.
func (m *MemorySource) SetError(id string, err error) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[id] = err
	return m
}

// Fetch implements pointset.Source.
func (m *MemorySource) Fetch(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	if err, ok := m.errs[id]; ok {
		return nil, err
	}
	if raw, ok := m.data[id]; ok {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %s", pointset.ErrNotFound, id)
}

// Calls returns the ids fetched so far, in order.
func (m *MemorySource) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
